// Package domain contains the core domain models for dependency conflict resolution.
package domain

import (
	"cmp"
	"iter"
	"slices"
)

// NodeID is the index of a node inside a Graph arena.
type NodeID int

// Edge is a dependency edge: From requires To.
type Edge struct {
	From NodeID
	To   NodeID
}

// Node is a package identity in the dependency graph.
type Node struct {
	// Name is the package name.
	Name string
	// Candidates are the known versions, ascending and free of duplicates.
	Candidates []Version
	// Requirements are the incoming requirements on this package.
	Requirements []Requirement
	// Constraints holds the parsed form of Requirements, index for index.
	Constraints []Constraint
	// Missing is set when the package is unknown to the catalog.
	Missing bool
	// Resolved is the selected version; zero until resolution assigns one.
	Resolved Version
}

// Admitted returns the candidates satisfying every incoming constraint.
func (n *Node) Admitted() []Version {
	return Admitted(n.Candidates, n.Constraints)
}

// Pins returns the distinct exact versions pinned by incoming requirements, ascending.
func (n *Node) Pins() []Version {
	var pins []Version
	for _, c := range n.Constraints {
		if c.Pinned() {
			pins = append(pins, c.Pin())
		}
	}
	return SortVersions(pins)
}

// Scopes returns the distinct scopes contributing requirements, sorted.
func (n *Node) Scopes() []string {
	scopes := make([]string, 0, len(n.Requirements))
	for _, r := range n.Requirements {
		scopes = append(scopes, string(r.Scope))
	}
	slices.Sort(scopes)
	return slices.Compact(scopes)
}

// ConstraintStrings returns the distinct constraint expressions, sorted.
func (n *Node) ConstraintStrings() []string {
	out := make([]string, 0, len(n.Constraints))
	for _, c := range n.Constraints {
		out = append(out, c.String())
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// OnlyOptional reports whether every incoming requirement is optional.
func (n *Node) OnlyOptional() bool {
	if len(n.Requirements) == 0 {
		return false
	}
	for _, r := range n.Requirements {
		if !r.Optional {
			return false
		}
	}
	return true
}

// Graph is a dependency graph stored as a flat arena of nodes with index-pair edges.
// Nodes are never removed, so NodeIDs stay valid for the life of the graph.
type Graph struct {
	nodes []Node
	index map[string]NodeID
	edges []Edge
	deps  map[NodeID][]NodeID
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]NodeID),
		deps:  make(map[NodeID][]NodeID),
	}
}

// AddNode adds a package node, or returns the existing one with the same name.
func (g *Graph) AddNode(name string) NodeID {
	if id, ok := g.index[name]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{Name: name})
	g.index[name] = id
	return id
}

// Lookup finds a node by package name.
func (g *Graph) Lookup(name string) (NodeID, bool) {
	id, ok := g.index[name]
	return id, ok
}

// Node returns the node stored at id.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddRequirement records an incoming requirement on the node at id.
func (g *Graph) AddRequirement(id NodeID, req Requirement, c Constraint) {
	n := &g.nodes[id]
	n.Requirements = append(n.Requirements, req)
	n.Constraints = append(n.Constraints, c)
}

// AddEdge records that from requires to. Duplicate edges are merged.
func (g *Graph) AddEdge(from, to NodeID) {
	if slices.Contains(g.deps[from], to) {
		return
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.deps[from] = append(g.deps[from], to)
}

// Dependencies returns the nodes required by id, ordered by name.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	out := slices.Clone(g.deps[id])
	slices.SortFunc(out, func(a, b NodeID) int {
		return cmp.Compare(g.nodes[a].Name, g.nodes[b].Name)
	})
	return out
}

// Edges returns a copy of every edge in insertion order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// All yields every node in index order.
func (g *Graph) All() iter.Seq2[NodeID, *Node] {
	return func(yield func(NodeID, *Node) bool) {
		for i := range g.nodes {
			if !yield(NodeID(i), &g.nodes[i]) {
				return
			}
		}
	}
}

// Sorted returns node ids ordered by package name.
func (g *Graph) Sorted() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i := range g.nodes {
		ids[i] = NodeID(i)
	}
	slices.SortFunc(ids, func(a, b NodeID) int {
		return cmp.Compare(g.nodes[a].Name, g.nodes[b].Name)
	})
	return ids
}

// Components partitions the graph into weakly connected components.
// Each component lists its nodes by name, and components are ordered by their smallest name.
func (g *Graph) Components() [][]NodeID {
	parent := make([]NodeID, len(g.nodes))
	for i := range parent {
		parent[i] = NodeID(i)
	}
	var find func(NodeID) NodeID
	find = func(x NodeID) NodeID {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range g.edges {
		a, b := find(e.From), find(e.To)
		if a != b {
			parent[a] = b
		}
	}

	groups := make(map[NodeID][]NodeID)
	for _, id := range g.Sorted() {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	out := make([][]NodeID, 0, len(groups))
	for _, members := range groups {
		out = append(out, members)
	}
	slices.SortFunc(out, func(a, b []NodeID) int {
		return cmp.Compare(g.nodes[a[0]].Name, g.nodes[b[0]].Name)
	})
	return out
}

// Subgraph copies the given nodes and the edges between them into a new Graph.
// The copy shares no mutable state with g, so it can be resolved on its own goroutine.
func (g *Graph) Subgraph(ids []NodeID) *Graph {
	sub := NewGraph()
	remap := make(map[NodeID]NodeID, len(ids))
	for _, id := range ids {
		src := g.nodes[id]
		nid := sub.AddNode(src.Name)
		n := sub.Node(nid)
		n.Candidates = slices.Clone(src.Candidates)
		n.Requirements = slices.Clone(src.Requirements)
		n.Constraints = slices.Clone(src.Constraints)
		n.Missing = src.Missing
		n.Resolved = src.Resolved
		remap[id] = nid
	}
	for _, e := range g.edges {
		from, okFrom := remap[e.From]
		to, okTo := remap[e.To]
		if okFrom && okTo {
			sub.AddEdge(from, to)
		}
	}
	return sub
}
