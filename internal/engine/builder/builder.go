// Package builder assembles the unified dependency graph from per-scope requirement lists.
package builder

import (
	"slices"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/zerr"
)

// Build creates a graph with one node per package name. Requirements on the same name from
// different scopes merge into that node, and a requirement declared by another package adds
// the edge dependent -> name. Node indices follow sorted name order.
//
// Every constraint is parsed before the graph is returned, so a malformed expression aborts
// the build before any resolution work begins.
func Build(reqs []domain.Requirement, catalog ports.Catalog) (*domain.Graph, error) {
	sorted := domain.SortRequirements(reqs)

	names := make([]string, 0, len(sorted))
	for _, r := range sorted {
		if r.Name == "" {
			return nil, zerr.With(domain.ErrEmptyPackageName, "scope", string(r.Scope))
		}
		names = append(names, r.Name)
		if r.Dependent != "" {
			names = append(names, r.Dependent)
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)

	g := domain.NewGraph()
	for _, name := range names {
		g.AddNode(name)
	}

	for _, r := range sorted {
		c, err := domain.ParseConstraint(r.Constraint)
		if err != nil {
			err = zerr.With(err, "name", r.Name)
			return nil, zerr.With(err, "scope", string(r.Scope))
		}
		id, _ := g.Lookup(r.Name)
		g.AddRequirement(id, r, c)
		if r.Dependent != "" {
			from, _ := g.Lookup(r.Dependent)
			g.AddEdge(from, id)
		}
	}

	for _, n := range g.All() {
		candidates, known, err := loadCandidates(catalog, n.Name)
		if err != nil {
			return nil, err
		}
		if !known {
			n.Missing = len(n.Requirements) > 0
			continue
		}
		n.Candidates = candidates
	}

	return g, nil
}

func loadCandidates(catalog ports.Catalog, name string) ([]domain.Version, bool, error) {
	if catalog == nil {
		return nil, false, nil
	}
	raw, ok := catalog.Versions(name)
	if !ok {
		return nil, false, nil
	}
	out := make([]domain.Version, 0, len(raw))
	for _, s := range raw {
		v, err := domain.ParseVersion(s)
		if err != nil {
			return nil, true, zerr.With(err, "package", name)
		}
		out = append(out, v)
	}
	return domain.SortVersions(out), true, nil
}
