// Package detector finds conflicts in a dependency graph and ranks them by severity.
package detector

import (
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/accord/internal/core/domain"
)

// Detect runs a single pass over g and returns every conflict, ordered by severity
// descending, then first involved package name, then kind.
// A nil advisory table disables the vulnerability and license checks.
func Detect(g *domain.Graph, adv *domain.Advisories) []*domain.Conflict {
	conflicts := Cycles(g)
	for _, id := range g.Sorted() {
		conflicts = append(conflicts, inspect(g.Node(id), adv)...)
	}
	domain.SortConflicts(conflicts)
	return conflicts
}

const (
	unvisited = iota
	onStack
	done
)

// Cycles finds circular dependencies with a depth-first search that tracks the active
// recursion stack. Each distinct set of packages is reported once.
func Cycles(g *domain.Graph) []*domain.Conflict {
	state := make([]int, g.Len())
	var stack []domain.NodeID
	seen := make(map[string]bool)
	var out []*domain.Conflict

	var visit func(id domain.NodeID)
	visit = func(id domain.NodeID) {
		state[id] = onStack
		stack = append(stack, id)
		for _, dep := range g.Dependencies(id) {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case onStack:
				start := slices.Index(stack, dep)
				path := make([]string, 0, len(stack)-start+1)
				for _, n := range stack[start:] {
					path = append(path, g.Node(n).Name)
				}
				path = append(path, g.Node(dep).Name)

				members := slices.Clone(path[:len(path)-1])
				slices.Sort(members)
				key := strings.Join(members, "\x00")
				if seen[key] {
					continue
				}
				seen[key] = true

				c := domain.NewConflict(domain.KindCircularDependency, domain.SeverityCritical, members,
					"circular dependency: "+strings.Join(path, " -> "))
				c.CyclePath = path
				out = append(out, c)
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for id := range g.All() {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return out
}

func inspect(n *domain.Node, adv *domain.Advisories) []*domain.Conflict {
	if len(n.Requirements) == 0 && len(n.Candidates) == 0 {
		return nil
	}
	if n.Missing {
		detail := fmt.Sprintf("%s is required by %s but is not in the package catalog",
			n.Name, strings.Join(n.Scopes(), ", "))
		if n.OnlyOptional() {
			detail += " (optional requirements only)"
		}
		return []*domain.Conflict{domain.NewConflict(domain.KindMissingDependency, domain.SeverityMedium, []string{n.Name}, detail)}
	}

	var out []*domain.Conflict
	admitted := n.Admitted()

	switch {
	case len(admitted) == 0:
		detail := fmt.Sprintf("no version of %s satisfies %s (candidates: %s)",
			n.Name, strings.Join(n.ConstraintStrings(), ", "), joinVersions(n.Candidates))
		out = append(out, domain.NewConflict(domain.KindVersionIncompatibility, rankBySupport(n), []string{n.Name}, detail))
	case len(admitted) > 1 && !hasTieBreak(n):
		detail := fmt.Sprintf("%d versions of %s satisfy %s: %s",
			len(admitted), n.Name, strings.Join(n.ConstraintStrings(), ", "), joinVersions(admitted))
		out = append(out, domain.NewConflict(domain.KindAmbiguousResolution, rankBySupport(n), []string{n.Name}, detail))
	}

	if len(admitted) == 0 || adv == nil {
		return out
	}

	if c := vulnerabilities(n.Name, admitted, adv); c != nil {
		out = append(out, c)
	}
	if c := license(n.Name, admitted, adv); c != nil {
		out = append(out, c)
	}
	return out
}

// hasTieBreak reports whether something other than the range itself singles out a version:
// an exact pin, or a single declared requirement whose intent is taken as given.
func hasTieBreak(n *domain.Node) bool {
	if len(n.Requirements) <= 1 {
		return true
	}
	return len(n.Pins()) > 0
}

// rankBySupport is High unless some candidate satisfies a strict majority of requirements.
func rankBySupport(n *domain.Node) domain.Severity {
	total := len(n.Constraints)
	for _, v := range n.Candidates {
		satisfied := 0
		for _, c := range n.Constraints {
			if c.Check(v) {
				satisfied++
			}
		}
		if total > 0 && satisfied*2 > total {
			return domain.SeverityMedium
		}
	}
	return domain.SeverityHigh
}

func vulnerabilities(name string, admitted []domain.Version, adv *domain.Advisories) *domain.Conflict {
	var ids, affected []string
	for _, v := range admitted {
		vulns := adv.Vulnerable(name, v)
		if len(vulns) == 0 {
			continue
		}
		affected = append(affected, v.String())
		for _, vuln := range vulns {
			ids = append(ids, vuln.ID)
		}
	}
	if len(affected) == 0 {
		return nil
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	severity := domain.SeverityHigh
	if len(affected) == len(admitted) {
		severity = domain.SeverityCritical
	}
	detail := fmt.Sprintf("%s %s affected by %s", name, strings.Join(affected, ", "), strings.Join(ids, ", "))
	return domain.NewConflict(domain.KindSecurityVulnerability, severity, []string{name}, detail)
}

func license(name string, admitted []domain.Version, adv *domain.Advisories) *domain.Conflict {
	notice, ok := adv.License(name)
	if !ok {
		return nil
	}
	var flagged []string
	for _, v := range admitted {
		if notice.Covers(v) {
			flagged = append(flagged, v.String())
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	severity := domain.SeverityLow
	if notice.CopyleftIncompatible {
		severity = domain.SeverityHigh
	}
	detail := fmt.Sprintf("%s %s is licensed under denied license %s", name, strings.Join(flagged, ", "), notice.License)
	return domain.NewConflict(domain.KindLicenseIncompatibility, severity, []string{name}, detail)
}

func joinVersions(vs []domain.Version) string {
	if len(vs) == 0 {
		return "none"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
