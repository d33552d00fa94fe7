package domain

import (
	"cmp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ScopeID identifies a scope (a sub-project within a repository).
type ScopeID string

// Requirement is a declared dependency on a package, as gathered from one scope.
// It is immutable once created.
type Requirement struct {
	// Name is the required package.
	Name string
	// Constraint is the version range expression as written by the user.
	Constraint string
	// Scope is the scope that declared the requirement.
	Scope ScopeID
	// Optional marks requirements that may be left unsatisfied.
	Optional bool
	// Dependent is the package that declares the requirement.
	// It is empty when the scope itself declares it.
	Dependent string
}

// NewRequirement builds a requirement, normalising whitespace.
func NewRequirement(name, constraint string, scope ScopeID) (Requirement, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Requirement{}, zerr.With(ErrEmptyPackageName, "scope", string(scope))
	}
	return Requirement{
		Name:       name,
		Constraint: strings.TrimSpace(constraint),
		Scope:      scope,
	}, nil
}

// String renders the requirement as name@constraint.
func (r Requirement) String() string {
	c := r.Constraint
	if c == "" {
		c = "*"
	}
	return r.Name + "@" + c
}

// CompareRequirements orders requirements by name, scope, dependent, then constraint.
func CompareRequirements(a, b Requirement) int {
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Scope, b.Scope),
		cmp.Compare(a.Dependent, b.Dependent),
		cmp.Compare(a.Constraint, b.Constraint),
	)
}

// SortRequirements returns a sorted copy of reqs.
func SortRequirements(reqs []Requirement) []Requirement {
	out := slices.Clone(reqs)
	slices.SortFunc(out, CompareRequirements)
	return out
}
