package domain

import "slices"

// Catalog is an in-memory package catalog mapping package names to their published versions.
type Catalog map[string][]string

// Versions returns the published versions of name.
func (c Catalog) Versions(name string) ([]string, bool) {
	v, ok := c[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}
