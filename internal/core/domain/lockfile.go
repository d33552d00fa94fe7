package domain

import (
	"slices"
	"time"
)

// LockEntry is the locked state of one package.
type LockEntry struct {
	Version              string   `yaml:"version" json:"version"`
	SatisfiedConstraints []string `yaml:"satisfied_constraints" json:"satisfied_constraints"`
	ResolvedBy           string   `yaml:"resolved_by" json:"resolved_by"`
	SourceScopes         []string `yaml:"source_scopes" json:"source_scopes"`
	// Overridden marks entries that were applied manually despite violating a constraint.
	Overridden bool `yaml:"overridden,omitempty" json:"overridden,omitempty"`
}

// Lockfile is the durable record of every selected version.
type Lockfile struct {
	Version            int                  `yaml:"version" json:"version"`
	GeneratedAt        time.Time            `yaml:"generated_at" json:"generated_at"`
	Packages           map[string]LockEntry `yaml:"packages" json:"packages"`
	ConflictsRemaining []*Conflict          `yaml:"conflicts_remaining" json:"conflicts_remaining"`
}

// Names returns the locked package names, sorted.
func (l *Lockfile) Names() []string {
	names := make([]string, 0, len(l.Packages))
	for name := range l.Packages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LockChange describes how one package moved between two lock artifacts.
type LockChange struct {
	Name string `json:"name"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// LockDiff lists the differences between two lock artifacts. Each list is sorted by name.
type LockDiff struct {
	Added   []LockChange `json:"added,omitempty"`
	Removed []LockChange `json:"removed,omitempty"`
	Changed []LockChange `json:"changed,omitempty"`
}

// Empty reports whether the two artifacts lock the same versions.
func (d LockDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
