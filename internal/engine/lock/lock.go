// Package lock builds, validates and writes lock artifacts.
package lock

import (
	"bytes"
	"slices"
	"time"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Build records the outcome as a lock artifact generated at the given time.
func Build(out *domain.Outcome, generatedAt time.Time) *domain.Lockfile {
	overridden := make(map[string]bool)
	for _, c := range out.Conflicts {
		if c.Status != domain.StatusManuallyOverridden {
			continue
		}
		for _, name := range c.Nodes {
			overridden[name] = true
		}
	}

	l := &domain.Lockfile{
		Version:            domain.LockFormatVersion,
		GeneratedAt:        generatedAt.UTC().Truncate(time.Second),
		Packages:           make(map[string]domain.LockEntry, len(out.Resolved)),
		ConflictsRemaining: slices.Clone(out.Unresolved),
	}
	for name, v := range out.Resolved {
		p := out.Provenance[name]
		l.Packages[name] = domain.LockEntry{
			Version:              v.String(),
			SatisfiedConstraints: slices.Clone(p.Constraints),
			ResolvedBy:           p.Strategy,
			SourceScopes:         slices.Clone(p.Scopes),
			Overridden:           overridden[name],
		}
	}
	if l.ConflictsRemaining == nil {
		l.ConflictsRemaining = []*domain.Conflict{}
	}
	return l
}

// Encode serializes the artifact. Package keys are written in sorted order.
func Encode(l *domain.Lockfile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockEncodeFailed.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockEncodeFailed.Error())
	}
	return buf.Bytes(), nil
}

// Decode parses an artifact without checking its entries.
func Decode(data []byte) (*domain.Lockfile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var l domain.Lockfile
	if err := dec.Decode(&l); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockCorruption.Error())
	}
	return &l, nil
}

// Validate checks that every entry still agrees with the constraints it records.
// Entries applied through a manual override are exempt from the constraint check.
func Validate(l *domain.Lockfile) error {
	if l.Version != domain.LockFormatVersion {
		return zerr.With(domain.ErrLockCorruption, "version", l.Version)
	}
	for _, name := range l.Names() {
		entry := l.Packages[name]
		v, err := domain.ParseVersion(entry.Version)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrLockCorruption.Error()), "package", name)
		}
		if _, err := domain.ParseStrategy(entry.ResolvedBy); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrLockCorruption.Error()), "package", name)
		}
		for _, raw := range entry.SatisfiedConstraints {
			c, err := domain.ParseConstraint(raw)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrLockCorruption.Error()), "package", name)
			}
			if !entry.Overridden && !c.CheckIgnoringStability(v) {
				err := zerr.With(domain.ErrLockCorruption, "package", name)
				err = zerr.With(err, "version", entry.Version)
				return zerr.With(err, "constraint", raw)
			}
		}
	}
	return nil
}

// Check decodes and validates raw artifact bytes.
func Check(data []byte) error {
	l, err := Decode(data)
	if err != nil {
		return err
	}
	return Validate(l)
}

// Diff lists how the locked versions move from prev to next. A nil prev is an empty artifact.
func Diff(prev, next *domain.Lockfile) domain.LockDiff {
	var d domain.LockDiff
	var before map[string]domain.LockEntry
	if prev != nil {
		before = prev.Packages
	}
	for _, name := range next.Names() {
		to := next.Packages[name].Version
		from, ok := before[name]
		switch {
		case !ok:
			d.Added = append(d.Added, domain.LockChange{Name: name, To: to})
		case from.Version != to:
			d.Changed = append(d.Changed, domain.LockChange{Name: name, From: from.Version, To: to})
		}
	}
	if prev != nil {
		for _, name := range prev.Names() {
			if _, ok := next.Packages[name]; !ok {
				d.Removed = append(d.Removed, domain.LockChange{Name: name, From: prev.Packages[name].Version})
			}
		}
	}
	return d
}
