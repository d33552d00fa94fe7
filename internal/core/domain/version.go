package domain

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// Version is a semantic version.
// It wraps github.com/Masterminds/semver/v3 and keeps the raw text it was parsed from.
type Version struct {
	v *semver.Version
}

// ParseVersion parses a semantic version such as "1.2.3" or "2.0.0-rc.1".
func ParseVersion(raw string) (Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, zerr.With(zerr.Wrap(err, ErrMalformedVersion.Error()), "version", raw)
	}
	return Version{v: v}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	return v.v == nil
}

// String returns the canonical form of the version.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Prerelease returns the pre-release part, or "" for stable versions.
func (v Version) Prerelease() string {
	if v.v == nil {
		return ""
	}
	return v.v.Prerelease()
}

// Stable reports whether the version carries no pre-release tag.
func (v Version) Stable() bool {
	return v.v != nil && v.v.Prerelease() == ""
}

// PrereleaseIdentifiers returns the number of dot-separated pre-release identifiers.
func (v Version) PrereleaseIdentifiers() int {
	pre := v.Prerelease()
	if pre == "" {
		return 0
	}
	return strings.Count(pre, ".") + 1
}

// Equal reports whether both versions have the same precedence.
func (v Version) Equal(o Version) bool {
	return CompareVersions(v, o) == 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// CompareVersions orders versions by semantic precedence.
// Zero versions sort first.
func CompareVersions(a, b Version) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return -1
	case b.v == nil:
		return 1
	}
	return a.v.Compare(b.v)
}

// PreferVersion is the tie-break every strategy uses when candidates qualify equally:
// the higher semantic version wins, then the one with fewer pre-release identifiers.
// It returns a positive number when a is preferred over b.
func PreferVersion(a, b Version) int {
	if c := CompareVersions(a, b); c != 0 {
		return c
	}
	return b.PrereleaseIdentifiers() - a.PrereleaseIdentifiers()
}

// SortVersions sorts versions in ascending order and drops duplicates.
func SortVersions(versions []Version) []Version {
	out := slices.Clone(versions)
	slices.SortFunc(out, CompareVersions)
	return slices.CompactFunc(out, func(a, b Version) bool {
		return a.String() == b.String()
	})
}

// MaxVersion returns the preferred version of the slice.
func MaxVersion(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if PreferVersion(v, best) > 0 {
			best = v
		}
	}
	return best, true
}

// StableOnly filters out pre-release versions.
func StableOnly(versions []Version) []Version {
	out := make([]Version, 0, len(versions))
	for _, v := range versions {
		if v.Stable() {
			out = append(out, v)
		}
	}
	return out
}

// Constraint is a parsed version range expression.
//
// Supported forms follow Masterminds/semver: caret ("^1.2.0"), tilde ("~1.4"),
// exact ("1.2.3", "=1.2.3"), wildcard ("*", "1.x") and comparison ranges
// (">=1.2.0 <2.0.0", "1.0 - 1.4", "^1 || ^2").
type Constraint struct {
	raw    string
	c      *semver.Constraints
	pinned bool
	pin    Version
}

// ParseConstraint parses a version constraint. An empty expression means "*".
func ParseConstraint(raw string) (Constraint, error) {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		expr = "*"
	}

	c, err := semver.NewConstraint(expr)
	if err != nil {
		return Constraint{}, zerr.With(zerr.Wrap(err, ErrMalformedConstraint.Error()), "constraint", raw)
	}

	out := Constraint{raw: expr, c: c}
	if pin, ok := exactPin(expr); ok {
		out.pinned = true
		out.pin = pin
	}
	return out, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// exactPin detects expressions that name exactly one version.
func exactPin(expr string) (Version, bool) {
	rest := strings.TrimLeft(expr, "= ")
	if rest == "" || strings.ContainsAny(rest, " ,|<>~^*") {
		return Version{}, false
	}
	v, err := semver.StrictNewVersion(rest)
	if err != nil {
		return Version{}, false
	}
	return Version{v: v}, true
}

// String returns the expression text.
func (c Constraint) String() string {
	return c.raw
}

// Pinned reports whether the constraint names a single exact version.
func (c Constraint) Pinned() bool {
	return c.pinned
}

// Pin returns the pinned version. It is only meaningful when Pinned is true.
func (c Constraint) Pin() Version {
	return c.pin
}

// Check reports whether v satisfies the constraint.
// Pre-release versions only satisfy constraints that mention a pre-release.
func (c Constraint) Check(v Version) bool {
	if c.c == nil || v.v == nil {
		return false
	}
	return c.c.Check(v.v)
}

// CheckIgnoringStability is like Check but lets a pre-release satisfy the range its release falls in.
func (c Constraint) CheckIgnoringStability(v Version) bool {
	if c.Check(v) {
		return true
	}
	if v.v == nil || v.v.Prerelease() == "" || c.c == nil {
		return false
	}
	core, err := v.v.SetPrerelease("")
	if err != nil {
		return false
	}
	return c.c.Check(&core)
}

// Admitted returns the candidates that satisfy every constraint, preserving order.
// It is the intersection of the constraints evaluated over a finite candidate set.
func Admitted(candidates []Version, constraints []Constraint) []Version {
	out := make([]Version, 0, len(candidates))
	for _, v := range candidates {
		if SatisfiesAll(v, constraints) {
			out = append(out, v)
		}
	}
	return out
}

// SatisfiesAll reports whether v satisfies every constraint.
func SatisfiesAll(v Version, constraints []Constraint) bool {
	for _, c := range constraints {
		if !c.Check(v) {
			return false
		}
	}
	return true
}

// AllowsAll is SatisfiesAll with CheckIgnoringStability. It is the relation a resolved
// version must hold against its constraints unless it was overridden manually.
func AllowsAll(v Version, constraints []Constraint) bool {
	for _, c := range constraints {
		if !c.CheckIgnoringStability(v) {
			return false
		}
	}
	return true
}
