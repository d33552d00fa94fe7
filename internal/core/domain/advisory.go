package domain

import (
	"cmp"
	"slices"
)

// Vulnerability marks a range of versions of a package as unsafe.
type Vulnerability struct {
	ID       string
	Package  string
	Affected Constraint
	Summary  string
}

// LicenseNotice flags a package whose license is denied.
type LicenseNotice struct {
	Package string
	License string
	// Versions limits the notice to a range. The zero value covers every version.
	Versions Constraint
	// CopyleftIncompatible raises the conflict severity to High.
	CopyleftIncompatible bool
}

// Covers reports whether the notice applies to version v.
func (l LicenseNotice) Covers(v Version) bool {
	if l.Versions.c == nil {
		return true
	}
	return l.Versions.CheckIgnoringStability(v)
}

// Advisories is the lookup table of known vulnerabilities and denied licenses.
type Advisories struct {
	vulns    map[string][]Vulnerability
	licenses map[string]LicenseNotice
}

// NewAdvisories indexes vulnerabilities and license notices by package name.
func NewAdvisories(vulns []Vulnerability, licenses []LicenseNotice) *Advisories {
	a := &Advisories{
		vulns:    make(map[string][]Vulnerability),
		licenses: make(map[string]LicenseNotice),
	}
	for _, v := range vulns {
		a.vulns[v.Package] = append(a.vulns[v.Package], v)
	}
	for _, l := range licenses {
		a.licenses[l.Package] = l
	}
	return a
}

// Vulnerable returns the advisories affecting version v of pkg, ordered by id.
func (a *Advisories) Vulnerable(pkg string, v Version) []Vulnerability {
	if a == nil {
		return nil
	}
	var out []Vulnerability
	for _, vuln := range a.vulns[pkg] {
		if vuln.Affected.CheckIgnoringStability(v) {
			out = append(out, vuln)
		}
	}
	slices.SortFunc(out, func(x, y Vulnerability) int {
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

// Safe filters out versions of pkg that any advisory affects.
func (a *Advisories) Safe(pkg string, versions []Version) []Version {
	out := make([]Version, 0, len(versions))
	for _, v := range versions {
		if len(a.Vulnerable(pkg, v)) == 0 {
			out = append(out, v)
		}
	}
	return out
}

// License returns the license notice for pkg.
func (a *Advisories) License(pkg string) (LicenseNotice, bool) {
	if a == nil {
		return LicenseNotice{}, false
	}
	l, ok := a.licenses[pkg]
	return l, ok
}
