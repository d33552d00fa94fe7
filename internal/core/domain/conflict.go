package domain

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ConflictKind classifies a detected conflict.
type ConflictKind string

const (
	// KindVersionIncompatibility means no candidate satisfies every incoming constraint.
	KindVersionIncompatibility ConflictKind = "version-incompatibility"
	// KindCircularDependency means the packages require each other in a cycle.
	KindCircularDependency ConflictKind = "circular-dependency"
	// KindMissingDependency means a required package is unknown to the catalog.
	KindMissingDependency ConflictKind = "missing-dependency"
	// KindAmbiguousResolution means several versions qualify with nothing to break the tie.
	KindAmbiguousResolution ConflictKind = "ambiguous-resolution"
	// KindSecurityVulnerability means an admitted version is on the vulnerability list.
	KindSecurityVulnerability ConflictKind = "security-vulnerability"
	// KindLicenseIncompatibility means the package carries a denied license.
	KindLicenseIncompatibility ConflictKind = "license-incompatibility"
)

// Severity ranks conflicts. Low < Medium < High < Critical.
type Severity int

const (
	// SeverityLow is informational.
	SeverityLow Severity = iota + 1
	// SeverityMedium needs attention.
	SeverityMedium
	// SeverityHigh blocks a clean resolution.
	SeverityHigh
	// SeverityCritical must be fixed.
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

// String returns the lower-case severity name.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to Low.
func (s *Severity) UnmarshalText(text []byte) error {
	for sev, name := range severityNames {
		if strings.EqualFold(name, string(text)) {
			*s = sev
			return nil
		}
	}
	*s = SeverityLow
	return nil
}

// ResolutionStatus tracks a conflict through the strategy engine.
type ResolutionStatus string

const (
	// StatusDetected is the initial state.
	StatusDetected ResolutionStatus = "detected"
	// StatusResolved means a strategy assigned a version that satisfies every constraint.
	StatusResolved ResolutionStatus = "resolved"
	// StatusUnresolved means the conflict needs a human decision.
	StatusUnresolved ResolutionStatus = "unresolved"
	// StatusManuallyOverridden means a manual override was applied despite a constraint violation.
	StatusManuallyOverridden ResolutionStatus = "manually-overridden"
)

// UnresolvedReason explains why a conflict landed in the unresolved list.
type UnresolvedReason string

const (
	// ReasonNone is used for conflicts that are not unresolved.
	ReasonNone UnresolvedReason = ""
	// ReasonStrategyExhausted means every strategy in the chain failed.
	ReasonStrategyExhausted UnresolvedReason = "strategy-exhausted"
	// ReasonDeferred means a manual or detect-only strategy deferred the decision.
	ReasonDeferred UnresolvedReason = "deferred-to-manual"
	// ReasonTimeout means the component did not finish before the run timeout.
	ReasonTimeout UnresolvedReason = "timeout"
	// ReasonUnresolvable means no strategy can act on this kind of conflict.
	ReasonUnresolvable UnresolvedReason = "unresolvable"
)

var conflictNamespace = uuid.MustParse("6f1d8a52-3c4e-5b7a-9d2f-0e8c4b1a7f63")

// Conflict is a detected situation where requirements cannot be trivially satisfied.
// Only the resolution fields (Status, Reason, Hint, ResolvedBy, Attempts) change after detection,
// plus Severity when a vulnerable override is escalated.
type Conflict struct {
	ID        uuid.UUID        `json:"id" yaml:"id"`
	Kind      ConflictKind     `json:"kind" yaml:"kind"`
	Severity  Severity         `json:"severity" yaml:"severity"`
	Nodes     []string         `json:"involved_nodes" yaml:"involved_nodes"`
	Detail    string           `json:"detail" yaml:"detail"`
	CyclePath []string         `json:"cycle_path,omitempty" yaml:"cycle_path,omitempty"`
	Status    ResolutionStatus `json:"resolution_status" yaml:"resolution_status"`
	Reason    UnresolvedReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Hint      string           `json:"hint,omitempty" yaml:"hint,omitempty"`
	// ResolvedBy names the strategy that settled the conflict.
	ResolvedBy string `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`
	// Attempts lists the strategies tried, in order.
	Attempts []string `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// NewConflict creates a conflict in the Detected state.
// The id is derived from kind, nodes and detail so identical inputs produce identical ids.
func NewConflict(kind ConflictKind, severity Severity, nodes []string, detail string) *Conflict {
	sorted := slices.Clone(nodes)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	key := string(kind) + "\x00" + strings.Join(sorted, "\x00") + "\x00" + detail
	return &Conflict{
		ID:       uuid.NewSHA1(conflictNamespace, []byte(key)),
		Kind:     kind,
		Severity: severity,
		Nodes:    sorted,
		Detail:   detail,
		Status:   StatusDetected,
	}
}

// MarkResolved records a successful strategy.
func (c *Conflict) MarkResolved(strategy string) {
	c.Status = StatusResolved
	c.Reason = ReasonNone
	c.ResolvedBy = strategy
}

// MarkOverridden records a manual override that violates a constraint.
func (c *Conflict) MarkOverridden(strategy, hint string) {
	c.Status = StatusManuallyOverridden
	c.Reason = ReasonNone
	c.ResolvedBy = strategy
	c.Hint = hint
}

// MarkUnresolved moves the conflict to the unresolved list.
func (c *Conflict) MarkUnresolved(reason UnresolvedReason, hint string) {
	c.Status = StatusUnresolved
	c.Reason = reason
	c.ResolvedBy = ""
	if hint != "" {
		c.Hint = hint
	}
}

// Settled reports whether the conflict no longer needs attention.
func (c *Conflict) Settled() bool {
	return c.Status == StatusResolved || c.Status == StatusManuallyOverridden
}

// CompareConflicts orders conflicts by severity descending, then first node name, then kind.
func CompareConflicts(a, b *Conflict) int {
	return cmp.Or(
		cmp.Compare(b.Severity, a.Severity),
		cmp.Compare(firstNode(a), firstNode(b)),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Detail, b.Detail),
	)
}

// SortConflicts sorts conflicts in place using CompareConflicts.
func SortConflicts(conflicts []*Conflict) {
	slices.SortStableFunc(conflicts, CompareConflicts)
}

func firstNode(c *Conflict) string {
	if len(c.Nodes) == 0 {
		return ""
	}
	return c.Nodes[0]
}
