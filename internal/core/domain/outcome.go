package domain

import "time"

// Provenance records why a package ended up at its resolved version.
type Provenance struct {
	Strategy    string   `json:"strategy" yaml:"strategy"`
	Constraints []string `json:"constraints" yaml:"constraints"`
	Scopes      []string `json:"scopes" yaml:"scopes"`
}

// Stats counts conflicts by how they ended.
type Stats struct {
	TotalConflicts int `json:"total_conflicts"`
	AutoResolved   int `json:"auto_resolved"`
	ManualRequired int `json:"manual_required"`
	Overridden     int `json:"overridden"`
	TimedOut       int `json:"timed_out"`
}

// Performance describes how a run was executed.
type Performance struct {
	Duration         time.Duration `json:"duration"`
	Components       int           `json:"components"`
	Workers          int           `json:"workers"`
	StrategyAttempts int           `json:"strategy_attempts"`
}

// Outcome is the result of a resolution run.
type Outcome struct {
	Resolved    map[string]Version    `json:"resolved"`
	Provenance  map[string]Provenance `json:"provenance"`
	Unresolved  []*Conflict           `json:"unresolved"`
	Conflicts   []*Conflict           `json:"conflicts"`
	Stats       Stats                 `json:"stats"`
	Performance Performance           `json:"performance"`
	// History holds the records produced by this run, in merge order.
	History []HistoryRecord `json:"-"`
}

// NewOutcome returns an empty outcome.
func NewOutcome() *Outcome {
	return &Outcome{
		Resolved:   make(map[string]Version),
		Provenance: make(map[string]Provenance),
	}
}

// Successful reports whether no conflict was left unresolved.
func (o *Outcome) Successful() bool {
	return len(o.Unresolved) == 0
}

// Merge appends other into o. Callers merge in a fixed order to keep output deterministic.
func (o *Outcome) Merge(other *Outcome) {
	for name, v := range other.Resolved {
		o.Resolved[name] = v
	}
	for name, p := range other.Provenance {
		o.Provenance[name] = p
	}
	o.Conflicts = append(o.Conflicts, other.Conflicts...)
	o.History = append(o.History, other.History...)
	o.Performance.StrategyAttempts += other.Performance.StrategyAttempts
}

// Finalize sorts conflicts, fills the unresolved list and recomputes stats.
func (o *Outcome) Finalize() {
	SortConflicts(o.Conflicts)
	o.Unresolved = o.Unresolved[:0]
	o.Stats = Stats{TotalConflicts: len(o.Conflicts)}
	for _, c := range o.Conflicts {
		switch c.Status {
		case StatusResolved:
			o.Stats.AutoResolved++
		case StatusManuallyOverridden:
			o.Stats.Overridden++
		default:
			o.Unresolved = append(o.Unresolved, c)
			o.Stats.ManualRequired++
			if c.Reason == ReasonTimeout {
				o.Stats.TimedOut++
			}
		}
	}
}
