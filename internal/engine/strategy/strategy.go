// Package strategy implements the resolution strategies and the fallback chain that runs them.
package strategy

import (
	"fmt"
	"strings"

	"go.trai.ch/accord/internal/core/domain"
)

// Verdict is the result of evaluating one strategy.
type Verdict int

const (
	// Failed means the strategy could not pick a version; the chain moves on.
	Failed Verdict = iota
	// Assigned means the strategy picked a version; the chain stops.
	Assigned
	// Deferred means the strategy handed the decision to a human; the chain stops.
	Deferred
)

// Subject is the package a strategy picks a version for.
type Subject struct {
	Name string
	// Candidates are the versions the strategy may pick from, ascending.
	// Vulnerable versions are already removed.
	Candidates  []domain.Version
	Constraints []domain.Constraint
	// Signature identifies the conflict structure in the history log.
	Signature string
	// Detail describes the conflicts on the package, for remediation hints.
	Detail string
}

// Env is the read-only context strategies consult besides the subject.
type Env struct {
	Config  domain.ResolutionConfig
	History *domain.HistoryLog
}

// Result is the outcome of a strategy or of a whole chain.
type Result struct {
	Verdict Verdict
	Version domain.Version
	// Strategy is the strategy that produced the verdict.
	Strategy string
	// Overridden is set when the version violates a constraint and was applied anyway.
	Overridden bool
	Hint       string
	// Attempts lists every strategy evaluated, nested hybrid members included.
	Attempts []string
}

func assigned(kind domain.StrategyKind, v domain.Version) Result {
	return Result{Verdict: Assigned, Version: v, Strategy: string(kind), Attempts: []string{string(kind)}}
}

func failed(kind domain.StrategyKind, hint string) Result {
	return Result{Verdict: Failed, Strategy: string(kind), Hint: hint, Attempts: []string{string(kind)}}
}

func deferred(kind domain.StrategyKind, hint string) Result {
	return Result{Verdict: Deferred, Strategy: string(kind), Hint: hint, Attempts: []string{string(kind)}}
}

// Evaluate runs strategy s against subj.
func Evaluate(s domain.Strategy, subj Subject, env Env) Result {
	switch s.Kind {
	case domain.StrategyLatestCompatible:
		return latestCompatible(subj, env)
	case domain.StrategyPinnedVersion:
		return pinnedVersion(subj)
	case domain.StrategySmartSelection:
		return smartSelection(subj, env)
	case domain.StrategyConservative:
		return conservative(subj)
	case domain.StrategyAggressive:
		return aggressive(subj)
	case domain.StrategyManualResolution:
		return manualResolution(subj, env)
	case domain.StrategyAutomaticDetection:
		return deferred(s.Kind, "audit run: "+subj.Detail)
	case domain.StrategyHistoryTracking:
		return historyTracking(subj, env)
	case domain.StrategyHybrid:
		return hybrid(s.Members, subj, env)
	default:
		return failed(s.Kind, "unknown strategy "+string(s.Kind))
	}
}

func hybrid(members []domain.Strategy, subj Subject, env Env) Result {
	var attempts []string
	last := failed(domain.StrategyHybrid, "hybrid strategy has no members")
	last.Attempts = nil
	for _, m := range members {
		last = Evaluate(m, subj, env)
		attempts = append(attempts, last.Attempts...)
		if last.Verdict != Failed {
			break
		}
	}
	last.Attempts = attempts
	return last
}

func latestCompatible(subj Subject, env Env) Result {
	admitted := domain.Admitted(subj.Candidates, subj.Constraints)
	if env.Config.PreferStable {
		if stable := domain.StableOnly(admitted); len(stable) > 0 {
			admitted = stable
		}
	}
	v, ok := domain.MaxVersion(admitted)
	if !ok {
		return failed(domain.StrategyLatestCompatible, "no candidate satisfies every constraint")
	}
	return assigned(domain.StrategyLatestCompatible, v)
}

func pinnedVersion(subj Subject) Result {
	var pins []domain.Version
	for _, c := range subj.Constraints {
		if c.Pinned() {
			pins = append(pins, c.Pin())
		}
	}
	pins = domain.SortVersions(pins)

	if len(pins) == 0 {
		return failed(domain.StrategyPinnedVersion, "no requirement pins an exact version")
	}
	if len(pins) > 1 {
		return failed(domain.StrategyPinnedVersion, "requirements pin different versions: "+joinVersions(pins))
	}

	pin := pins[0]
	if !contains(subj.Candidates, pin) || !domain.SatisfiesAll(pin, subj.Constraints) {
		return failed(domain.StrategyPinnedVersion, fmt.Sprintf("pinned version %s is not available or violates a constraint", pin))
	}
	return assigned(domain.StrategyPinnedVersion, pin)
}

func conservative(subj Subject) Result {
	stable := domain.StableOnly(domain.Admitted(subj.Candidates, subj.Constraints))
	v, ok := domain.MaxVersion(stable)
	if !ok {
		return failed(domain.StrategyConservative, "no stable candidate satisfies every constraint")
	}
	return assigned(domain.StrategyConservative, v)
}

// aggressive picks the highest version in range, pre-releases included. It never leaves the
// range: only an explicit override may violate a constraint.
func aggressive(subj Subject) Result {
	var inRange []domain.Version
	for _, v := range subj.Candidates {
		if domain.AllowsAll(v, subj.Constraints) {
			inRange = append(inRange, v)
		}
	}
	v, ok := domain.MaxVersion(inRange)
	if !ok {
		return failed(domain.StrategyAggressive, "no candidate in range, pre-releases included")
	}
	return assigned(domain.StrategyAggressive, v)
}

func manualResolution(subj Subject, env Env) Result {
	v, ok := env.Config.Overrides[subj.Name]
	if !ok {
		return deferred(domain.StrategyManualResolution, remediationHint(subj, env))
	}
	if domain.AllowsAll(v, subj.Constraints) {
		return assigned(domain.StrategyManualResolution, v)
	}

	violation := fmt.Sprintf("override %s@%s violates %s", subj.Name, v, joinConstraints(subj.Constraints))
	if env.Config.StrictPinning {
		return deferred(domain.StrategyManualResolution, violation+"; refused while strict pinning is enabled")
	}
	res := assigned(domain.StrategyManualResolution, v)
	res.Overridden = true
	res.Hint = violation
	return res
}

func historyTracking(subj Subject, env Env) Result {
	rec, ok := env.History.Lookup(subj.Signature)
	if !ok {
		return failed(domain.StrategyHistoryTracking, "no previous resolution for this conflict")
	}
	if !contains(subj.Candidates, rec.Version) || !domain.AllowsAll(rec.Version, subj.Constraints) {
		return failed(domain.StrategyHistoryTracking,
			fmt.Sprintf("previous choice %s no longer satisfies the constraints", rec.Version))
	}
	return assigned(domain.StrategyHistoryTracking, rec.Version)
}

func remediationHint(subj Subject, env Env) string {
	var b strings.Builder
	fmt.Fprintf(&b, "choose a version of %s satisfying %s and add it under overrides in %s",
		subj.Name, joinConstraints(subj.Constraints), domain.WorkFileName)
	if subj.Detail != "" {
		b.WriteString(" (")
		b.WriteString(subj.Detail)
		b.WriteString(")")
	}
	if env.Config.AllowPrompts {
		b.WriteString("; interactive prompts are not available in this build")
	}
	return b.String()
}

func contains(versions []domain.Version, v domain.Version) bool {
	for _, c := range versions {
		if c.Equal(v) {
			return true
		}
	}
	return false
}

func joinVersions(vs []domain.Version) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func joinConstraints(cs []domain.Constraint) string {
	if len(cs) == 0 {
		return "*"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
