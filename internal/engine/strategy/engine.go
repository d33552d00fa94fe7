package strategy

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.trai.ch/accord/internal/core/domain"
)

// Engine assigns versions to the nodes of a graph and settles the conflicts detected on it.
type Engine struct {
	env Env
	adv *domain.Advisories
	now func() time.Time
}

// NewEngine creates an Engine. history and adv may be nil.
func NewEngine(cfg domain.ResolutionConfig, history *domain.HistoryLog, adv *domain.Advisories) *Engine {
	return &Engine{
		env: Env{Config: cfg, History: history},
		adv: adv,
		now: time.Now,
	}
}

// WithClock replaces the clock used to timestamp history records.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Resolve walks the nodes of g in name order and runs the strategy chain for each of them.
// conflicts must be the detector output for g; their status fields are updated in place.
// On cancellation it returns the context error and the partial work must be discarded.
func (e *Engine) Resolve(ctx context.Context, g *domain.Graph, conflicts []*domain.Conflict) (*domain.Outcome, error) {
	out := domain.NewOutcome()
	byNode := make(map[string][]*domain.Conflict)
	for _, c := range conflicts {
		switch c.Kind {
		case domain.KindCircularDependency:
			c.MarkUnresolved(domain.ReasonUnresolvable,
				"break the cycle "+strings.Join(c.CyclePath, " -> ")+"; its packages were still resolved individually")
		case domain.KindMissingDependency:
			c.MarkUnresolved(domain.ReasonUnresolvable,
				fmt.Sprintf("add %s to the package catalog or remove the requirement", strings.Join(c.Nodes, ", ")))
		default:
			for _, name := range c.Nodes {
				byNode[name] = append(byNode[name], c)
			}
		}
	}
	out.Conflicts = append(out.Conflicts, conflicts...)

	for _, id := range g.Sorted() {
		n := g.Node(id)
		if n.Missing || (len(n.Candidates) == 0 && len(n.Requirements) == 0) {
			continue
		}
		extra, err := e.resolveNode(ctx, n, byNode[n.Name], out)
		if err != nil {
			return nil, err
		}
		out.Conflicts = append(out.Conflicts, extra...)
	}
	return out, nil
}

func (e *Engine) resolveNode(
	ctx context.Context,
	n *domain.Node,
	conflicts []*domain.Conflict,
	out *domain.Outcome,
) ([]*domain.Conflict, error) {
	subj := Subject{
		Name:        n.Name,
		Candidates:  e.adv.Safe(n.Name, n.Candidates),
		Constraints: n.Constraints,
		Signature:   domain.Signature([]string{n.Name}, n.ConstraintStrings()),
		Detail:      details(conflicts),
	}

	res, err := Chain(ctx, e.env.Config.Chain(), subj, e.env)
	if err != nil {
		return nil, err
	}
	out.Performance.StrategyAttempts += len(res.Attempts)

	if res.Verdict != Assigned && len(conflicts) == 0 {
		if e.refusedOverride(n.Name, res) {
			c := domain.NewConflict(domain.KindVersionIncompatibility, domain.SeverityMedium, []string{n.Name},
				fmt.Sprintf("override %s@%s is outside %s", n.Name, e.env.Config.Overrides[n.Name], joinConstraints(n.Constraints)))
			c.Attempts = slices.Clone(res.Attempts)
			c.MarkUnresolved(domain.ReasonDeferred, res.Hint)
			return []*domain.Conflict{c}, nil
		}
		// Nothing to report on this node, so the default pick stands in for the chain.
		fallback := latestCompatible(subj, e.env)
		fallback.Attempts = append(res.Attempts, fallback.Attempts...)
		res = fallback
	}

	if res.Verdict == Assigned {
		e.assign(n, subj, res, out)
	}

	var extra []*domain.Conflict
	for _, c := range conflicts {
		c.Attempts = slices.Clone(res.Attempts)
		e.settle(c, n.Name, res)
	}
	if res.Verdict == Assigned && res.Overridden && !hasActionable(conflicts) {
		c := domain.NewConflict(domain.KindVersionIncompatibility, domain.SeverityMedium, []string{n.Name}, res.Hint)
		c.Attempts = slices.Clone(res.Attempts)
		c.MarkOverridden(res.Strategy, res.Hint)
		extra = append(extra, c)
	}
	if res.Verdict == Assigned {
		extra = append(extra, e.flagVulnerable(n.Name, res, conflicts)...)
	}
	return extra, nil
}

// refusedOverride reports whether the chain stopped on an override that strict pinning refused.
func (e *Engine) refusedOverride(name string, res Result) bool {
	if res.Verdict != Deferred || res.Strategy != string(domain.StrategyManualResolution) {
		return false
	}
	_, ok := e.env.Config.Overrides[name]
	return ok
}

// flagVulnerable keeps a vulnerable assignment visible. Strategies only pick from safe
// candidates, so this is reached through overrides. The package's security conflict is
// raised to Critical and left unresolved; one is created when the detector reported none.
func (e *Engine) flagVulnerable(name string, res Result, conflicts []*domain.Conflict) []*domain.Conflict {
	vulns := e.adv.Vulnerable(name, res.Version)
	if len(vulns) == 0 {
		return nil
	}
	ids := make([]string, len(vulns))
	for i, v := range vulns {
		ids[i] = v.ID
	}
	hint := fmt.Sprintf("%s %s selected by %s is affected by %s; override a version outside the advisory range",
		name, res.Version, res.Strategy, strings.Join(ids, ", "))

	var created []*domain.Conflict
	found := false
	for _, c := range conflicts {
		if c.Kind == domain.KindSecurityVulnerability {
			found = true
			c.Severity = domain.SeverityCritical
			c.MarkUnresolved(domain.ReasonUnresolvable, hint)
		}
	}
	if !found {
		c := domain.NewConflict(domain.KindSecurityVulnerability, domain.SeverityCritical, []string{name},
			fmt.Sprintf("%s %s affected by %s", name, res.Version, strings.Join(ids, ", ")))
		c.Attempts = slices.Clone(res.Attempts)
		c.MarkUnresolved(domain.ReasonUnresolvable, hint)
		created = append(created, c)
	}
	return created
}

func (e *Engine) assign(n *domain.Node, subj Subject, res Result, out *domain.Outcome) {
	n.Resolved = res.Version
	out.Resolved[n.Name] = res.Version
	out.Provenance[n.Name] = domain.Provenance{
		Strategy:    res.Strategy,
		Constraints: n.ConstraintStrings(),
		Scopes:      n.Scopes(),
	}
	if e.env.Config.TrackHistory {
		out.History = append(out.History, domain.HistoryRecord{
			Signature: subj.Signature,
			Package:   n.Name,
			Version:   res.Version,
			Strategy:  res.Strategy,
			Timestamp: e.now().UTC(),
		})
	}
}

// settle moves a conflict to its final state given the chain result for its package.
func (e *Engine) settle(c *domain.Conflict, name string, res Result) {
	if c.Kind == domain.KindLicenseIncompatibility {
		notice, _ := e.adv.License(name)
		if res.Verdict == Assigned && !notice.Covers(res.Version) {
			c.MarkResolved(res.Strategy)
			return
		}
		c.MarkUnresolved(domain.ReasonUnresolvable,
			fmt.Sprintf("no candidate of %s outside license %s was selected; review the license or replace the package", name, notice.License))
		return
	}

	switch res.Verdict {
	case Assigned:
		if res.Overridden {
			c.MarkOverridden(res.Strategy, res.Hint)
			return
		}
		c.MarkResolved(res.Strategy)
	case Deferred:
		c.MarkUnresolved(domain.ReasonDeferred, res.Hint)
	default:
		hint := "every strategy failed (" + strings.Join(res.Attempts, ", ") + ")"
		if res.Hint != "" {
			hint += "; last: " + res.Hint
		}
		c.MarkUnresolved(domain.ReasonStrategyExhausted, hint)
	}
}

func hasActionable(conflicts []*domain.Conflict) bool {
	for _, c := range conflicts {
		if c.Kind != domain.KindLicenseIncompatibility {
			return true
		}
	}
	return false
}

func details(conflicts []*domain.Conflict) string {
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, c.Detail)
	}
	return strings.Join(parts, "; ")
}
