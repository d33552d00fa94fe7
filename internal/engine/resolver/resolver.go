// Package resolver is the entry point that turns declared requirements into an outcome.
package resolver

import (
	"context"
	"time"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/accord/internal/engine/builder"
	"go.trai.ch/accord/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Resolver builds the dependency graph, detects conflicts and runs the strategy chains.
type Resolver struct {
	catalog   ports.Catalog
	tracer    ports.Tracer
	metrics   ports.Metrics
	history   *domain.HistoryLog
	adv       *domain.Advisories
	scheduler *scheduler.Scheduler
	now       func() time.Time
}

// New creates a Resolver reading candidate versions from catalog.
func New(catalog ports.Catalog, tracer ports.Tracer, metrics ports.Metrics) *Resolver {
	return &Resolver{
		catalog:   catalog,
		tracer:    tracer,
		metrics:   metrics,
		scheduler: scheduler.NewScheduler(tracer),
		now:       time.Now,
	}
}

// WithHistory attaches the history log consulted by history-aware strategies.
// Records produced by a run are appended to it once the run has merged.
func (r *Resolver) WithHistory(log *domain.HistoryLog) *Resolver {
	r.history = log
	return r
}

// WithAdvisories attaches the vulnerability and license table.
func (r *Resolver) WithAdvisories(adv *domain.Advisories) *Resolver {
	r.adv = adv
	return r
}

// WithClock replaces the clock used for durations and history timestamps.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	r.scheduler.WithClock(now)
	return r
}

// WithComponentDelay delays each component before it resolves.
func (r *Resolver) WithComponentDelay(delay func(component []string) time.Duration) *Resolver {
	r.scheduler.WithDelay(delay)
	return r
}

// Resolve selects a version for every required package.
//
// Conflicts that cannot be settled are part of the outcome, not an error. The error is
// reserved for malformed input, invalid configuration and cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, reqs []domain.Requirement, cfg domain.ResolutionConfig) (*domain.Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "resolve", ports.WithAttribute("accord.requirements", len(reqs)))
	defer span.End()

	if err := cfg.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	start := r.now()
	g, err := builder.Build(reqs, r.catalog)
	if err != nil {
		span.RecordError(err)
		return nil, zerr.Wrap(err, "failed to build dependency graph")
	}
	span.SetAttribute("accord.packages", g.Len())

	out, err := r.scheduler.Run(ctx, g, cfg, r.history, r.adv)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out.Performance.Duration = r.now().Sub(start)

	if cfg.TrackHistory && r.history != nil {
		r.history.Append(out.History...)
	}

	r.observe(out)
	span.SetAttribute("accord.conflicts", out.Stats.TotalConflicts)
	span.SetAttribute("accord.unresolved", len(out.Unresolved))
	return out, nil
}

func (r *Resolver) observe(out *domain.Outcome) {
	if r.metrics == nil {
		return
	}
	for _, c := range out.Conflicts {
		r.metrics.ObserveConflict(c)
		for i, attempt := range c.Attempts {
			// Only the last attempt of a chain can have produced the decision.
			succeeded := i == len(c.Attempts)-1 && c.ResolvedBy == attempt
			r.metrics.ObserveAttempt(attempt, succeeded)
		}
	}
	r.metrics.ObserveRun(out.Performance.Duration, out.Performance.Components)
}
