// Package scheduler resolves the independent parts of a dependency graph concurrently.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/accord/internal/engine/detector"
	"go.trai.ch/accord/internal/engine/strategy"
	"golang.org/x/sync/errgroup"
)

// ComponentStatus represents the state of a component after a run.
type ComponentStatus string

const (
	// StatusCompleted indicates the component was resolved and merged.
	StatusCompleted ComponentStatus = "Completed"
	// StatusTimedOut indicates the component was cancelled and its work discarded.
	StatusTimedOut ComponentStatus = "TimedOut"
)

// Scheduler partitions a graph into connected components and resolves them
// under a bounded worker pool.
type Scheduler struct {
	tracer ports.Tracer
	delay  func(component []string) time.Duration
	now    func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(tracer ports.Tracer) *Scheduler {
	return &Scheduler{tracer: tracer, now: time.Now}
}

// WithDelay makes every component wait for the returned duration before resolving.
// This is primarily used for testing timeouts.
func (s *Scheduler) WithDelay(delay func(component []string) time.Duration) *Scheduler {
	s.delay = delay
	return s
}

// WithClock replaces the clock used to timestamp history records.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run resolves every connected component of g and merges the results in the order of each
// component's smallest package name, so the outcome does not depend on worker scheduling.
//
// The history log is only read here. Records produced by the run are returned in the
// outcome for the caller to append once. When cfg.Timeout elapses, components that did not
// finish are reported as unresolved with reason Timeout and everything else is kept.
func (s *Scheduler) Run(
	ctx context.Context,
	g *domain.Graph,
	cfg domain.ResolutionConfig,
	history *domain.HistoryLog,
	adv *domain.Advisories,
) (*domain.Outcome, error) {
	components := g.Components()
	names := make([][]string, len(components))
	for i, ids := range components {
		names[i] = make([]string, len(ids))
		for j, id := range ids {
			names[i][j] = g.Node(id).Name
		}
	}
	s.tracer.EmitPlan(ctx, names)

	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	workers := 1
	if cfg.Parallel {
		workers = max(1, min(cfg.MaxWorkers, len(components)))
	}

	state := &runState{
		s:       s,
		cfg:     cfg,
		history: history,
		adv:     adv,
		results: make([]*domain.Outcome, len(components)),
		status:  make([]ComponentStatus, len(components)),
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, ids := range components {
		sub := g.Subgraph(ids)
		eg.Go(func() error {
			state.resolve(runCtx, i, sub, names[i])
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := domain.NewOutcome()
	for _, res := range state.results {
		out.Merge(res)
	}
	out.Performance.Components = len(components)
	out.Performance.Workers = workers
	out.Finalize()
	return out, nil
}

type runState struct {
	s       *Scheduler
	cfg     domain.ResolutionConfig
	history *domain.HistoryLog
	adv     *domain.Advisories
	// results and status are indexed by component; each worker writes only its own slot.
	results []*domain.Outcome
	status  []ComponentStatus
}

func (state *runState) resolve(ctx context.Context, i int, sub *domain.Graph, names []string) {
	ctx, span := state.s.tracer.Start(ctx, "resolve "+names[0],
		ports.WithAttribute("accord.component.size", len(names)))
	defer span.End()

	out, err := state.attempt(ctx, sub, names)
	if err != nil {
		span.RecordError(err)
		span.SetAttribute("accord.component.status", string(StatusTimedOut))
		state.results[i] = state.timedOut(sub, names)
		state.status[i] = StatusTimedOut
		return
	}
	span.SetAttribute("accord.component.status", string(StatusCompleted))
	state.results[i] = out
	state.status[i] = StatusCompleted
}

func (state *runState) attempt(ctx context.Context, sub *domain.Graph, names []string) (*domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state.s.delay != nil {
		if d := state.s.delay(names); d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	conflicts := detector.Detect(sub, state.adv)
	engine := strategy.NewEngine(state.cfg, state.history, state.adv).WithClock(state.s.now)
	return engine.Resolve(ctx, sub, conflicts)
}

// timedOut builds the outcome of a cancelled component from a fresh detection pass,
// since the engine may have touched the conflicts it was working on.
func (state *runState) timedOut(sub *domain.Graph, names []string) *domain.Outcome {
	out := domain.NewOutcome()
	hint := fmt.Sprintf("resolution did not finish within %s; raise the timeout or resolve %s separately",
		state.cfg.Timeout, strings.Join(names, ", "))

	conflicts := detector.Detect(sub, state.adv)
	if len(conflicts) == 0 {
		detail := "resolution of " + strings.Join(names, ", ") + " timed out"
		conflicts = append(conflicts, domain.NewConflict(domain.KindAmbiguousResolution, domain.SeverityMedium, names, detail))
	}
	for _, c := range conflicts {
		c.MarkUnresolved(domain.ReasonTimeout, hint)
	}
	out.Conflicts = conflicts
	return out
}
