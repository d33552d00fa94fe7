package scheduler_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/accord/internal/core/ports/mocks"
	"go.trai.ch/accord/internal/engine/builder"
	"go.trai.ch/accord/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	tracer *mocks.MockTracer
	span   *mocks.MockSpan
}

// setupSchedulerTest creates a scheduler and common mocks.
func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		tracer: mocks.NewMockTracer(ctrl),
		span:   mocks.NewMockSpan(ctrl),
	}

	m.span.EXPECT().End().AnyTimes()
	m.span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	m.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	// Start has variadic signature: Start(ctx, name, ...opts).
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, m.span
		},
	).AnyTimes()

	return scheduler.NewScheduler(m.tracer), m
}

// twoComponents has a conflicting "slow" package and an unrelated "fast" package.
func twoComponents(t *testing.T) *domain.Graph {
	t.Helper()
	catalog := domain.Catalog{
		"slow": {"1.0.0", "2.0.0"},
		"fast": {"1.0.0", "1.1.0"},
	}
	reqs := []domain.Requirement{
		{Name: "slow", Constraint: "=1.0.0", Scope: "a"},
		{Name: "slow", Constraint: "=2.0.0", Scope: "b"},
		{Name: "fast", Constraint: "^1.0.0", Scope: "a"},
	}
	g, err := builder.Build(reqs, catalog)
	require.NoError(t, err)
	return g
}

func TestScheduler_EmitsPlanInComponentOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		m.tracer.EXPECT().EmitPlan(gomock.Any(), [][]string{{"fast"}, {"slow"}})

		out, err := s.Run(t.Context(), twoComponents(t), domain.DefaultConfig(), nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, out.Performance.Components)
		assert.Equal(t, 2, out.Performance.Workers)
		assert.Equal(t, "1.1.0", out.Resolved["fast"].String())
		require.Len(t, out.Unresolved, 1)
		assert.Equal(t, domain.ReasonStrategyExhausted, out.Unresolved[0].Reason)
	})
}

func TestScheduler_TimeoutKeepsFinishedComponents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())
		s.WithDelay(func(component []string) time.Duration {
			if component[0] == "slow" {
				return 5 * time.Second
			}
			return 0
		})

		cfg := domain.DefaultConfig()
		cfg.Timeout = time.Second

		start := time.Now()
		out, err := s.Run(t.Context(), twoComponents(t), cfg, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, time.Second, time.Since(start))

		assert.Equal(t, "1.1.0", out.Resolved["fast"].String())
		assert.NotContains(t, out.Resolved, "slow")

		require.Len(t, out.Unresolved, 1)
		c := out.Unresolved[0]
		assert.Equal(t, []string{"slow"}, c.Nodes)
		assert.Equal(t, domain.StatusUnresolved, c.Status)
		assert.Equal(t, domain.ReasonTimeout, c.Reason)
		assert.Contains(t, c.Hint, "1s")
		assert.Equal(t, 1, out.Stats.TimedOut)
	})
}

func TestScheduler_TimeoutOnConflictFreeComponent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())
		s.WithDelay(func([]string) time.Duration { return time.Minute })

		g, err := builder.Build(
			[]domain.Requirement{{Name: "fast", Constraint: "^1.0.0", Scope: "a"}},
			domain.Catalog{"fast": {"1.0.0"}},
		)
		require.NoError(t, err)

		cfg := domain.DefaultConfig()
		cfg.Timeout = 2 * time.Second

		out, err := s.Run(t.Context(), g, cfg, nil, nil)
		require.NoError(t, err)

		assert.Empty(t, out.Resolved)
		require.Len(t, out.Unresolved, 1)
		assert.Equal(t, domain.KindAmbiguousResolution, out.Unresolved[0].Kind)
		assert.Equal(t, domain.ReasonTimeout, out.Unresolved[0].Reason)
		assert.Equal(t, "resolution of fast timed out", out.Unresolved[0].Detail)
	})
}

func TestScheduler_ParentCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		out, err := s.Run(ctx, twoComponents(t), domain.DefaultConfig(), nil, nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, out)
	})
}

func TestScheduler_ParallelMatchesSequential(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		catalog := domain.Catalog{}
		var reqs []domain.Requirement
		for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			catalog[name] = []string{"1.0.0", "1.2.0", "2.0.0"}
			reqs = append(reqs,
				domain.Requirement{Name: name, Constraint: "^1.0.0", Scope: "x"},
				domain.Requirement{Name: name, Constraint: ">=1.1.0", Scope: "y"},
			)
		}
		catalog["shared"] = []string{"1.0.0"}
		reqs = append(reqs,
			domain.Requirement{Name: "shared", Constraint: "=1.0.0", Scope: "x", Dependent: "a"},
			domain.Requirement{Name: "shared", Constraint: "=2.0.0", Scope: "x", Dependent: "b"},
		)
		g, err := builder.Build(reqs, catalog)
		require.NoError(t, err)

		run := func(parallel bool, delay time.Duration) *domain.Outcome {
			s, m := setupSchedulerTest(t)
			m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())
			// Later components finish first when running in parallel.
			s.WithDelay(func(component []string) time.Duration {
				return delay * time.Duration(int('z'-component[0][0]))
			})
			cfg := domain.DefaultConfig()
			cfg.Parallel = parallel
			cfg.MaxWorkers = 8
			out, err := s.Run(t.Context(), g, cfg, nil, nil)
			require.NoError(t, err)
			return out
		}

		sequential := run(false, 0)
		parallel := run(true, time.Millisecond)

		assert.Equal(t, 1, sequential.Performance.Workers)
		assert.Equal(t, 7, parallel.Performance.Workers)
		assert.Equal(t, sequential.Resolved, parallel.Resolved)
		assert.Equal(t, sequential.Provenance, parallel.Provenance)
		assert.Equal(t, sequential.Conflicts, parallel.Conflicts)
		assert.Equal(t, sequential.Stats, parallel.Stats)
	})
}

func TestScheduler_ReturnsHistoryForCaller(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())
		stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		s.WithClock(func() time.Time { return stamp })

		log := domain.NewHistoryLog(nil)
		cfg := domain.DefaultConfig()
		cfg.TrackHistory = true

		out, err := s.Run(t.Context(), twoComponents(t), cfg, log, nil)
		require.NoError(t, err)

		assert.Equal(t, 0, log.Len())
		require.Len(t, out.History, 1)
		assert.Equal(t, "fast", out.History[0].Package)
		assert.Equal(t, stamp, out.History[0].Timestamp)
	})
}
