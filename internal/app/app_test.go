package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/adapters/metrics"
	"go.trai.ch/accord/internal/adapters/store"
	"go.trai.ch/accord/internal/app"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/accord/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

type fixture struct {
	dir      string
	ws       *domain.Workspace
	loader   *mocks.MockConfigLoader
	catalogs *mocks.MockCatalogLoader
	advisory *mocks.MockAdvisoryLoader
	history  *mocks.MockHistoryStore
	logger   *mocks.MockLogger
	out      *bytes.Buffer
	app      *app.App
}

func newTracer(ctrl *gomock.Controller) *mocks.MockTracer {
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).Return(0, nil).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	return tracer
}

func requirement(t *testing.T, scope domain.ScopeID, name, constraint string) domain.Requirement {
	t.Helper()
	r, err := domain.NewRequirement(name, constraint, scope)
	require.NoError(t, err)
	return r
}

func setup(t *testing.T, cat domain.Catalog, reqs ...domain.Requirement) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()

	f := &fixture{
		dir: dir,
		ws: &domain.Workspace{
			Root:         dir,
			Scopes:       []domain.Scope{{Name: "api", Path: "api", Requirements: reqs}},
			CatalogPath:  domain.DefaultCatalogPath(dir),
			AdvisoryPath: domain.DefaultAdvisoryPath(dir),
			LockPath:     domain.DefaultLockPath(dir),
			HistoryPath:  domain.DefaultHistoryPath(dir),
		},
		loader:   mocks.NewMockConfigLoader(ctrl),
		catalogs: mocks.NewMockCatalogLoader(ctrl),
		advisory: mocks.NewMockAdvisoryLoader(ctrl),
		history:  mocks.NewMockHistoryStore(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		out:      new(bytes.Buffer),
	}

	f.loader.EXPECT().Load(dir).Return(f.ws, nil).AnyTimes()
	f.catalogs.EXPECT().Load(f.ws.CatalogPath).Return(cat, nil).AnyTimes()
	f.advisory.EXPECT().Load(f.ws.AdvisoryPath).Return(domain.NewAdvisories(nil, nil), nil).AnyTimes()
	f.history.EXPECT().Load(f.ws.HistoryPath).Return(nil, nil).AnyTimes()

	recorder := mocks.NewMockMetrics(ctrl)
	recorder.EXPECT().ObserveConflict(gomock.Any()).AnyTimes()
	recorder.EXPECT().ObserveAttempt(gomock.Any(), gomock.Any()).AnyTimes()
	recorder.EXPECT().ObserveRun(gomock.Any(), gomock.Any()).AnyTimes()

	f.app = app.New(f.loader, f.catalogs, f.advisory, f.history, store.NewLockStore(), recorder, newTracer(ctrl), f.logger).
		WithOutput(f.out).
		WithClock(func() time.Time { return fixedNow })
	return f
}

type jsonReport struct {
	Command    string          `json:"command"`
	Successful bool            `json:"successful"`
	DryRun     bool            `json:"dry_run"`
	LockPath   string          `json:"lock_path"`
	Written    bool            `json:"written"`
	Stale      bool            `json:"stale"`
	Diff       domain.LockDiff `json:"diff"`
	Outcome    struct {
		Resolved map[string]string `json:"resolved"`
	} `json:"outcome"`
}

func (f *fixture) report(t *testing.T) jsonReport {
	t.Helper()
	var r jsonReport
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &r))
	f.out.Reset()
	return r
}

var libCatalog = domain.Catalog{
	"lib":  {"1.0.0", "1.2.0", "1.3.0", "2.0.0"},
	"core": {"3.1.0", "3.2.0"},
	"db":   {"1.0.0", "2.0.0"},
}

func TestApp_Resolve(t *testing.T) {
	f := setup(t, libCatalog,
		requirement(t, "api", "lib", "^1.0.0"),
		requirement(t, "web", "lib", "^1.2.0"),
		requirement(t, "api", "core", "=3.1.0"),
	)

	err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json"})
	require.NoError(t, err)

	r := f.report(t)
	assert.Equal(t, "resolve", r.Command)
	assert.True(t, r.Successful)
	assert.True(t, r.Written)
	assert.Equal(t, domain.LockFileName, r.LockPath)
	assert.Equal(t, map[string]string{"core": "3.1.0", "lib": "1.3.0"}, r.Outcome.Resolved)
	require.Len(t, r.Diff.Added, 2)

	data, err := os.ReadFile(f.ws.LockPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "generated_at: 2026-06-01T08:30:00Z")
	assert.Contains(t, string(data), "resolved_by: latest-compatible")

	// A second run with the same inputs leaves the artifact alone.
	require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json"}))
	r = f.report(t)
	assert.False(t, r.Written)
	assert.True(t, r.Diff.Empty())

	again, err := os.ReadFile(f.ws.LockPath)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestApp_Resolve_DryRun(t *testing.T) {
	f := setup(t, libCatalog, requirement(t, "api", "lib", "^1.0.0"))

	require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json", DryRun: true}))

	r := f.report(t)
	assert.True(t, r.DryRun)
	assert.False(t, r.Written)
	assert.Equal(t, "1.3.0", r.Outcome.Resolved["lib"])

	_, err := os.Stat(f.ws.LockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestApp_Resolve_Unresolved(t *testing.T) {
	reqs := []domain.Requirement{
		requirement(t, "api", "db", "=1.0.0"),
		requirement(t, "web", "db", "=2.0.0"),
	}

	t.Run("reports and succeeds by default", func(t *testing.T) {
		f := setup(t, libCatalog, reqs...)
		f.logger.EXPECT().Warn("1 conflicts need a manual decision")

		require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json"}))
		r := f.report(t)
		assert.False(t, r.Successful)

		data, err := os.ReadFile(f.ws.LockPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "conflicts_remaining:")
		assert.Contains(t, string(data), "strategy-exhausted")
	})

	t.Run("fails when asked to", func(t *testing.T) {
		f := setup(t, libCatalog, reqs...)
		f.logger.EXPECT().Warn(gomock.Any())

		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json", FailOnUnresolved: true})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnresolvedConflicts.Error())
	})
}

func TestApp_Resolve_SettingsOverrideWorkspace(t *testing.T) {
	f := setup(t, libCatalog,
		requirement(t, "api", "lib", "^1.0.0"),
		requirement(t, "web", "lib", "^1.2.0"),
	)
	conservative := "conservative"
	f.ws.Settings.Strategy = &conservative

	aggressive := "aggressive"
	threads := 1
	err := f.app.Resolve(t.Context(), app.ResolveOptions{
		Dir:      f.dir,
		Format:   "json",
		DryRun:   true,
		Settings: domain.Settings{Strategy: &aggressive, MaxThreads: &threads},
	})
	require.NoError(t, err)

	var r struct {
		Outcome struct {
			Provenance map[string]domain.Provenance `json:"provenance"`
			Perf       domain.Performance           `json:"performance"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &r))
	assert.Equal(t, "aggressive", r.Outcome.Provenance["lib"].Strategy)
	assert.Equal(t, 1, r.Outcome.Perf.Workers)
}

func TestApp_Resolve_TrackHistory(t *testing.T) {
	f := setup(t, libCatalog,
		requirement(t, "api", "lib", "^1.0.0"),
		requirement(t, "web", "lib", "^1.2.0"),
	)
	track := true

	var appended []domain.HistoryRecord
	f.history.EXPECT().Append(f.ws.HistoryPath, gomock.Any()).DoAndReturn(
		func(_ string, records []domain.HistoryRecord) error {
			appended = records
			return nil
		},
	)

	err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json", Settings: domain.Settings{TrackHistory: &track}})
	require.NoError(t, err)

	require.NotEmpty(t, appended)
	assert.Equal(t, "lib", appended[0].Package)
	assert.Equal(t, "1.3.0", appended[0].Version.String())
	assert.True(t, appended[0].Timestamp.Equal(fixedNow))
}

func TestApp_Resolve_TrackHistoryDryRunSkipsAppend(t *testing.T) {
	f := setup(t, libCatalog,
		requirement(t, "api", "lib", "^1.0.0"),
		requirement(t, "web", "lib", "^1.2.0"),
	)
	track := true

	err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json", DryRun: true, Settings: domain.Settings{TrackHistory: &track}})
	require.NoError(t, err)
}

func TestApp_Resolve_Metrics(t *testing.T) {
	f := setup(t, libCatalog, requirement(t, "api", "lib", "^1.0.0"))
	ctrl := gomock.NewController(t)
	a := app.New(f.loader, f.catalogs, f.advisory, f.history, store.NewLockStore(), metrics.New(), newTracer(ctrl), f.logger).
		WithOutput(f.out).
		WithClock(func() time.Time { return fixedNow })

	require.NoError(t, a.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "text", DryRun: true, Metrics: true}))
	assert.Contains(t, f.out.String(), "accord_components 1")
	assert.Contains(t, f.out.String(), "accord_resolution_duration_seconds_count 1")
}

func TestApp_Resolve_Errors(t *testing.T) {
	t.Run("configuration", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		loader.EXPECT().Load(".").Return(nil, domain.ErrConfigNotFound)

		a := app.New(loader, nil, nil, nil, nil, nil, newTracer(ctrl), mocks.NewMockLogger(ctrl))
		err := a.Resolve(t.Context(), app.ResolveOptions{})
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to load configuration")
	})

	t.Run("report format", func(t *testing.T) {
		f := setup(t, libCatalog)
		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "yaml"})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnknownReportFormat.Error())
	})

	t.Run("invalid flag", func(t *testing.T) {
		f := setup(t, libCatalog, requirement(t, "api", "lib", "^1.0.0"))
		bad := "newest"
		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Settings: domain.Settings{Strategy: &bad}})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnknownStrategy.Error())
	})

	t.Run("malformed constraint", func(t *testing.T) {
		f := setup(t, libCatalog, requirement(t, "api", "lib", ">>1"))
		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrResolutionFailed.Error())
		assert.ErrorContains(t, err, domain.ErrMalformedConstraint.Error())
	})

	t.Run("catalog", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dir := t.TempDir()
		ws := &domain.Workspace{Root: dir, CatalogPath: filepath.Join(dir, "missing.yaml")}
		loader := mocks.NewMockConfigLoader(ctrl)
		loader.EXPECT().Load(dir).Return(ws, nil)
		catalogs := mocks.NewMockCatalogLoader(ctrl)
		catalogs.EXPECT().Load(ws.CatalogPath).Return(nil, domain.ErrCatalogReadFailed)

		a := app.New(loader, catalogs, nil, nil, nil, nil, newTracer(ctrl), mocks.NewMockLogger(ctrl))
		err := a.Resolve(t.Context(), app.ResolveOptions{Dir: dir})
		require.ErrorIs(t, err, domain.ErrCatalogReadFailed)
	})

	t.Run("history", func(t *testing.T) {
		f := setup(t, libCatalog,
			requirement(t, "api", "lib", "^1.0.0"),
			requirement(t, "web", "lib", "^1.2.0"),
		)
		track := true
		f.history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Settings: domain.Settings{TrackHistory: &track}})
		require.Error(t, err)
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestApp_Verify(t *testing.T) {
	reqs := []domain.Requirement{
		requirement(t, "api", "lib", "^1.0.0"),
		requirement(t, "web", "lib", "^1.2.0"),
		requirement(t, "api", "core", "^3.0.0"),
	}

	t.Run("up to date", func(t *testing.T) {
		f := setup(t, libCatalog, reqs...)
		require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json"}))
		f.out.Reset()

		require.NoError(t, f.app.Verify(t.Context(), app.VerifyOptions{Dir: f.dir, Format: "json"}))
		r := f.report(t)
		assert.Equal(t, "verify", r.Command)
		assert.False(t, r.Stale)
		assert.False(t, r.Written)
	})

	t.Run("stale after catalog update", func(t *testing.T) {
		f := setup(t, libCatalog, reqs...)
		require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json"}))
		f.out.Reset()

		ctrl := gomock.NewController(t)
		newer := domain.Catalog{"lib": {"1.0.0", "1.2.0", "1.3.0", "1.4.0"}, "core": {"3.1.0", "3.2.0"}}
		catalogs := mocks.NewMockCatalogLoader(ctrl)
		catalogs.EXPECT().Load(f.ws.CatalogPath).Return(newer, nil)
		a := app.New(f.loader, catalogs, f.advisory, f.history, store.NewLockStore(), nil, newTracer(ctrl), f.logger).
			WithOutput(f.out).
			WithClock(func() time.Time { return fixedNow.Add(time.Hour) })

		err := a.Verify(t.Context(), app.VerifyOptions{Dir: f.dir, Format: "json"})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrLockStale.Error())

		r := f.report(t)
		assert.True(t, r.Stale)
		require.Len(t, r.Diff.Changed, 1)
		assert.Equal(t, domain.LockChange{Name: "lib", From: "1.3.0", To: "1.4.0"}, r.Diff.Changed[0])
	})

	t.Run("missing artifact", func(t *testing.T) {
		f := setup(t, libCatalog, reqs...)
		err := f.app.Verify(t.Context(), app.VerifyOptions{Dir: f.dir})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrLockStale.Error())
		assert.Empty(t, f.out.String())
	})

	t.Run("hand edited artifact", func(t *testing.T) {
		f := setup(t, libCatalog, reqs...)
		require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json"}))

		data, err := os.ReadFile(f.ws.LockPath)
		require.NoError(t, err)
		edited := strings.Replace(string(data), "version: 1.3.0", "version: 2.0.0", 1)
		require.NotEqual(t, string(data), edited)
		require.NoError(t, os.WriteFile(f.ws.LockPath, []byte(edited), domain.FilePerm))

		err = f.app.Verify(t.Context(), app.VerifyOptions{Dir: f.dir})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrLockCorruption.Error())
	})
}

func TestApp_Resolve_Watch(t *testing.T) {
	t.Run("resolves again on change", func(t *testing.T) {
		f := setup(t, libCatalog, requirement(t, "api", "lib", "^1.0.0"))
		w := mocks.NewMockWatcher(gomock.NewController(t))
		f.app.WithWatcher(w)

		f.logger.EXPECT().Info("watching " + f.dir + " for changes")
		f.logger.EXPECT().Info("1 files changed, resolving again")
		w.EXPECT().Watch(gomock.Any(), f.dir, gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, match func(string) bool, onChange func([]string)) error {
				assert.True(t, match(filepath.Join(f.dir, "api", domain.ScopeFileName)))
				assert.True(t, match(filepath.Join(f.dir, domain.WorkFileName)))
				assert.True(t, match(f.ws.CatalogPath))
				assert.True(t, match(f.ws.AdvisoryPath))
				assert.False(t, match(f.ws.LockPath))
				assert.False(t, match(f.ws.HistoryPath))
				assert.False(t, match(filepath.Join(f.dir, "README.md")))

				onChange([]string{f.ws.CatalogPath})
				return nil
			},
		)

		require.NoError(t, f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json", Watch: true}))
		assert.Equal(t, 2, strings.Count(f.out.String(), `"command": "resolve"`))
	})

	t.Run("logs failed runs and keeps watching", func(t *testing.T) {
		f := setup(t, libCatalog,
			requirement(t, "api", "db", "=1.0.0"),
			requirement(t, "web", "db", "=2.0.0"),
		)
		w := mocks.NewMockWatcher(gomock.NewController(t))
		f.app.WithWatcher(w)

		f.logger.EXPECT().Warn(gomock.Any()).Times(2)
		f.logger.EXPECT().Error(gomock.Any()).Times(2)
		f.logger.EXPECT().Info(gomock.Any()).Times(2)
		w.EXPECT().Watch(gomock.Any(), f.dir, gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, _ func(string) bool, onChange func([]string)) error {
				onChange([]string{f.ws.CatalogPath})
				return nil
			},
		)

		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Format: "json", Watch: true, FailOnUnresolved: true})
		require.NoError(t, err)
	})

	t.Run("unavailable", func(t *testing.T) {
		f := setup(t, libCatalog)
		err := f.app.Resolve(t.Context(), app.ResolveOptions{Dir: f.dir, Watch: true})
		require.ErrorIs(t, err, domain.ErrWatchUnavailable)
	})

	t.Run("configuration failure is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		loader.EXPECT().Load(".").Return(nil, domain.ErrConfigNotFound)

		a := app.New(loader, nil, nil, nil, nil, nil, newTracer(ctrl), mocks.NewMockLogger(ctrl)).
			WithWatcher(mocks.NewMockWatcher(ctrl))
		err := a.Resolve(t.Context(), app.ResolveOptions{Watch: true})
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to load configuration")
	})
}
