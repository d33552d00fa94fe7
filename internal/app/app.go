// Package app implements the application layer for accord.
package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/accord/internal/adapters/report"
	"go.trai.ch/accord/internal/adapters/telemetry"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/accord/internal/engine/lock"
	"go.trai.ch/accord/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	catalogLoader  ports.CatalogLoader
	advisoryLoader ports.AdvisoryLoader
	historyStore   ports.HistoryStore
	lockStore      ports.LockStore
	metrics        ports.Metrics
	tracer         ports.Tracer
	logger         ports.Logger
	watcher        ports.Watcher

	out            io.Writer
	now            func() time.Time
	componentDelay func(component []string) time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	catalogLoader ports.CatalogLoader,
	advisoryLoader ports.AdvisoryLoader,
	historyStore ports.HistoryStore,
	lockStore ports.LockStore,
	metrics ports.Metrics,
	tracer ports.Tracer,
	log ports.Logger,
) *App {
	return &App{
		configLoader:   loader,
		catalogLoader:  catalogLoader,
		advisoryLoader: advisoryLoader,
		historyStore:   historyStore,
		lockStore:      lockStore,
		metrics:        metrics,
		tracer:         tracer,
		logger:         log,
		out:            os.Stdout,
		now:            time.Now,
	}
}

// WithOutput sets where reports and metrics are written. Defaults to stdout.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithClock replaces the clock used for durations, history and the lock timestamp.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// WithWatcher enables watch mode for Resolve.
func (a *App) WithWatcher(w ports.Watcher) *App {
	a.watcher = w
	return a
}

// WithComponentDelay delays each component before it resolves.
// This is primarily used for testing timeouts.
func (a *App) WithComponentDelay(delay func(component []string) time.Duration) *App {
	a.componentDelay = delay
	return a
}

// ResolveOptions configuration for the Resolve method.
type ResolveOptions struct {
	// Dir is where the workspace search starts.
	Dir string
	// Settings are command-line overrides applied on top of the workspace resolution block.
	Settings         domain.Settings
	DryRun           bool
	Format           string
	FailOnUnresolved bool
	Metrics          bool
	Trace            bool
	// Watch resolves again whenever a scope file, the catalog or the advisory table changes.
	Watch bool
}

// VerifyOptions configuration for the Verify method.
type VerifyOptions struct {
	Dir      string
	Settings domain.Settings
	Format   string
	Metrics  bool
	Trace    bool
}

// session is everything a run needs once the workspace has been loaded.
type session struct {
	ws       *domain.Workspace
	cfg      domain.ResolutionConfig
	history  *domain.HistoryLog
	resolver *resolver.Resolver
	reporter ports.Reporter
}

// Resolve resolves the workspace requirements and applies the result to the lock artifact.
func (a *App) Resolve(ctx context.Context, opts ResolveOptions) error {
	if opts.Trace {
		defer a.setupOTel(ctx)()
	}
	if opts.Watch && a.watcher == nil {
		return domain.ErrWatchUnavailable
	}

	ws, err := a.resolveOnce(ctx, opts)
	if !opts.Watch {
		return err
	}
	if ws == nil {
		return err
	}
	if err != nil {
		a.logger.Error(err)
	}

	a.logger.Info("watching " + ws.Root + " for changes")
	return a.watcher.Watch(ctx, ws.Root, inputs(ws), func(paths []string) {
		a.logger.Info(fmt.Sprintf("%d files changed, resolving again", len(paths)))
		if _, err := a.resolveOnce(ctx, opts); err != nil {
			a.logger.Error(err)
		}
	})
}

// resolveOnce runs one resolution. The workspace is returned whenever it loaded,
// even if a later step failed.
func (a *App) resolveOnce(ctx context.Context, opts ResolveOptions) (*domain.Workspace, error) {
	s, err := a.open(opts.Dir, opts.Settings, opts.Format)
	if err != nil {
		if s != nil {
			return s.ws, err
		}
		return nil, err
	}

	out, err := s.resolver.Resolve(ctx, s.ws.Requirements(), s.cfg)
	if err != nil {
		return s.ws, zerr.Wrap(err, domain.ErrResolutionFailed.Error())
	}

	if s.cfg.TrackHistory && !opts.DryRun {
		if err := a.historyStore.Append(s.ws.HistoryPath, s.history.Pending()); err != nil {
			return s.ws, err
		}
	}

	writer := lock.NewWriter(a.lockStore, a.tracer).WithClock(a.now)
	res, err := writer.Apply(ctx, s.ws.LockPath, out, opts.DryRun)
	if err != nil {
		return s.ws, err
	}

	rep := domain.NewReport("resolve", out, res.Diff)
	rep.DryRun = opts.DryRun
	rep.Written = res.Written
	rep.LockPath = relativeTo(s.ws.Root, s.ws.LockPath)
	if err := a.render(s.reporter, rep, opts.Metrics); err != nil {
		return s.ws, err
	}

	if n := len(out.Unresolved); n > 0 {
		a.logger.Warn(fmt.Sprintf("%d conflicts need a manual decision", n))
		if opts.FailOnUnresolved {
			return s.ws, zerr.With(domain.ErrUnresolvedConflicts, "count", n)
		}
	}
	return s.ws, nil
}

// inputs matches the files a resolution reads. The lock artifact and history are excluded
// so that writing them does not trigger another run.
func inputs(ws *domain.Workspace) func(string) bool {
	catalog := filepath.Clean(ws.CatalogPath)
	advisories := filepath.Clean(ws.AdvisoryPath)
	return func(path string) bool {
		path = filepath.Clean(path)
		switch filepath.Base(path) {
		case domain.ScopeFileName, domain.WorkFileName:
			return true
		}
		return path == catalog || path == advisories
	}
}

// Verify checks that the lock artifact on disk matches a fresh resolution of the workspace.
// Nothing is written.
func (a *App) Verify(ctx context.Context, opts VerifyOptions) error {
	if opts.Trace {
		defer a.setupOTel(ctx)()
	}

	s, err := a.open(opts.Dir, opts.Settings, opts.Format)
	if err != nil {
		return err
	}
	lockPath := relativeTo(s.ws.Root, s.ws.LockPath)

	writer := lock.NewWriter(a.lockStore, a.tracer).WithClock(a.now)
	prev, err := writer.Previous(s.ws.LockPath)
	if err != nil {
		return zerr.With(err, "path", lockPath)
	}
	if prev == nil {
		return zerr.With(zerr.With(domain.ErrLockStale, "path", lockPath), "reason", "no lock artifact found, run accord resolve")
	}
	if err := lock.Validate(prev); err != nil {
		return zerr.With(err, "path", lockPath)
	}

	out, err := s.resolver.Resolve(ctx, s.ws.Requirements(), s.cfg)
	if err != nil {
		return zerr.Wrap(err, domain.ErrResolutionFailed.Error())
	}

	next := lock.Build(out, prev.GeneratedAt)
	stale, err := differs(prev, next)
	if err != nil {
		return err
	}

	rep := domain.NewReport("verify", out, lock.Diff(prev, next))
	rep.LockPath = lockPath
	rep.Stale = stale
	if err := a.render(s.reporter, rep, opts.Metrics); err != nil {
		return err
	}

	if stale {
		return zerr.With(domain.ErrLockStale, "path", lockPath)
	}
	return nil
}

// open loads the workspace and everything the resolver reads from disk.
// On failure after the workspace loaded, the returned session carries only the workspace.
func (a *App) open(dir string, overrides domain.Settings, format string) (*session, error) {
	reporter, err := report.New(format)
	if err != nil {
		return nil, err
	}

	if dir == "" {
		dir = "."
	}
	ws, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	loaded := &session{ws: ws}

	cfg, err := ws.Config()
	if err != nil {
		return loaded, zerr.Wrap(err, "failed to load configuration")
	}
	if err := overrides.Apply(&cfg); err != nil {
		return loaded, err
	}

	catalog, err := a.catalogLoader.Load(ws.CatalogPath)
	if err != nil {
		return loaded, err
	}
	adv, err := a.advisoryLoader.Load(ws.AdvisoryPath)
	if err != nil {
		return loaded, err
	}
	records, err := a.historyStore.Load(ws.HistoryPath)
	if err != nil {
		return loaded, err
	}
	history := domain.NewHistoryLog(records)

	res := resolver.New(catalog, a.tracer, a.metrics).
		WithHistory(history).
		WithAdvisories(adv).
		WithClock(a.now)
	if a.componentDelay != nil {
		res.WithComponentDelay(a.componentDelay)
	}

	return &session{ws: ws, cfg: cfg, history: history, resolver: res, reporter: reporter}, nil
}

func (a *App) render(reporter ports.Reporter, rep *domain.Report, withMetrics bool) error {
	if err := reporter.Render(a.out, rep); err != nil {
		return err
	}
	if withMetrics {
		return a.metrics.WriteText(a.out)
	}
	return nil
}

// setupOTel routes finished spans to the logger and returns the shutdown function.
func (a *App) setupOTel(ctx context.Context) func() {
	tp := telemetry.Setup(telemetry.NewBridge(a.logger))
	return func() {
		_ = tp.Shutdown(ctx)
	}
}

// differs reports whether two artifacts encode to different bytes.
func differs(prev, next *domain.Lockfile) (bool, error) {
	a, err := lock.Encode(prev)
	if err != nil {
		return false, err
	}
	b, err := lock.Encode(next)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(a, b), nil
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
