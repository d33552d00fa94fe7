package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/accord/internal/adapters/catalog"   //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/adapters/store"     //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/accord/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			catalog.NodeID,
			catalog.AdvisoryNodeID,
			store.HistoryNodeID,
			store.LockNodeID,
			metrics.NodeID,
			telemetry.TracerNodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	catalogLoader, err := graft.Dep[ports.CatalogLoader](ctx)
	if err != nil {
		return nil, err
	}

	advisoryLoader, err := graft.Dep[ports.AdvisoryLoader](ctx)
	if err != nil {
		return nil, err
	}

	historyStore, err := graft.Dep[ports.HistoryStore](ctx)
	if err != nil {
		return nil, err
	}

	lockStore, err := graft.Dep[ports.LockStore](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, catalogLoader, advisoryLoader, historyStore, lockStore, recorder, tracer, log).
		WithWatcher(fileWatcher), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
	}, nil
}
