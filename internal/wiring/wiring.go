// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/accord/internal/adapters/catalog"
	_ "go.trai.ch/accord/internal/adapters/config"
	_ "go.trai.ch/accord/internal/adapters/logger"
	_ "go.trai.ch/accord/internal/adapters/metrics"
	_ "go.trai.ch/accord/internal/adapters/store"
	_ "go.trai.ch/accord/internal/adapters/telemetry"
	_ "go.trai.ch/accord/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/accord/internal/app"
)
