package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/adapters/config"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Standalone(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "accord.yaml"), `
version: "1"
scope: api
requires:
  lib: ^1.2.0
  core: "3.1.0"
optional:
  metrics: ~0.3
dependencies:
  lib:
    core: ^3.0.0
resolution:
  strategy: hybrid(pinned-version|latest-compatible)
  fallback_strategies: smart-selection, manual-resolution
  compatibility_threshold: 0.75
  max_threads: 2
  timeout: 1.5
  track_history: true
  weights:
    satisfaction: 0.7
    recency: 0.3
overrides:
  core: 3.2.0
`)

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	ws, err := loader.Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, tmpDir, ws.Root)
	require.Len(t, ws.Scopes, 1)
	assert.Equal(t, domain.ScopeID("api"), ws.Scopes[0].Name)
	assert.Equal(t, []domain.Requirement{
		{Name: "core", Constraint: "3.1.0", Scope: "api"},
		{Name: "core", Constraint: "^3.0.0", Scope: "api", Dependent: "lib"},
		{Name: "lib", Constraint: "^1.2.0", Scope: "api"},
		{Name: "metrics", Constraint: "~0.3", Scope: "api", Optional: true},
	}, ws.Requirements())

	assert.Equal(t, filepath.Join(tmpDir, "accord.lock"), ws.LockPath)
	assert.Equal(t, filepath.Join(tmpDir, ".accord", "catalog.yaml"), ws.CatalogPath)
	assert.Equal(t, filepath.Join(tmpDir, ".accord", "advisories.yaml"), ws.AdvisoryPath)
	assert.Equal(t, filepath.Join(tmpDir, ".accord", "history.jsonl"), ws.HistoryPath)

	cfg, err := ws.Config()
	require.NoError(t, err)
	assert.Equal(t, "hybrid(pinned-version|latest-compatible)", cfg.Primary.String())
	require.Len(t, cfg.Fallbacks, 2)
	assert.Equal(t, domain.StrategyManualResolution, cfg.Fallbacks[1].Kind)
	assert.InDelta(t, 0.75, cfg.CompatibilityThreshold, 1e-9)
	assert.Equal(t, 2, cfg.MaxWorkers)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.TrackHistory)
	assert.True(t, cfg.StrictPinning)
	assert.Equal(t, domain.Weights{Satisfaction: 0.7, Recency: 0.3}, cfg.Weights)
	assert.Equal(t, "3.2.0", cfg.Overrides["core"].String())
}

func TestLoad_StandaloneDefaultsScopeName(t *testing.T) {
	tmpDir := t.TempDir()
	scopeDir := filepath.Join(tmpDir, "billing")
	writeFile(t, filepath.Join(scopeDir, "accord.yaml"), "requires:\n  lib: ^1.0.0\n")

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	ws, err := loader.Load(scopeDir)
	require.NoError(t, err)
	require.Len(t, ws.Scopes, 1)
	assert.Equal(t, domain.ScopeID("billing"), ws.Scopes[0].Name)
}

func TestLoad_Discovery(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "accord.work.yaml"), "scopes: [\"services/*\"]\n")
	writeFile(t, filepath.Join(tmpDir, "services", "api", "accord.yaml"), "scope: api\nrequires:\n  lib: ^1.0.0\n")
	nested := filepath.Join(tmpDir, "services", "api", "internal")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	// The workfile further up wins over the closer scope file.
	root, err := loader.DiscoverRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)

	ws, err := loader.Load(nested)
	require.NoError(t, err)
	require.Len(t, ws.Scopes, 1)
	assert.Equal(t, "services/api", ws.Scopes[0].Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr error
	}{
		{
			name:        "ParseFailure",
			content:     "requires: [unclosed",
			expectedErr: domain.ErrConfigParseFailed,
		},
		{
			name:        "InvalidScopeName",
			content:     "scope: \"bad name\"\n",
			expectedErr: domain.ErrInvalidScopeName,
		},
		{
			name:        "EmptyPackageName",
			content:     "scope: api\nrequires:\n  \" \": ^1.0.0\n",
			expectedErr: domain.ErrEmptyPackageName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, "accord.yaml"), tt.content)

			ctrl := gomock.NewController(t)
			loader := config.NewLoader(mocks.NewMockLogger(ctrl))

			_, err := loader.Load(tmpDir)
			require.Error(t, err)
			require.ErrorContains(t, err, tt.expectedErr.Error())
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	_, err := loader.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find accord.yaml or accord.work.yaml")

	_, err = loader.DiscoverRoot(t.TempDir())
	require.Error(t, err)
}
