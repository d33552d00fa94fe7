package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/adapters/watcher"
)

// changes collects every batch reported by a running watcher.
type changes struct {
	mu    sync.Mutex
	paths []string
}

func (c *changes) add(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, paths...)
}

func (c *changes) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func startWatcher(t *testing.T, root string, match func(string) bool) *changes {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	got := &changes{}
	done := make(chan error, 1)
	go func() {
		done <- watcher.NewWatcher(10*time.Millisecond, nil).Watch(ctx, root, match, got.add)
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return got
}

func TestWatcher_ReportsMatchingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api"), 0o750))
	scope := filepath.Join(root, "api", "accord.yaml")
	lock := filepath.Join(root, "accord.lock")

	got := startWatcher(t, root, func(path string) bool {
		return filepath.Base(path) == "accord.yaml"
	})

	// Writes repeat until the watcher has registered its directories.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(lock, []byte("version: 1\n"), 0o600)
		_ = os.WriteFile(scope, []byte("scope: api\n"), 0o600)
		return len(got.seen()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	for _, path := range got.seen() {
		assert.Equal(t, scope, path)
	}
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	got := startWatcher(t, root, func(path string) bool {
		return filepath.Base(path) == "accord.yaml"
	})

	dir := filepath.Join(root, "web")
	scope := filepath.Join(dir, "accord.yaml")
	require.Eventually(t, func() bool {
		_ = os.MkdirAll(dir, 0o750)
		_ = os.WriteFile(scope, []byte("scope: web\n"), 0o600)
		return len(got.seen()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	assert.Contains(t, got.seen(), scope)
}

func TestWatcher_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	err := watcher.NewWatcher(10*time.Millisecond, nil).Watch(t.Context(), root, func(string) bool { return true }, func([]string) {})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to watch directory")
}
