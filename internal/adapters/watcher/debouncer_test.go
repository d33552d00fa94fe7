package watcher_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/adapters/watcher"
)

func TestDebouncer_Coalesces(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/repo/catalog.yaml")
		d.Add("/repo/api/accord.yaml")
		d.Add("/repo/catalog.yaml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/repo/api/accord.yaml", "/repo/catalog.yaml"}, calls[0])
	})
}

func TestDebouncer_WindowRestartsOnAdd(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		d := watcher.NewDebouncer(100*time.Millisecond, func([]string) {
			calls.Add(1)
		})

		d.Add("/repo/accord.yaml")
		time.Sleep(60 * time.Millisecond)
		d.Add("/repo/accord.work.yaml")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(0), calls.Load())

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watcher.NewDebouncer(50*time.Millisecond, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/repo/a/accord.yaml")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		d.Add("/repo/b/accord.yaml")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"/repo/a/accord.yaml"}, {"/repo/b/accord.yaml"}}, calls)
	})
}

func TestDebouncer_CallbacksDoNotOverlap(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu      sync.Mutex
			active  int
			maxSeen int
			calls   int
		)
		d := watcher.NewDebouncer(10*time.Millisecond, func([]string) {
			mu.Lock()
			active++
			calls++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(100 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})

		d.Add("/repo/catalog.yaml")
		time.Sleep(20 * time.Millisecond)
		d.Add("/repo/advisories.yaml")
		time.Sleep(300 * time.Millisecond)
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, maxSeen)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		d := watcher.NewDebouncer(50*time.Millisecond, func([]string) {
			calls.Add(1)
		})

		d.Add("/repo/catalog.yaml")
		d.Stop()
		d.Add("/repo/catalog.yaml")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(0), calls.Load())
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)
		d.Add("/repo/catalog.yaml")

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
	})
}
