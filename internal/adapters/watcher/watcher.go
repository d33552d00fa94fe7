package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is how long changes must settle before a callback runs.
const DefaultDebounceWindow = 200 * time.Millisecond

// skipDirectories are never watched.
var skipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	window time.Duration
	log    ports.Logger
}

// NewWatcher creates a Watcher that reports file system errors to log.
func NewWatcher(window time.Duration, log ports.Logger) *Watcher {
	return &Watcher{window: window, log: log}
}

// Watch implements ports.Watcher. Directories created after the watch starts are added as they appear.
func (w *Watcher) Watch(ctx context.Context, root string, match func(string) bool, onChange func([]string)) error {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil {
			err = zerr.New("not a directory")
		}
		return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() {
		_ = fsw.Close()
	}()

	for dir := range directories(root) {
		if err := fsw.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", dir)
		}
	}

	d := NewDebouncer(w.window, onChange)
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDirectories[info.Name()] {
					for dir := range directories(event.Name) {
						_ = fsw.Add(dir)
					}
				}
			}
			if relevant(event) && match(event.Name) {
				d.Add(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if w.log != nil {
				w.log.Warn("watcher: " + err.Error())
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// directories yields root and every directory below it that is not skipped.
func directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
