package ports

import "context"

//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks

// Watcher reports file system changes under a directory tree.
type Watcher interface {
	// Watch calls onChange with the changed paths accepted by match, once changes settle.
	// Calls to onChange never overlap. Watch blocks until ctx is done.
	Watch(ctx context.Context, root string, match func(path string) bool, onChange func(paths []string)) error
}
