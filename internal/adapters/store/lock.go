package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/zerr"
)

// LockStore implements ports.LockStore on the local filesystem.
type LockStore struct{}

// NewLockStore creates a new LockStore.
func NewLockStore() *LockStore {
	return &LockStore{}
}

// Read returns the artifact bytes at path, or nil if there is none.
func (s *LockStore) Read(path string) ([]byte, error) {
	//nolint:gosec // Path comes from the workspace configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockReadFailed.Error()), "path", path)
	}
	return data, nil
}

// WriteAtomic writes data next to path, validates what landed on disk and renames it into place.
// The temporary file is removed on every failure, so the existing artifact stays as it was.
func (s *LockStore) WriteAtomic(path string, data []byte, validate func([]byte) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create lock directory")
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp lock file")
	}
	tmpName := tmpFile.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, "failed to write temp lock file")
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, "failed to sync temp lock file")
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp lock file")
	}

	if validate != nil {
		//nolint:gosec // Temp file created above
		written, err := os.ReadFile(tmpName)
		if err != nil {
			return zerr.Wrap(err, "failed to read back temp lock file")
		}
		if err := validate(written); err != nil {
			return err
		}
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to chmod temp lock file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return zerr.Wrap(err, "failed to rename temp lock file")
	}
	renamed = true
	return nil
}
