package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/adapters/store"
	"go.trai.ch/accord/internal/core/domain"
)

func TestLockStore_ReadMissing(t *testing.T) {
	data, err := store.NewLockStore().Read(filepath.Join(t.TempDir(), domain.LockFileName))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLockStore_WriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, domain.LockFileName)
	s := store.NewLockStore()

	var seen []byte
	err := s.WriteAtomic(path, []byte("version: 1\n"), func(b []byte) error {
		seen = b
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(seen))

	data, err := s.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.FilePerm), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLockStore_WriteAtomicValidationFailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, domain.LockFileName)
	s := store.NewLockStore()
	require.NoError(t, s.WriteAtomic(path, []byte("previous\n"), nil))

	rejected := errors.New("entry violates constraint")
	err := s.WriteAtomic(path, []byte("next\n"), func([]byte) error { return rejected })
	require.ErrorIs(t, err, rejected)

	data, err := s.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestLockStore_WriteAtomicCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", domain.LockFileName)
	require.NoError(t, store.NewLockStore().WriteAtomic(path, []byte("x"), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestLockStore_ReadDirectoryFails(t *testing.T) {
	_, err := store.NewLockStore().Read(t.TempDir())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrLockReadFailed.Error())
}
