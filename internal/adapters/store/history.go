// Package store persists resolution history and lock artifacts on the local filesystem.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/zerr"
)

// HistoryStore implements ports.HistoryStore as a JSON lines log, one record per line.
type HistoryStore struct{}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Load returns every record in the log at path, oldest first.
func (s *HistoryStore) Load(path string) ([]domain.HistoryRecord, error) {
	//nolint:gosec // Path comes from the workspace configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryReadFailed.Error()), "path", path)
	}

	var records []domain.HistoryRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrHistoryReadFailed.Error()), "path", path), "line", line)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryReadFailed.Error()), "path", path)
	}
	return records, nil
}

// Append writes records to the end of the log at path, creating it if needed.
func (s *HistoryStore) Append(path string, records []domain.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error()), "path", path)
	}

	//nolint:gosec // Path comes from the workspace configuration
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error()), "path", path)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error()), "path", path)
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error()), "path", path)
	}
	return nil
}
