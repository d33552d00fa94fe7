package ports

import "go.trai.ch/accord/internal/core/domain"

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// HistoryStore persists resolution history records.
type HistoryStore interface {
	// Load returns every record in the log at path.
	// Returns nil, nil if the log does not exist yet.
	Load(path string) ([]domain.HistoryRecord, error)

	// Append adds records to the end of the log at path.
	Append(path string, records []domain.HistoryRecord) error
}

// LockStore reads and writes lock artifacts.
type LockStore interface {
	// Read returns the artifact bytes at path.
	// Returns nil, nil if no artifact exists.
	Read(path string) ([]byte, error)

	// WriteAtomic writes data to a temporary file next to path, runs validate on the
	// bytes read back from it, then renames it into place.
	// On any failure the existing artifact is left untouched.
	WriteAtomic(path string, data []byte, validate func([]byte) error) error
}
