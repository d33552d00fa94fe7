package domain

import "path/filepath"

const (
	// AccordDirName is the name of the internal workspace directory.
	AccordDirName = ".accord"

	// WorkFileName is the name of the workspace configuration file.
	WorkFileName = "accord.work.yaml"

	// ScopeFileName is the name of a scope's requirement file.
	ScopeFileName = "accord.yaml"

	// LockFileName is the name of the lock artifact.
	LockFileName = "accord.lock"

	// CatalogFileName is the default name of the package catalog.
	CatalogFileName = "catalog.yaml"

	// AdvisoryFileName is the default name of the advisory table.
	AdvisoryFileName = "advisories.yaml"

	// HistoryFileName is the name of the resolution history log.
	HistoryFileName = "history.jsonl"

	// LockFormatVersion is the schema version written into lock artifacts.
	LockFormatVersion = 1

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultHistoryPath returns the default path of the history log relative to root.
// It joins root, .accord and history.jsonl.
func DefaultHistoryPath(root string) string {
	return filepath.Join(root, AccordDirName, HistoryFileName)
}

// DefaultLockPath returns the default lock artifact path relative to root.
func DefaultLockPath(root string) string {
	return filepath.Join(root, LockFileName)
}

// DefaultCatalogPath returns the default catalog path relative to root.
func DefaultCatalogPath(root string) string {
	return filepath.Join(root, AccordDirName, CatalogFileName)
}

// DefaultAdvisoryPath returns the default advisory table path relative to root.
func DefaultAdvisoryPath(root string) string {
	return filepath.Join(root, AccordDirName, AdvisoryFileName)
}
