// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/accord/internal/core/domain"

//go:generate mockgen -source=catalog.go -destination=mocks/mock_catalog.go -package=mocks

// Catalog provides the published versions of packages.
type Catalog interface {
	// Versions returns the published versions of name.
	// The second result is false when the package is unknown.
	Versions(name string) ([]string, bool)
}

// CatalogLoader reads a package catalog from durable storage.
type CatalogLoader interface {
	// Load reads the catalog at path.
	Load(path string) (domain.Catalog, error)
}

// AdvisoryLoader reads the vulnerability and license lookup table.
type AdvisoryLoader interface {
	// Load reads the advisory table at path.
	// A missing file yields an empty table.
	Load(path string) (*domain.Advisories, error)
}
