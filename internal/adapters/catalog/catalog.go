// Package catalog reads the package catalog and the advisory table from YAML files.
package catalog

import (
	"errors"
	"io/fs"
	"os"
	"slices"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of the package catalog.
//
//	packages:
//	  lib: ["1.0.0", "1.2.0"]
type catalogFile struct {
	Packages map[string][]string `yaml:"packages"`
}

// Loader implements ports.CatalogLoader.
type Loader struct{}

// NewLoader creates a new catalog Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the catalog at path. Version lists are returned sorted and deduplicated as strings;
// the graph builder parses them.
func (l *Loader) Load(path string) (domain.Catalog, error) {
	//nolint:gosec // Path comes from the workspace configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrCatalogReadFailed, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCatalogReadFailed.Error()), "path", path)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCatalogReadFailed.Error()), "path", path)
	}

	out := make(domain.Catalog, len(file.Packages))
	for name, versions := range file.Packages {
		vs := slices.Clone(versions)
		slices.Sort(vs)
		out[name] = slices.Compact(vs)
	}
	return out, nil
}
