package ports

import "go.trai.ch/accord/internal/core/domain"

// ConfigLoader defines the interface for loading a workspace and its scopes.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the workspace configuration starting from the given working directory.
	Load(cwd string) (*domain.Workspace, error)

	// DiscoverRoot walks up from cwd to find the workspace root.
	// Returns the directory containing accord.work.yaml or accord.yaml.
	DiscoverRoot(cwd string) (string, error)
}
