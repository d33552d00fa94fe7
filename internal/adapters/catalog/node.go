package catalog

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/accord/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the catalog loader Graft node.
	NodeID graft.ID = "adapter.catalog_loader"
	// AdvisoryNodeID is the unique identifier for the advisory loader Graft node.
	AdvisoryNodeID graft.ID = "adapter.advisory_loader"
)

func init() {
	graft.Register(graft.Node[ports.CatalogLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CatalogLoader, error) {
			return NewLoader(), nil
		},
	})

	graft.Register(graft.Node[ports.AdvisoryLoader]{
		ID:        AdvisoryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.AdvisoryLoader, error) {
			return NewAdvisoryLoader(), nil
		},
	})
}
