package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/accord/internal/core/ports"
)

const (
	// HistoryNodeID is the unique identifier for the history store Graft node.
	HistoryNodeID graft.ID = "adapter.history_store"
	// LockNodeID is the unique identifier for the lock store Graft node.
	LockNodeID graft.ID = "adapter.lock_store"
)

func init() {
	graft.Register(graft.Node[ports.HistoryStore]{
		ID:        HistoryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.HistoryStore, error) {
			return NewHistoryStore(), nil
		},
	})

	graft.Register(graft.Node[ports.LockStore]{
		ID:        LockNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockStore, error) {
			return NewLockStore(), nil
		},
	})
}
