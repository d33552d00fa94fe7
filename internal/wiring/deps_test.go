package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"go.trai.ch/accord/internal/app"
	_ "go.trai.ch/accord/internal/wiring"
)

// TestGraftExecute resolves the whole node graph the way the binary does at startup.
func TestGraftExecute(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}
