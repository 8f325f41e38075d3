package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state, err := domain.NewState("run-1", "acme", domain.SiteRegistry{"acme": "https://acme.io"}, "go")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "run-1", state))

	// Mutating the saved pointer or a loaded copy does not leak into the store.
	state.Append(domain.AssistantMessage("late"))
	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	loaded.Messages[0].Content = "changed"

	again, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, again.Messages, 1)
	assert.Equal(t, "go", again.Messages[0].Content)
}
