package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")
	registry := domain.SiteRegistry{"acme": "https://acme.example/careers"}

	newState := func(id string) *domain.State {
		state, err := domain.NewState(id, "acme", registry, domain.DefaultRequest("acme"))
		require.NoError(t, err)
		return state
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := newState(runID)
		state.RetryCount = 3
		state.RawJobText = "Engineer - https://x/1"
		state.Outcome = domain.OutcomeAccepted
		state.Append(domain.Message{
			Role:      domain.RoleAssistant,
			ToolCalls: []domain.ToolCall{{ID: "c1", Name: "scrape_acme"}},
		})

		err := store.Save(ctx, runID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "acme", loaded.TargetSite)
		assert.Equal(t, 3, loaded.RetryCount)
		assert.Equal(t, domain.OutcomeAccepted, loaded.Outcome)
		assert.Equal(t, state.RawJobText, loaded.RawJobText)
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, "scrape_acme", loaded.Messages[1].ToolCalls[0].Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, newState(runID))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, newState(id1))
		_ = store.Save(ctx, id2, newState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
