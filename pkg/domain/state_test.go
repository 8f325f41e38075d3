package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registry = domain.SiteRegistry{"acme": "https://acme.example/careers"}

func TestNewState_SeedsRequest(t *testing.T) {
	state, err := domain.NewState("run-1", "acme", registry, "find jobs")
	require.NoError(t, err)

	assert.Equal(t, "acme", state.TargetSite)
	assert.Equal(t, "https://acme.example/careers", state.CareerPage)
	assert.Equal(t, 0, state.RetryCount)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, domain.RoleHuman, state.Messages[0].Role)
	assert.False(t, state.Terminated())
}

func TestNewState_UnknownSite(t *testing.T) {
	_, err := domain.NewState("run-1", "globex", registry, "find jobs")
	assert.ErrorIs(t, err, domain.ErrUnknownSite)
}

func TestState_CloneIsolatesHistory(t *testing.T) {
	state, err := domain.NewState("run-1", "acme", registry, "find jobs")
	require.NoError(t, err)
	state.Append(domain.Message{
		Role:      domain.RoleAssistant,
		ToolCalls: []domain.ToolCall{{ID: "c1", Name: "scrape", Args: map[string]any{"page": 1}}},
	})

	clone := state.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages[1].ToolCalls[0].Args["page"] = 2
	clone.Append(domain.AssistantMessage("extra"))

	assert.Equal(t, "find jobs", state.Messages[0].Content)
	assert.Equal(t, 1, state.Messages[1].ToolCalls[0].Args["page"])
	assert.Len(t, state.Messages, 2)
	assert.Equal(t, "extra", clone.Last().Content)
}

func TestValidateToolCalls(t *testing.T) {
	specs := []domain.ToolSpec{{Name: "scrapeSiteX"}}

	assert.NoError(t, domain.ValidateToolCalls([]domain.ToolCall{{Name: "scrapeSiteX"}}, specs))
	assert.ErrorIs(t, domain.ValidateToolCalls([]domain.ToolCall{{Name: "rm_rf"}}, specs), domain.ErrMalformedReply)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { calls = append(calls, "a:"+e.NodeID) }}
	b := domain.LifecycleHooks{OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { calls = append(calls, "b:"+e.NodeID) }}

	merged := a.Merge(b)
	merged.NodeEnter(context.Background(), &domain.NodeEvent{NodeID: "agent"})
	merged.NodeLeave(context.Background(), &domain.NodeEvent{NodeID: "agent"})

	assert.Equal(t, []string{"a:agent", "b:agent"}, calls)
}
