package middleware_test

import (
	"context"
	"sort"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.State
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.State),
	}
}

func (s *MockStore) Save(ctx context.Context, runID string, state *domain.State) error {
	s.data[runID] = state
	return nil
}

func (s *MockStore) Load(ctx context.Context, runID string) (*domain.State, error) {
	state, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return state, nil
}

func (s *MockStore) Delete(ctx context.Context, runID string) error {
	delete(s.data, runID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ ports.RunStore = (*MockStore)(nil)

func sampleState(runID string) *domain.State {
	return &domain.State{
		RunID:      runID,
		TargetSite: "acme",
		CareerPage: "https://acme.test/careers",
		Messages: []domain.Message{
			domain.HumanMessage("get the jobs"),
			{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{
				ID: "c1", Name: "scrape_acme",
				Args: map[string]any{"token": "sk-abc123", "opts": map[string]any{"auth": "sk-def456"}},
			}}},
			domain.AssistantMessage("Engineer - https://acme.test/jobs/1?key=sk-zzz999"),
		},
		RawJobText: "Engineer - https://acme.test/jobs/1?key=sk-zzz999",
		Outcome:    domain.OutcomeDirect,
		Steps:      3,
	}
}
