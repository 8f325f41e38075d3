package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks matches of patterns in the persisted transcript,
// script and raw listing. The live state is left untouched.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, runID string, state *domain.State) error {
	cloned := state.Clone()
	for i := range cloned.Messages {
		msg := &cloned.Messages[i]
		msg.Content = m.mask(msg.Content)
		for j := range msg.ToolCalls {
			m.maskMap(msg.ToolCalls[j].Args)
		}
	}
	cloned.PendingQuestion = m.mask(cloned.PendingQuestion)
	cloned.CandidateScript = m.mask(cloned.CandidateScript)
	cloned.RawJobText = m.mask(cloned.RawJobText)
	cloned.Error = m.mask(cloned.Error)

	return m.next.Save(ctx, runID, &cloned)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

// maskMap masks string values in place, recursing into nested maps.
func (m *redactMiddleware) maskMap(args map[string]any) {
	for k, v := range args {
		switch val := v.(type) {
		case string:
			args[k] = m.mask(val)
		case map[string]any:
			m.maskMap(val)
		}
	}
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.State, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
