package domain_test

import (
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSummarize_FinalTurn(t *testing.T) {
	s := domain.State{
		RunID:      "r1",
		TargetSite: "acme",
		Outcome:    domain.OutcomeDirect,
		Messages:   []domain.Message{domain.AssistantMessage(`{"jobs":[{"name":"Engineer","url":"https://acme.test/1"}]}`)},
		RawJobText: "ignored - https://acme.test/raw",
	}
	sum := domain.Summarize(s)
	assert.Equal(t, "acme", sum.Site)
	assert.Equal(t, []domain.Job{{Name: "Engineer", URL: "https://acme.test/1"}}, sum.Jobs)
}

func TestSummarize_FallsBackToRawText(t *testing.T) {
	s := domain.State{
		Outcome:    domain.OutcomeAccepted,
		RetryCount: 2,
		Messages:   []domain.Message{domain.AssistantMessage("Yes")},
		RawJobText: "Engineer - https://acme.test/1\nDesigner - https://acme.test/2",
	}
	sum := domain.Summarize(s)
	assert.Equal(t, 2, sum.Retries)
	assert.Len(t, sum.Jobs, 2)
}

func TestSummarize_FailedRun(t *testing.T) {
	s := domain.State{
		Outcome:    domain.OutcomeFailed,
		Error:      "model unavailable",
		RawJobText: "Engineer - https://acme.test/1",
	}
	sum := domain.Summarize(s)
	assert.Empty(t, sum.Jobs)
	assert.NotNil(t, sum.Jobs)
	assert.Equal(t, "model unavailable", sum.Error)
}
