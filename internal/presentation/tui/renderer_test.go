package tui_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryMarkdown(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	md := tui.SummaryMarkdown(domain.RunSummary{
		Site:       "acme",
		Outcome:    domain.OutcomeAccepted,
		Steps:      7,
		Retries:    1,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Jobs:       []domain.Job{{Name: "Dev | Ops", URL: "https://acme.test/1"}},
	})

	assert.Contains(t, md, "## acme")
	assert.Contains(t, md, "`accepted`")
	assert.Contains(t, md, "**Took:** 1.5s")
	assert.Contains(t, md, `| 1 | Dev \| Ops | https://acme.test/1 |`)
}

func TestSummaryMarkdown_NoJobs(t *testing.T) {
	md := tui.SummaryMarkdown(domain.RunSummary{Site: "acme", Outcome: domain.OutcomeFailed, Error: "boom"})
	assert.Contains(t, md, "> boom")
	assert.Contains(t, md, "_No jobs found._")
	assert.NotContains(t, md, "Took")
}

func TestSitesMarkdown(t *testing.T) {
	md := tui.SitesMarkdown(domain.SiteRegistry{"b": "https://b.test", "a": "https://a.test"})
	assert.Less(t, strings.Index(md, "| a |"), strings.Index(md, "| b |"))
}

func TestRenderers(t *testing.T) {
	plain := tui.PlainRenderer()
	out, err := plain("# hi")
	require.NoError(t, err)
	assert.Equal(t, "# hi", out)

	r, err := tui.NewRenderer()
	require.NoError(t, err)
	out, err = r("# hi")
	require.NoError(t, err)
	assert.Contains(t, out, "hi")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), `/ __|/ __/ _ \`)

	buf.Reset()
	tui.Status(&buf, "acme", "accepted", true)
	assert.Contains(t, buf.String(), "acme")
	assert.Contains(t, buf.String(), "accepted")
}
