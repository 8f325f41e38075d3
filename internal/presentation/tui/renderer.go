package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer that adapts to the terminal background.
func NewRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// PlainRenderer returns markdown untouched, for pipes and non-TTY output.
func PlainRenderer() Renderer {
	return func(markdown string) (string, error) { return markdown, nil }
}

// SummaryMarkdown formats one run as a heading, a status line and a job table.
func SummaryMarkdown(sum domain.RunSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", sum.Site)

	outcome := string(sum.Outcome)
	if outcome == "" {
		outcome = "pending"
	}
	fmt.Fprintf(&sb, "**Outcome:** `%s` · **Steps:** %d · **Retries:** %d", outcome, sum.Steps, sum.Retries)
	if !sum.FinishedAt.IsZero() && !sum.StartedAt.IsZero() {
		fmt.Fprintf(&sb, " · **Took:** %s", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	}
	sb.WriteString("\n\n")

	if sum.Error != "" {
		fmt.Fprintf(&sb, "> %s\n\n", sum.Error)
	}

	if len(sum.Jobs) == 0 {
		sb.WriteString("_No jobs found._\n")
		return sb.String()
	}
	sb.WriteString("| # | Job | Link |\n|---|-----|------|\n")
	for i, j := range sum.Jobs {
		fmt.Fprintf(&sb, "| %d | %s | %s |\n", i+1, escapeCell(j.Name), escapeCell(j.URL))
	}
	return sb.String()
}

// SitesMarkdown lists the registry as a table.
func SitesMarkdown(sites domain.SiteRegistry) string {
	var sb strings.Builder
	sb.WriteString("| Site | Career page |\n|------|-------------|\n")
	for _, name := range sites.Sites() {
		fmt.Fprintf(&sb, "| %s | %s |\n", escapeCell(name), escapeCell(sites[name]))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
