package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/observability"
)

func base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: "run-1", Site: "acme"}
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	// 1. Node traffic
	hooks.NodeEnter(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeEnter), NodeID: "agent"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
	hooks.NodeLeave(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeLeave), NodeID: "agent", Duration: time.Second})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("agent")))

	// 2. Tools
	hooks.ToolReturn(ctx, &domain.ToolEvent{EventBase: base(domain.EventToolReturn), ToolName: "scrape_acme"})
	hooks.ToolReturn(ctx, &domain.ToolEvent{EventBase: base(domain.EventToolReturn), ToolName: "scrape_acme", IsError: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("scrape_acme", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("scrape_acme", "error")))

	// 3. Scripts and runs
	hooks.ScriptRun(ctx, &domain.ScriptEvent{EventBase: base(domain.EventScriptRun), ExitCode: 1})
	hooks.ScriptRun(ctx, &domain.ScriptEvent{EventBase: base(domain.EventScriptRun), ExitCode: 0, Accepted: true})
	hooks.RunFinished(ctx, &domain.RunEvent{EventBase: base(domain.EventRunFinished), Outcome: domain.OutcomeAccepted, Attempts: 2})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScriptRuns.WithLabelValues("1", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScriptRuns.WithLabelValues("0", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("acme", "accepted")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().RunFinished(context.Background(), &domain.RunEvent{EventBase: base(domain.EventRunFinished), Outcome: domain.OutcomeDirect})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scout_runs_total{outcome="direct",site="acme"} 1`)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.ScriptRun(context.Background(), &domain.ScriptEvent{EventBase: base(domain.EventScriptRun), Attempt: 3, ExitCode: 1})

	assert.Contains(t, buf.String(), "script run")
	assert.Contains(t, buf.String(), "attempt=3")
}
