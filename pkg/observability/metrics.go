package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/scout/pkg/domain"
)

// Namespace prefixes every metric name.
const Namespace = "scout"

// Metrics holds the collectors fed by LifecycleHooks.
type Metrics struct {
	registry *prometheus.Registry

	NodeVisits   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	ScriptRuns   *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	RunAttempts  prometheus.Histogram
	InFlight     prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry, along with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node visits.",
		}, []string{"node"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node executions.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"node"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool invocations by result.",
		}, []string{"tool", "result"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of tool executions.",
		}, []string{"tool"}),
		ScriptRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "script_runs_total",
			Help:      "Sandbox executions by exit code and verdict.",
		}, []string{"exit_code", "accepted"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Finished runs by site and outcome.",
		}, []string{"site", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"outcome"}),
		RunAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_synthesis_attempts",
			Help:      "Script synthesis attempts per run.",
			Buckets:   prometheus.LinearBuckets(0, 1, 12),
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "nodes_in_flight",
			Help:      "Nodes currently executing.",
		}),
	}

	m.registry.MustRegister(
		m.NodeVisits, m.NodeDuration,
		m.ToolCalls, m.ToolDuration,
		m.ScriptRuns,
		m.Runs, m.RunDuration, m.RunAttempts,
		m.InFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
			m.InFlight.Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.InFlight.Dec()
			m.NodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.ToolCalls.WithLabelValues(e.ToolName, result).Inc()
			m.ToolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnScriptRun: func(_ context.Context, e *domain.ScriptEvent) {
			m.ScriptRuns.WithLabelValues(strconv.Itoa(e.ExitCode), strconv.FormatBool(e.Accepted)).Inc()
		},
		OnRunFinished: func(_ context.Context, e *domain.RunEvent) {
			outcome := string(e.Outcome)
			if outcome == "" {
				outcome = "pending"
			}
			m.Runs.WithLabelValues(e.Site, outcome).Inc()
			m.RunDuration.WithLabelValues(outcome).Observe(e.Duration.Seconds())
			m.RunAttempts.Observe(float64(e.Attempts))
		},
	}
}
