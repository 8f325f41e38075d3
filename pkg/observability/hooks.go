package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/scout/pkg/domain"
)

// LoggingHooks returns hooks that write one structured line per event.
// Node transitions and tool traffic log at debug; script verdicts and run
// outcomes at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node entered", "run_id", e.RunID, "node", e.NodeID, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node failed", "run_id", e.RunID, "node", e.NodeID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "node left", "run_id", e.RunID, "node", e.NodeID, "duration", e.Duration)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool call", "run_id", e.RunID, "node", e.NodeID, "tool", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool return", "run_id", e.RunID, "tool", e.ToolName, "is_error", e.IsError, "duration", e.Duration)
		},
		OnScriptRun: func(ctx context.Context, e *domain.ScriptEvent) {
			logger.InfoContext(ctx, "script run", "run_id", e.RunID, "site", e.Site, "attempt", e.Attempt, "exit_code", e.ExitCode, "accepted", e.Accepted)
		},
		OnRunFinished: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run finished", "run_id", e.RunID, "site", e.Site, "outcome", e.Outcome, "steps", e.Steps, "attempts", e.Attempts, "duration", e.Duration)
		},
	}
}
