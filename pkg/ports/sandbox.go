package ports

import (
	"context"
	"time"
)

// ScriptRun captures one sandboxed execution of a candidate script.
type ScriptRun struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Path     string        `json:"path,omitempty"`
}

// SandboxRunner executes candidate scripts in isolation.
//
// Each runID owns a distinct scratch location; sequential executions within one run
// reuse it. A script that exits non-zero is not an error: it is returned as data for
// the evaluator. Errors are reserved for the runner itself failing (cannot persist or
// start the script).
type SandboxRunner interface {
	Execute(ctx context.Context, runID, script string) (ScriptRun, error)
	Cleanup(runID string) error
}
