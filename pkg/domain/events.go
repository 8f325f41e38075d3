package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventToolCall    EventType = "tool_call"
	EventToolReturn  EventType = "tool_return"
	EventScriptRun   EventType = "script_run"
	EventRunFinished EventType = "run_finished"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Site      string    `json:"site"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	ToolName string        `json:"tool_name"`
	Input    any           `json:"input,omitempty"`
	Output   string        `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// ScriptEvent represents one sandbox execution of a candidate script.
type ScriptEvent struct {
	EventBase
	Attempt  int           `json:"attempt"`
	ExitCode int           `json:"exit_code"`
	Accepted bool          `json:"accepted"`
	Duration time.Duration `json:"duration"`
}

// RunEvent is emitted once per run when it terminates or aborts.
type RunEvent struct {
	EventBase
	Outcome  Outcome       `json:"outcome"`
	Steps    int           `json:"steps"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnToolCall    func(context.Context, *ToolEvent)
	OnToolReturn  func(context.Context, *ToolEvent)
	OnScriptRun   func(context.Context, *ScriptEvent)
	OnRunFinished func(context.Context, *RunEvent)
}

// NodeEnter fires OnNodeEnter when set.
func (h LifecycleHooks) NodeEnter(ctx context.Context, e *NodeEvent) {
	if h.OnNodeEnter != nil {
		h.OnNodeEnter(ctx, e)
	}
}

// NodeLeave fires OnNodeLeave when set.
func (h LifecycleHooks) NodeLeave(ctx context.Context, e *NodeEvent) {
	if h.OnNodeLeave != nil {
		h.OnNodeLeave(ctx, e)
	}
}

// ToolCall fires OnToolCall when set.
func (h LifecycleHooks) ToolCall(ctx context.Context, e *ToolEvent) {
	if h.OnToolCall != nil {
		h.OnToolCall(ctx, e)
	}
}

// ToolReturn fires OnToolReturn when set.
func (h LifecycleHooks) ToolReturn(ctx context.Context, e *ToolEvent) {
	if h.OnToolReturn != nil {
		h.OnToolReturn(ctx, e)
	}
}

// ScriptRun fires OnScriptRun when set.
func (h LifecycleHooks) ScriptRun(ctx context.Context, e *ScriptEvent) {
	if h.OnScriptRun != nil {
		h.OnScriptRun(ctx, e)
	}
}

// RunFinished fires OnRunFinished when set.
func (h LifecycleHooks) RunFinished(ctx context.Context, e *RunEvent) {
	if h.OnRunFinished != nil {
		h.OnRunFinished(ctx, e)
	}
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:   chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:   chain(h.OnNodeLeave, other.OnNodeLeave),
		OnToolCall:    chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn:  chain(h.OnToolReturn, other.OnToolReturn),
		OnScriptRun:   chain(h.OnScriptRun, other.OnScriptRun),
		OnRunFinished: chain(h.OnRunFinished, other.OnRunFinished),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
