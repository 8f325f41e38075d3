// Package routers holds the pure classification functions that pick the successor
// of the entry, planning and evaluation nodes. They read only the latest turn and
// the retry counter, and match classification tokens exactly.
package routers

import (
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/graph"
)

// Node names of the job discovery workflow.
const (
	NodeAgent       = "agent"
	NodeJobTools    = "jobTools"
	NodeCodePlanner = "codePlanner"
	NodeWebTools    = "webTools"
	NodeCodeWriter  = "codeWriter"
	NodeCodeEval    = "codeEval"
	NodeFilterer    = "filterer"
	NodeFormatter   = "formatter"
)

// Entry routes the agent reply: a tool call goes to the job tools, the literal
// "No" goes to the code planner, anything else is a direct answer for the filterer.
func Entry(state domain.State) string {
	last := state.Last()
	switch {
	case last.HasToolCalls():
		return NodeJobTools
	case last.Content == domain.TokenNoTool:
		return NodeCodePlanner
	default:
		return NodeFilterer
	}
}

// Planning routes the planner reply: a tool call goes to the web tools, anything
// else hands the plan to the code writer.
func Planning(state domain.State) string {
	if state.Last().HasToolCalls() {
		return NodeWebTools
	}
	return NodeCodeWriter
}

// Evaluation returns the evaluation router for a retry ceiling. The run terminates
// when the latest reply is exactly "Yes" or when RetryCount exceeds maxRetries;
// otherwise control returns to the code writer.
func Evaluation(maxRetries int) graph.Router {
	return func(state domain.State) string {
		if state.Last().Content == domain.TokenAccept || state.RetryCount > maxRetries {
			return graph.Terminal
		}
		return NodeCodeWriter
	}
}

// EvaluationRouter is Evaluation with the default ceiling of 10 retries.
var EvaluationRouter = Evaluation(domain.DefaultMaxRetries)
