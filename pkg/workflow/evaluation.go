package workflow

import (
	"fmt"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// Verdict is the deterministic judgement of a script run.
type Verdict struct {
	// Pass reports that the run goes on to the evaluator model.
	Pass bool
	// Jobs counts the postings recognised locally.
	Jobs int
	// Reason explains a failure. On a passing run it carries a doubt about
	// the output shape for the model to weigh.
	Reason string
}

// Evaluate checks a script run before any model is consulted. A timeout, a
// non-zero exit, any stderr output or an empty stdout fail here and never reach
// the model. Whether stdout is a job list stays the model's call: output that
// reads neither as a JSON job list nor as "title + link" lines still passes,
// with the doubt noted in Reason.
func Evaluate(run ports.ScriptRun) Verdict {
	if run.TimedOut {
		return Verdict{Reason: "the script did not finish before the timeout: " + strings.TrimSpace(run.Stderr)}
	}
	if run.ExitCode != 0 {
		return Verdict{Reason: fmt.Sprintf("the script exited with status %d: %s", run.ExitCode, strings.TrimSpace(run.Stderr))}
	}
	if strings.TrimSpace(run.Stderr) != "" {
		return Verdict{Reason: "the script wrote to stderr: " + strings.TrimSpace(run.Stderr)}
	}
	if strings.TrimSpace(run.Stdout) == "" {
		return Verdict{Reason: "the script printed nothing: it must list every job title with its application link"}
	}
	jobs, err := domain.ParseJobs(run.Stdout)
	if err != nil {
		return Verdict{Pass: true, Reason: "no job title followed by its application link was recognised on a single line"}
	}
	return Verdict{Pass: true, Jobs: len(jobs)}
}
