package modeltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/scout/pkg/ports"
)

// ScriptedSandbox replays canned script runs and records what it was asked to execute.
// When the script is exhausted the last run repeats.
type ScriptedSandbox struct {
	mu      sync.Mutex
	runs    []ports.ScriptRun
	index   int
	scripts []string
	cleaned []string
	ExecErr error
}

var _ ports.SandboxRunner = (*ScriptedSandbox)(nil)

func NewScriptedSandbox(runs ...ports.ScriptRun) *ScriptedSandbox {
	cloned := make([]ports.ScriptRun, len(runs))
	copy(cloned, runs)
	return &ScriptedSandbox{runs: cloned}
}

// Execute records script and returns the next canned run.
func (s *ScriptedSandbox) Execute(ctx context.Context, runID, script string) (ports.ScriptRun, error) {
	if err := ctx.Err(); err != nil {
		return ports.ScriptRun{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scripts = append(s.scripts, script)
	if s.ExecErr != nil {
		return ports.ScriptRun{}, s.ExecErr
	}
	if len(s.runs) == 0 {
		return ports.ScriptRun{}, fmt.Errorf("no scripted runs")
	}
	i := s.index
	if i >= len(s.runs) {
		i = len(s.runs) - 1
	}
	s.index++
	run := s.runs[i]
	run.Path = "/scratch/" + runID + "/extract.py"
	return run, nil
}

// Cleanup records runID.
func (s *ScriptedSandbox) Cleanup(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleaned = append(s.cleaned, runID)
	return nil
}

// Scripts returns every script executed, in order.
func (s *ScriptedSandbox) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Cleaned returns every run ID passed to Cleanup.
func (s *ScriptedSandbox) Cleaned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cleaned...)
}

// Success is a clean run printing stdout.
func Success(stdout string) ports.ScriptRun {
	return ports.ScriptRun{ExitCode: 0, Stdout: stdout}
}

// Failure is a run exiting with code and stderr.
func Failure(code int, stderr string) ports.ScriptRun {
	return ports.ScriptRun{ExitCode: code, Stderr: stderr}
}
