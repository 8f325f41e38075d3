package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aretw0/scout/pkg/ports"
)

const (
	// DefaultInterpreter runs the synthesized extraction scripts.
	DefaultInterpreter = "python3"
	// DefaultScriptName is the file each run's script is written to.
	DefaultScriptName = "extract.py"
	// DefaultTimeout bounds one script execution.
	DefaultTimeout = 2 * time.Minute
	// DefaultGracePeriod is how long a script may take to exit after an interrupt.
	DefaultGracePeriod = 5 * time.Second
)

// passthroughEnv lists the parent variables a script sees. Everything else,
// credentials included, stays out unless WithInheritEnv is set.
var passthroughEnv = []string{"PATH", "HOME", "LANG", "LC_ALL", "TMPDIR", "SYSTEMROOT", "TEMP", "TMP"}

// Sandbox implements ports.SandboxRunner by writing scripts to a per-run scratch
// directory and executing them as subprocesses.
//
// Layout: <scratchDir>/<runID>/<scriptName>. Distinct runs never share a path;
// attempts within one run overwrite the same file.
type Sandbox struct {
	scratchDir  string
	interpreter string
	interpArgs  []string
	scriptName  string
	timeout     time.Duration
	grace       time.Duration
	outputLimit int
	env         []string
	inheritEnv  bool
	logger      *slog.Logger
}

var _ ports.SandboxRunner = (*Sandbox)(nil)

// SandboxOption configures the sandbox.
type SandboxOption func(*Sandbox)

// WithInterpreter sets the command used to run scripts, with optional leading args
// (e.g. "uv", "run").
func WithInterpreter(command string, args ...string) SandboxOption {
	return func(s *Sandbox) {
		if command != "" {
			s.interpreter = command
			s.interpArgs = args
		}
	}
}

// WithScriptName sets the file name scripts are written to.
func WithScriptName(name string) SandboxOption {
	return func(s *Sandbox) {
		if name != "" {
			s.scriptName = name
		}
	}
}

// WithTimeout bounds each execution. Zero keeps the default.
func WithTimeout(d time.Duration) SandboxOption {
	return func(s *Sandbox) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithGracePeriod sets how long an interrupted script may take to exit before it is killed.
func WithGracePeriod(d time.Duration) SandboxOption {
	return func(s *Sandbox) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithOutputLimit caps the bytes captured per stream.
func WithOutputLimit(n int) SandboxOption {
	return func(s *Sandbox) {
		s.outputLimit = n
	}
}

// WithEnv adds KEY=VALUE pairs to the script environment.
func WithEnv(env ...string) SandboxOption {
	return func(s *Sandbox) {
		s.env = append(s.env, env...)
	}
}

// WithInheritEnv hands scripts the whole parent environment.
func WithInheritEnv() SandboxOption {
	return func(s *Sandbox) {
		s.inheritEnv = true
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) SandboxOption {
	return func(s *Sandbox) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSandbox creates a sandbox rooted at scratchDir.
func NewSandbox(scratchDir string, opts ...SandboxOption) (*Sandbox, error) {
	if scratchDir == "" {
		return nil, errors.New("sandbox: scratch directory is required")
	}
	abs, err := filepath.Abs(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("sandbox: invalid scratch directory: %w", err)
	}
	s := &Sandbox{
		scratchDir:  abs,
		interpreter: DefaultInterpreter,
		scriptName:  DefaultScriptName,
		timeout:     DefaultTimeout,
		grace:       DefaultGracePeriod,
		outputLimit: DefaultOutputLimit,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ScriptPath returns where the script of runID is written.
func (s *Sandbox) ScriptPath(runID string) (string, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.scriptName), nil
}

func (s *Sandbox) runDir(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("sandbox: invalid run id %q", runID)
	}
	return filepath.Join(s.scratchDir, runID), nil
}

// Execute persists script and runs it with the configured interpreter.
// A non-zero exit or a timeout is reported in the ScriptRun, not as an error.
// Cancellation of ctx itself aborts with ctx.Err().
func (s *Sandbox) Execute(ctx context.Context, runID, script string) (ports.ScriptRun, error) {
	path, err := s.ScriptPath(runID)
	if err != nil {
		return ports.ScriptRun{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ports.ScriptRun{}, fmt.Errorf("sandbox: create scratch dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return ports.ScriptRun{}, fmt.Errorf("sandbox: write script: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string(nil), s.interpArgs...), path)
	cmd := exec.CommandContext(runCtx, s.interpreter, args...)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = s.environ()
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = s.grace

	stdout := newCappedBuffer(s.outputLimit)
	stderr := newCappedBuffer(s.outputLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	run := ports.ScriptRun{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		Path:     path,
	}

	if ctx.Err() != nil {
		return run, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		run.ExitCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		run.TimedOut = true
		run.ExitCode = -1
		if run.Stderr != "" && !strings.HasSuffix(run.Stderr, "\n") {
			run.Stderr += "\n"
		}
		run.Stderr += fmt.Sprintf("sandbox: script exceeded timeout of %s and was stopped", s.timeout)
	case errors.As(runErr, &exitErr):
		run.ExitCode = exitErr.ExitCode()
	default:
		return run, fmt.Errorf("sandbox: start %s: %w", s.interpreter, runErr)
	}

	s.logger.Debug("script executed",
		"run_id", runID,
		"exit_code", run.ExitCode,
		"timed_out", run.TimedOut,
		"duration", run.Duration,
	)
	return run, nil
}

func (s *Sandbox) environ() []string {
	if s.inheritEnv {
		return append(os.Environ(), s.env...)
	}
	env := make([]string, 0, len(passthroughEnv)+len(s.env))
	for _, key := range passthroughEnv {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+v)
		}
	}
	return append(env, s.env...)
}

// Cleanup removes the scratch directory of runID.
func (s *Sandbox) Cleanup(runID string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return p.Kill()
	}
	return p.Signal(os.Interrupt)
}
