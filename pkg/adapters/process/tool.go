package process

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// ArgEnvPrefix prefixes the environment variables carrying tool arguments.
const ArgEnvPrefix = "SCOUT_ARG_"

// Tool exposes an allow-listed external command (typically a site scraper) as a capability.
//
// Arguments are never appended to the command line. They are passed as
// SCOUT_ARG_<KEY> environment variables, which rules out flag injection.
type Tool struct {
	cfg     ToolConfig
	baseDir string
	limit   int
}

var _ ports.Capability = (*Tool)(nil)

// ToolOption configures a process tool.
type ToolOption func(*Tool)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) ToolOption {
	return func(t *Tool) {
		t.baseDir = dir
	}
}

// WithToolOutputLimit caps the bytes captured per stream.
func WithToolOutputLimit(n int) ToolOption {
	return func(t *Tool) {
		t.limit = n
	}
}

// NewTool wraps cfg as a capability.
func NewTool(cfg ToolConfig, opts ...ToolOption) *Tool {
	t := &Tool{cfg: cfg, limit: DefaultOutputLimit}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tools wraps every config, sorted by name.
func Tools(cfgs map[string]ToolConfig, opts ...ToolOption) []ports.Capability {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ports.Capability, 0, len(names))
	for _, name := range names {
		out = append(out, NewTool(cfgs[name], opts...))
	}
	return out
}

// Spec declares the tool. Without explicit parameters it takes none.
func (t *Tool) Spec() domain.ToolSpec {
	group := t.cfg.Group
	if group == "" {
		group = domain.ToolGroupJobs
	}
	params := t.cfg.Parameters
	if params == nil {
		params = domain.EmptyParameters()
	}
	desc := t.cfg.Description
	if desc == "" {
		desc = fmt.Sprintf("Runs the %s scraper and returns its output.", t.cfg.Name)
	}
	return domain.ToolSpec{
		Name:        t.cfg.Name,
		Description: desc,
		Parameters:  params,
		Group:       group,
	}
}

// Invoke runs the command and returns its trimmed stdout.
// A non-zero exit is an error carrying stderr.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	cmd := exec.CommandContext(ctx, t.cfg.Command, t.cfg.Args...)
	cmd.Dir = t.baseDir

	env := cmd.Environ()
	for k, v := range t.cfg.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, argsEnv(args)...)
	cmd.Env = env

	stdout := newCappedBuffer(t.limit)
	stderr := newCappedBuffer(t.limit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// argsEnv serializes arguments: primitives verbatim, maps and slices as JSON.
func argsEnv(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		var val string
		switch v := args[k].(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if raw, err := json.Marshal(v); err == nil {
				val = string(raw)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("%s%s=%s", ArgEnvPrefix, envKey(k), val))
	}
	return env
}

func envKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, k)
}
