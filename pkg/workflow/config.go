// Package workflow wires the job discovery nodes into a graph: the entry agent,
// scraper and page-reading tool nodes, the plan/write/evaluate synthesis loop and
// the filter/format hand-off.
package workflow

import (
	"errors"
	"io"
	"log/slog"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// Role names a model call site, so each can be served by a different model.
type Role string

const (
	RoleAgent     Role = "agent"
	RolePlanner   Role = "planner"
	RoleWriter    Role = "writer"
	RoleEvaluator Role = "evaluator"
	RoleFilter    Role = "filter"
	RoleFormatter Role = "formatter"
)

// Roles lists every role in graph order.
func Roles() []Role {
	return []Role{RoleAgent, RolePlanner, RoleWriter, RoleEvaluator, RoleFilter, RoleFormatter}
}

// Config tunes the workflow behaviour.
type Config struct {
	// MaxRetries is the synthesis ceiling: the loop stops once RetryCount exceeds it.
	MaxRetries int
	// IncludeTopics keeps only postings about these fields. Empty disables filtering criteria.
	IncludeTopics []string
	// ExcludeTopics lists roles to drop even if they look related.
	ExcludeTopics []string
	// ScriptLanguage names the language the code writer must use.
	ScriptLanguage string
	// ScriptLibraries hints which libraries the synthesized script should rely on.
	ScriptLibraries []string
}

// DefaultConfig mirrors the defaults of the original tool.
func DefaultConfig() Config {
	return Config{
		MaxRetries: domain.DefaultMaxRetries,
		IncludeTopics: []string{
			"Machine Learning / AI",
			"Cheminformatics",
			"Computational Assisted Drug Discovery (CADD)",
			"Computational Chemistry",
			"Data Science",
		},
		ExcludeTopics: []string{
			"DevOps",
			"statistician",
			"Software Engineering",
			"Tech Lead",
			"general Post-Doc positions",
			"general scientific associate",
		},
		ScriptLanguage:  "python",
		ScriptLibraries: []string{"requests", "beautifulsoup4"},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.ScriptLanguage == "" {
		c.ScriptLanguage = d.ScriptLanguage
	}
	return c
}

// Deps are the collaborators the nodes call.
type Deps struct {
	// Model serves every role without an entry in Models.
	Model  ports.ModelGateway
	Models map[Role]ports.ModelGateway

	Tools   ports.ToolInvoker
	Sandbox ports.SandboxRunner

	Hooks  domain.LifecycleHooks
	Logger *slog.Logger
}

func (d Deps) validate() error {
	var errs []error
	if d.Model == nil {
		for _, r := range Roles() {
			if d.Models[r] == nil {
				errs = append(errs, errors.New("model gateway for role "+string(r)+" is required"))
			}
		}
	}
	if d.Tools == nil {
		errs = append(errs, errors.New("tool invoker is required"))
	}
	if d.Sandbox == nil {
		errs = append(errs, errors.New("sandbox runner is required"))
	}
	return errors.Join(errs...)
}

func (d Deps) model(r Role) ports.ModelGateway {
	if m := d.Models[r]; m != nil {
		return m
	}
	return d.Model
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
