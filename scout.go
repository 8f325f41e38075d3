package scout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/graph"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/aretw0/scout/pkg/workflow"
)

// DefaultLockTTL bounds how long a site lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Minute

// Config holds everything a run needs besides its collaborators.
type Config struct {
	// Sites maps site identifiers to career-page URLs. Required.
	Sites domain.SiteRegistry

	// Workflow tunes prompts and the retry ceiling.
	Workflow workflow.Config

	// MaxSteps bounds node executions per run. Zero uses graph.DefaultMaxSteps.
	MaxSteps int

	// LockTTL is the lifetime of a per-site lock. Zero uses DefaultLockTTL.
	LockTTL time.Duration

	// LockWait bounds how long a run waits for a busy site before failing with
	// domain.ErrSiteLocked. Zero waits as long as the run context allows.
	LockWait time.Duration

	// Concurrency bounds parallel runs in RunAll. Zero or less means one run per site.
	Concurrency int

	// KeepScratch leaves each run's scratch directory in place for inspection.
	KeepScratch bool
}

// Validate reports missing required fields.
func (c Config) Validate() error {
	if len(c.Sites) == 0 {
		return errors.New("at least one site is required")
	}
	for site, url := range c.Sites {
		if url == "" {
			return fmt.Errorf("site %s: career page url is required", site)
		}
	}
	return nil
}

// Engine is the high-level entry point: it owns the compiled workflow graph and
// the collaborators shared by every run.
type Engine struct {
	cfg     Config
	graph   *graph.Graph
	model   ports.ModelGateway
	models  map[workflow.Role]ports.ModelGateway
	tools   ports.ToolInvoker
	sandbox ports.SandboxRunner
	store   ports.RunStore
	locker  ports.Locker
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithModelGateway sets the model serving every role without a dedicated one.
func WithModelGateway(gw ports.ModelGateway) Option {
	return func(e *Engine) {
		e.model = gw
	}
}

// WithRoleModel routes one role (planner, writer, evaluator...) to a dedicated model.
func WithRoleModel(role workflow.Role, gw ports.ModelGateway) Option {
	return func(e *Engine) {
		if e.models == nil {
			e.models = make(map[workflow.Role]ports.ModelGateway)
		}
		e.models[role] = gw
	}
}

// WithToolInvoker sets the scraper and page-reader registry.
func WithToolInvoker(tools ports.ToolInvoker) Option {
	return func(e *Engine) {
		e.tools = tools
	}
}

// WithSandbox sets the script runner.
func WithSandbox(sb ports.SandboxRunner) Option {
	return func(e *Engine) {
		e.sandbox = sb
	}
}

// WithStore persists every finished run.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes runs of the same site.
func WithLocker(l ports.Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps overrides Config.MaxSteps.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.cfg.MaxSteps = n
	}
}

// New validates cfg and compiles the workflow graph.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	eng := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized so nothing downstream receives nil.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.cfg.LockTTL <= 0 {
		eng.cfg.LockTTL = DefaultLockTTL
	}

	g, err := workflow.Build(workflow.Deps{
		Model:   eng.model,
		Models:  eng.models,
		Tools:   eng.tools,
		Sandbox: eng.sandbox,
		Hooks:   eng.hooks,
		Logger:  eng.logger,
	}, cfg.Workflow, graph.WithMaxSteps(eng.cfg.MaxSteps))
	if err != nil {
		return nil, fmt.Errorf("build workflow: %w", err)
	}
	eng.graph = g
	return eng, nil
}

// Run scouts one site to termination.
//
// The final state is returned even when the run fails, with Outcome set to
// domain.OutcomeFailed and Error describing the fault. Unknown sites fail before
// any collaborator is called.
func (e *Engine) Run(ctx context.Context, site string) (*domain.State, error) {
	return e.RunRequest(ctx, site, domain.DefaultRequest(site))
}

// RunRequest is Run with a custom initial human request.
func (e *Engine) RunRequest(ctx context.Context, site, request string) (*domain.State, error) {
	runID := uuid.NewString()
	initial, err := domain.NewState(runID, site, e.cfg.Sites, request)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With("run_id", runID, "site", site)

	if e.locker != nil {
		unlock, err := e.lock(ctx, site)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release site lock", "err", err)
			}
		}()
	}

	logger.Info("run started", "career_page", initial.CareerPage)
	final, runErr := e.graph.Run(ctx, *initial)
	if runErr != nil {
		final.Outcome = domain.OutcomeFailed
		final.Error = runErr.Error()
	}

	e.finish(ctx, logger, &final, runErr)
	return &final, runErr
}

func (e *Engine) lock(ctx context.Context, site string) (ports.UnlockFunc, error) {
	lockCtx := ctx
	if e.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, e.cfg.LockWait)
		defer cancel()
	}
	unlock, err := e.locker.Lock(lockCtx, "site:"+site, e.cfg.LockTTL)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSiteLocked, site)
		}
		return nil, fmt.Errorf("lock site %s: %w", site, err)
	}
	return unlock, nil
}

func (e *Engine) finish(ctx context.Context, logger *slog.Logger, final *domain.State, runErr error) {
	end := final.FinishedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	duration := end.Sub(final.StartedAt)

	e.hooks.RunFinished(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunFinished, RunID: final.RunID, Site: final.TargetSite},
		Outcome:   final.Outcome,
		Steps:     final.Steps,
		Attempts:  final.RetryCount,
		Duration:  duration,
		Err:       runErr,
	})

	// Hand-off and cleanup happen even when the run context was canceled.
	bg := context.WithoutCancel(ctx)
	if e.store != nil {
		if err := e.store.Save(bg, final.RunID, final); err != nil {
			logger.Error("failed to save run", "err", err)
		}
	}
	if !e.cfg.KeepScratch {
		if err := e.sandbox.Cleanup(final.RunID); err != nil {
			logger.Warn("failed to clean scratch directory", "err", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "err", runErr, "steps", final.Steps, "attempts", final.RetryCount)
		return
	}
	logger.Info("run finished",
		"outcome", final.Outcome,
		"steps", final.Steps,
		"attempts", final.RetryCount,
		"duration", duration,
	)
}

// Sites returns the configured site identifiers, sorted.
func (e *Engine) Sites() []string {
	return e.cfg.Sites.Sites()
}

// CareerPage returns the registered URL of site.
func (e *Engine) CareerPage(site string) (string, error) {
	return e.cfg.Sites.Lookup(site)
}

// Graph exposes the compiled workflow for visualisation.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Store returns the configured run store, or nil.
func (e *Engine) Store() ports.RunStore {
	return e.store
}
