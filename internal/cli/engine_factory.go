package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/config"
	"github.com/aretw0/scout/pkg/adapters/file"
	httpadapter "github.com/aretw0/scout/pkg/adapters/http"
	"github.com/aretw0/scout/pkg/adapters/llm"
	"github.com/aretw0/scout/pkg/adapters/memory"
	"github.com/aretw0/scout/pkg/adapters/process"
	"github.com/aretw0/scout/pkg/adapters/redis"
	"github.com/aretw0/scout/pkg/adapters/web"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/observability"
	"github.com/aretw0/scout/pkg/persistence/middleware"
	"github.com/aretw0/scout/pkg/ports"
	"github.com/aretw0/scout/pkg/registry"
	"github.com/aretw0/scout/pkg/workflow"
)

// ErrOffline is returned by the placeholder model of an offline engine.
var ErrOffline = errors.New("model not configured: engine built offline")

// BuildOptions tunes createEngine.
type BuildOptions struct {
	Logger *slog.Logger

	// Offline wires a placeholder model so commands that never run a site
	// (graph, sites) work without credentials.
	Offline bool

	// Model replaces every configured backend.
	Model ports.ModelGateway

	// Hooks are merged after the logging and metrics hooks.
	Hooks domain.LifecycleHooks
}

// Assembly is a wired engine plus the resources its commands share.
type Assembly struct {
	Engine  *scout.Engine
	Metrics *observability.Metrics
	Streams *httpadapter.StreamManager

	closers []func() error
}

// Close releases backend connections.
func (a *Assembly) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// createEngine initializes a scout engine with standard CLI conventions.
func createEngine(ctx context.Context, cfg config.Config, opts BuildOptions) (*Assembly, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	asm := &Assembly{
		Metrics: observability.NewMetrics(),
		Streams: httpadapter.NewStreamManager(logger),
	}

	engineOpts := []scout.Option{scout.WithLogger(logger)}

	// 1. Models
	modelOpts, err := createModels(ctx, cfg, opts, logger)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, modelOpts...)

	// 2. Tools: configured scrapers plus the page reader
	tools, err := createTools(cfg, logger)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, scout.WithToolInvoker(tools))

	// 3. Sandbox
	sandboxOpts := []process.SandboxOption{process.WithLogger(logger)}
	if len(cfg.Sandbox.Interpreter) > 0 {
		sandboxOpts = append(sandboxOpts, process.WithInterpreter(cfg.Sandbox.Interpreter[0], cfg.Sandbox.Interpreter[1:]...))
	}
	if cfg.Sandbox.Timeout > 0 {
		sandboxOpts = append(sandboxOpts, process.WithTimeout(cfg.Sandbox.Timeout))
	}
	if cfg.Sandbox.GracePeriod > 0 {
		sandboxOpts = append(sandboxOpts, process.WithGracePeriod(cfg.Sandbox.GracePeriod))
	}
	if len(cfg.Sandbox.Env) > 0 {
		sandboxOpts = append(sandboxOpts, process.WithEnv(cfg.Sandbox.Env...))
	}
	if cfg.Sandbox.InheritEnv {
		sandboxOpts = append(sandboxOpts, process.WithInheritEnv())
	}
	sandbox, err := process.NewSandbox(cfg.Resolve(cfg.Sandbox.ScratchDir), sandboxOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing sandbox: %w", err)
	}
	engineOpts = append(engineOpts, scout.WithSandbox(sandbox))

	// 4. Persistence & locking: redis when configured, local otherwise
	var store ports.RunStore
	if cfg.Redis.Addr != "" {
		storeOpts := []redis.Option{}
		lockPrefix := redis.DefaultLockPrefix
		if cfg.Redis.Prefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(cfg.Redis.Prefix+"run:"))
			lockPrefix = cfg.Redis.Prefix
		}
		if cfg.Redis.TTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(cfg.Redis.TTL))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.RedisPassword(), cfg.Redis.DB, storeOpts...)
		asm.closers = append(asm.closers, rs.Close)
		store = rs
		engineOpts = append(engineOpts, scout.WithLocker(redis.NewLocker(rs.Client(), lockPrefix)))
		logger.Debug("using redis backend", "addr", cfg.Redis.Addr)
	} else {
		store = memory.NewStore()
		if cfg.Runs.Dir != "" && cfg.Runs.Dir != "-" {
			store = file.New(cfg.Resolve(cfg.Runs.Dir))
		}
		engineOpts = append(engineOpts, scout.WithLocker(memory.NewLocker()))
	}
	store, err = protectStore(cfg, store)
	if err != nil {
		_ = asm.Close()
		return nil, err
	}
	engineOpts = append(engineOpts, scout.WithStore(store))

	// 5. Hooks
	hooks := observability.LoggingHooks(logger).
		Merge(asm.Metrics.Hooks()).
		Merge(asm.Streams.Hooks()).
		Merge(opts.Hooks)
	engineOpts = append(engineOpts, scout.WithLifecycleHooks(hooks))

	engine, err := scout.New(cfg.Engine(), engineOpts...)
	if err != nil {
		_ = asm.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	asm.Engine = engine
	return asm, nil
}

// protectStore layers redaction and at-rest encryption over store.
func protectStore(cfg config.Config, store ports.RunStore) (ports.RunStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Runs.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Runs.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, previous, err := cfg.RunKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: previous})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

func createModels(ctx context.Context, cfg config.Config, opts BuildOptions, logger *slog.Logger) ([]scout.Option, error) {
	switch {
	case opts.Model != nil:
		return []scout.Option{scout.WithModelGateway(opts.Model)}, nil
	case opts.Offline:
		return []scout.Option{scout.WithModelGateway(ports.ModelGatewayFunc(
			func(context.Context, []domain.Message, []domain.ToolSpec) (domain.Message, error) {
				return domain.Message{}, ErrOffline
			},
		))}, nil
	}

	gwOpts := []llm.Option{llm.WithLogger(logger), llm.WithTemperature(cfg.Model.Temperature)}
	if cfg.Model.MaxTokens > 0 {
		gwOpts = append(gwOpts, llm.WithMaxTokens(cfg.Model.MaxTokens))
	}
	build := func(role workflow.Role) (ports.ModelGateway, error) {
		mc, err := cfg.ModelConfig(role)
		if err != nil {
			return nil, err
		}
		model, err := llm.NewModel(ctx, mc)
		if err != nil {
			return nil, fmt.Errorf("error initializing model %s/%s: %w", mc.Provider, mc.Model, err)
		}
		return llm.NewGateway(model, gwOpts...), nil
	}

	def, err := build("")
	if err != nil {
		return nil, err
	}
	out := []scout.Option{scout.WithModelGateway(def)}
	for _, role := range workflow.Roles() {
		if _, ok := cfg.Model.Roles[string(role)]; !ok {
			continue
		}
		gw, err := build(role)
		if err != nil {
			return nil, err
		}
		out = append(out, scout.WithRoleModel(role, gw))
	}
	return out, nil
}

func createTools(cfg config.Config, logger *slog.Logger) (*registry.Registry, error) {
	procs, err := process.LoadTools(cfg.Resolve(cfg.Tools))
	if err != nil {
		return nil, err
	}
	reg := registry.NewRegistry()
	caps := process.Tools(procs, process.WithBaseDir(cfg.Resolve(".")))
	caps = append(caps, web.NewSummarizer(web.WithLogger(logger)))
	for _, c := range caps {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("error registering tool: %w", err)
		}
	}
	reg.Seal()
	logger.Debug("tools registered", "tools", reg.Names())
	return reg, nil
}
