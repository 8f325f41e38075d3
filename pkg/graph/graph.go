package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/scout/pkg/domain"
)

// Terminal is the distinguished successor that ends a traversal.
const Terminal = "__end__"

// DefaultMaxSteps bounds node executions per run.
const DefaultMaxSteps = 64

// Action transforms the run state. It owns the state it receives.
type Action func(ctx context.Context, state domain.State) (domain.State, error)

// Router selects the successor of a node from the state. Routers must be pure.
type Router func(state domain.State) string

type edge struct {
	to      string
	router  Router
	targets []string
}

// Graph is the workflow executor.
// It is built once and may then run any number of states concurrently.
type Graph struct {
	nodes    map[string]Action
	order    []string
	edges    map[string]edge
	entry    string
	maxSteps int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	errs     []error
}

// Option configures the Graph.
type Option func(*Graph)

// WithMaxSteps sets the hard ceiling on node executions per run.
func WithMaxSteps(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxSteps = n
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks fired around every node.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Graph) {
		g.hooks = hooks
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:    make(map[string]Action),
		edges:    make(map[string]edge),
		maxSteps: DefaultMaxSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode associates a name with an action.
// Wiring mistakes are collected and reported by Validate.
func (g *Graph) AddNode(name string, action Action) {
	switch {
	case name == "" || name == Terminal:
		g.errs = append(g.errs, fmt.Errorf("invalid node name %q", name))
		return
	case action == nil:
		g.errs = append(g.errs, fmt.Errorf("node %s: nil action", name))
		return
	}
	if _, exists := g.nodes[name]; exists {
		g.errs = append(g.errs, fmt.Errorf("node %s registered twice", name))
		return
	}
	g.nodes[name] = action
	g.order = append(g.order, name)
}

// SetEntryPoint selects the node a run starts at.
func (g *Graph) SetEntryPoint(name string) {
	g.entry = name
}

// AddEdge registers an unconditional transition.
func (g *Graph) AddEdge(from, to string) {
	g.addEdge(from, edge{to: to, targets: []string{to}})
}

// AddConditionalEdge registers a router as the outgoing edge of from.
// targets lists the successors the router may return; they are checked by Validate
// and used for visualisation. The router result is always resolved at run time.
func (g *Graph) AddConditionalEdge(from string, router Router, targets ...string) {
	if router == nil {
		g.errs = append(g.errs, fmt.Errorf("node %s: nil router", from))
		return
	}
	g.addEdge(from, edge{router: router, targets: targets})
}

func (g *Graph) addEdge(from string, e edge) {
	if _, exists := g.edges[from]; exists {
		g.errs = append(g.errs, fmt.Errorf("node %s has more than one outgoing edge", from))
		return
	}
	g.edges[from] = e
}

// MaxSteps reports the ceiling on node executions per run.
func (g *Graph) MaxSteps() int {
	return g.maxSteps
}

// Validate reports wiring errors: bad registrations, a missing entry point, edges
// from or to unregistered nodes, nodes without an outgoing edge and nodes the
// entry point can never reach.
func (g *Graph) Validate() error {
	errs := append([]error(nil), g.errs...)

	if g.entry == "" {
		errs = append(errs, errors.New("entry point not set"))
	} else if _, ok := g.nodes[g.entry]; !ok {
		errs = append(errs, fmt.Errorf("entry point %s: %w", g.entry, domain.ErrUnreachableNode))
	}

	for _, name := range g.order {
		if _, ok := g.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("node %s has no outgoing edge", name))
		}
	}
	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("edge from %s: %w", from, domain.ErrUnreachableNode))
		}
		for _, to := range e.targets {
			if to == Terminal {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				errs = append(errs, fmt.Errorf("edge %s -> %s: %w", from, to, domain.ErrUnreachableNode))
			}
		}
	}
	if _, ok := g.nodes[g.entry]; ok {
		visited := g.reachable()
		for _, name := range g.order {
			if !visited[name] {
				errs = append(errs, fmt.Errorf("node %s is not reachable from %s", name, g.entry))
			}
		}
	}
	return errors.Join(errs...)
}

// reachable crawls the edges breadth-first from the entry point.
func (g *Graph) reachable() map[string]bool {
	visited := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		e, ok := g.edges[current]
		if !ok {
			continue
		}
		for _, to := range e.targets {
			if to == Terminal || visited[to] {
				continue
			}
			visited[to] = true
			queue = append(queue, to)
		}
	}
	return visited
}

// Run drives state through the graph from the entry point until Terminal.
//
// The returned state is the last consistent state: on error it is the state the
// failing node received (or the state a failing routing decision inspected), so
// callers can still hand off best-effort results. A node error aborts the run and is wrapped with the
// node name.
func (g *Graph) Run(ctx context.Context, initial domain.State) (domain.State, error) {
	if err := g.Validate(); err != nil {
		return initial, fmt.Errorf("invalid graph: %w", err)
	}

	state := initial.Clone()
	current := g.entry

	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if steps >= g.maxSteps {
			return state, fmt.Errorf("%w: %d steps without reaching terminal (at %s)", domain.ErrStepLimitExceeded, g.maxSteps, current)
		}

		action, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", domain.ErrUnreachableNode, current)
		}

		state.CurrentNode = current
		state.History = append(state.History, current)
		state.Steps++

		next, err := g.execute(ctx, current, action, state)
		if err != nil {
			return state, err
		}
		state = next

		target, err := g.successor(current, state)
		if err != nil {
			return state, err
		}
		g.logger.Debug("transition", "run_id", state.RunID, "from", current, "to", target, "step", state.Steps)

		if target == Terminal {
			state.FinishedAt = time.Now().UTC()
			return state, nil
		}
		current = target
	}
}

func (g *Graph) execute(ctx context.Context, name string, action Action, state domain.State) (domain.State, error) {
	base := domain.EventBase{RunID: state.RunID, Site: state.TargetSite}

	enter := &domain.NodeEvent{EventBase: base, NodeID: name, Step: state.Steps}
	enter.Timestamp, enter.Type = time.Now(), domain.EventNodeEnter
	g.hooks.NodeEnter(ctx, enter)
	g.logger.Debug("node enter", "run_id", state.RunID, "node", name, "step", state.Steps)

	start := time.Now()
	next, err := action(ctx, state.Clone())

	leave := &domain.NodeEvent{EventBase: base, NodeID: name, Step: state.Steps, Duration: time.Since(start), Err: err}
	leave.Timestamp, leave.Type = time.Now(), domain.EventNodeLeave
	g.hooks.NodeLeave(ctx, leave)

	if err != nil {
		g.logger.Debug("node failed", "run_id", state.RunID, "node", name, "err", err)
		return state, fmt.Errorf("node %s: %w", name, err)
	}
	if err := appendOnly(state.Messages, next.Messages); err != nil {
		return state, fmt.Errorf("node %s: %w", name, err)
	}

	// Executor bookkeeping is not node-owned.
	next.RunID = state.RunID
	next.TargetSite = state.TargetSite
	next.CurrentNode = state.CurrentNode
	next.History = state.History
	next.Steps = state.Steps
	next.StartedAt = state.StartedAt
	next.Registry = state.Registry
	return next, nil
}

func (g *Graph) successor(from string, state domain.State) (string, error) {
	e, ok := g.edges[from]
	if !ok {
		return "", fmt.Errorf("%w: no edge out of %s", domain.ErrUnreachableNode, from)
	}
	target := e.to
	if e.router != nil {
		target = e.router(state)
	}
	if target == Terminal {
		return target, nil
	}
	if _, ok := g.nodes[target]; !ok {
		return "", fmt.Errorf("%w: %s (routed from %s)", domain.ErrUnreachableNode, target, from)
	}
	return target, nil
}

func appendOnly(before, after []domain.Message) error {
	if len(after) < len(before) {
		return fmt.Errorf("%w: %d messages before, %d after", domain.ErrHistoryRewritten, len(before), len(after))
	}
	for i := range before {
		if !domain.EqualMessages(before[i], after[i]) {
			return fmt.Errorf("%w: message %d changed", domain.ErrHistoryRewritten, i)
		}
	}
	return nil
}
