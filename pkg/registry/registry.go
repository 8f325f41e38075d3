package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// ErrSealed is returned when registering after the registry was sealed.
var ErrSealed = errors.New("registry is sealed")

// CapabilityFunc adapts a plain function and its declaration to ports.Capability.
type CapabilityFunc struct {
	Declaration domain.ToolSpec
	Fn          func(ctx context.Context, args map[string]any) (string, error)
}

// Spec returns the declaration.
func (c CapabilityFunc) Spec() domain.ToolSpec { return c.Declaration }

// Invoke calls Fn.
func (c CapabilityFunc) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return c.Fn(ctx, args)
}

// Registry manages the available tool capabilities.
// It is populated at startup and sealed before the first run; lookups are safe
// for concurrent use by parallel runs.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]ports.Capability
	sealed bool
}

var _ ports.ToolInvoker = (*Registry)(nil)

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ports.Capability),
	}
}

// Register adds a capability under its declared name.
// If a capability with the same name exists, it is overwritten.
func (r *Registry) Register(c ports.Capability) error {
	name := c.Spec().Name
	if name == "" {
		return fmt.Errorf("register tool: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register tool %s: %w", name, ErrSealed)
	}
	r.tools[name] = c
	return nil
}

// MustRegister is like Register but panics on error. Intended for startup wiring.
func (r *Registry) MustRegister(caps ...ports.Capability) *Registry {
	for _, c := range caps {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}

// Seal freezes the registry. Further registrations fail with ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Invoke looks up a capability by name and executes it.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	c, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}

	out, err := c.Invoke(ctx, args)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrToolExecution, name, err)
	}
	return out, nil
}

// Specs returns the declarations of a group, sorted by name.
// An empty group returns every declaration.
func (r *Registry) Specs(group string) []domain.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolSpec, 0, len(r.tools))
	for _, c := range r.tools {
		spec := c.Spec()
		if group != "" && spec.Group != group {
			continue
		}
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered tool name, sorted.
func (r *Registry) Names() []string {
	specs := r.Specs("")
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}
