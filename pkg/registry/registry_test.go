package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name, group string) registry.CapabilityFunc {
	return registry.CapabilityFunc{
		Declaration: domain.ToolSpec{Name: name, Group: group},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return name + " ok", nil
		},
	}
}

func TestRegistry_Invoke(t *testing.T) {
	reg := registry.NewRegistry().MustRegister(echoTool("scrape_acme", domain.ToolGroupJobs))

	out, err := reg.Invoke(context.Background(), "scrape_acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "scrape_acme ok", out)
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := registry.NewRegistry()

	_, err := reg.Invoke(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownTool)
}

func TestRegistry_WrapsExecutionErrors(t *testing.T) {
	cause := errors.New("network timeout")
	reg := registry.NewRegistry().MustRegister(registry.CapabilityFunc{
		Declaration: domain.ToolSpec{Name: "flaky"},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "", cause
		},
	})

	_, err := reg.Invoke(context.Background(), "flaky", nil)
	assert.ErrorIs(t, err, domain.ErrToolExecution)
	assert.ErrorIs(t, err, cause)
}

func TestRegistry_SpecsByGroup(t *testing.T) {
	reg := registry.NewRegistry().MustRegister(
		echoTool("scrape_b", domain.ToolGroupJobs),
		echoTool("scrape_a", domain.ToolGroupJobs),
		echoTool("summarize_page", domain.ToolGroupWeb),
	)

	jobs := reg.Specs(domain.ToolGroupJobs)
	require.Len(t, jobs, 2)
	assert.Equal(t, "scrape_a", jobs[0].Name)
	assert.Len(t, reg.Specs(domain.ToolGroupWeb), 1)
	assert.Equal(t, []string{"scrape_a", "scrape_b", "summarize_page"}, reg.Names())
}

func TestRegistry_Sealed(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Seal()

	err := reg.Register(echoTool("late", ""))
	assert.ErrorIs(t, err, registry.ErrSealed)
}
