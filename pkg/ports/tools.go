package ports

import (
	"context"

	"github.com/aretw0/scout/pkg/domain"
)

// Capability is a named unit of work invocable by the model: a site scraper,
// a page summarizer. Given arguments it produces text.
type Capability interface {
	Spec() domain.ToolSpec
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// ToolInvoker resolves tool calls by name.
//
// Invoke returns domain.ErrUnknownTool when the name is not registered, and wraps any
// capability fault in domain.ErrToolExecution. Specs lists the declarations of a group
// so nodes can bind them to a model call.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
	Specs(group string) []domain.ToolSpec
}
