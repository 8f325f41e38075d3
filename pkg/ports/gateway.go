package ports

import (
	"context"

	"github.com/aretw0/scout/pkg/domain"
)

// ModelGateway sends a conversation to a language model.
//
// Send returns exactly one reply per call and never retries internally. The reply
// is either plain text or a structured tool call naming one of the declared tools.
// Transport and authentication faults are reported as domain.ErrModelUnavailable;
// a tool call naming an undeclared tool is reported as domain.ErrMalformedReply.
type ModelGateway interface {
	Send(ctx context.Context, conversation []domain.Message, tools []domain.ToolSpec) (domain.Message, error)
}

// ModelGatewayFunc adapts a function to ModelGateway.
type ModelGatewayFunc func(ctx context.Context, conversation []domain.Message, tools []domain.ToolSpec) (domain.Message, error)

// Send calls f.
func (f ModelGatewayFunc) Send(ctx context.Context, conversation []domain.Message, tools []domain.ToolSpec) (domain.Message, error) {
	return f(ctx, conversation, tools)
}
