// Package llm adapts langchaingo models to the ModelGateway port.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// Gateway sends conversations to a langchaingo model.
type Gateway struct {
	model       llms.Model
	temperature *float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ports.ModelGateway = (*Gateway)(nil)

// Option configures the gateway.
type Option func(*Gateway)

// WithTemperature fixes the sampling temperature for every call.
func WithTemperature(t float64) Option {
	return func(g *Gateway) {
		g.temperature = &t
	}
}

// WithMaxTokens bounds the reply length.
func WithMaxTokens(n int) Option {
	return func(g *Gateway) {
		g.maxTokens = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway wraps model.
func NewGateway(model llms.Model, opts ...Option) *Gateway {
	g := &Gateway{
		model:  model,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send performs exactly one GenerateContent call.
func (g *Gateway) Send(ctx context.Context, conversation []domain.Message, tools []domain.ToolSpec) (domain.Message, error) {
	msgs := ToMessageContent(conversation)

	var opts []llms.CallOption
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(ToTools(tools)))
	}
	if g.temperature != nil {
		opts = append(opts, llms.WithTemperature(*g.temperature))
	}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	resp, err := g.model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Message{}, ctxErr
		}
		return domain.Message{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return domain.Message{}, fmt.Errorf("%w: no choices returned", domain.ErrMalformedReply)
	}

	reply, err := FromChoice(resp.Choices[0])
	if err != nil {
		return domain.Message{}, err
	}
	if err := domain.ValidateToolCalls(reply.ToolCalls, tools); err != nil {
		return domain.Message{}, err
	}

	g.logger.Debug("model replied",
		"turns", len(conversation),
		"tools", len(tools),
		"tool_calls", len(reply.ToolCalls),
	)
	return reply, nil
}

// ToMessageContent converts the history to langchaingo messages.
func ToMessageContent(conversation []domain.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(conversation))
	for _, m := range conversation {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case domain.RoleHuman:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case domain.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				}},
			})
		default:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextPart(m.Content))
			}
			for _, tc := range m.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: encodeArgs(tc.Args),
					},
				})
			}
			if len(mc.Parts) == 0 {
				mc.Parts = append(mc.Parts, llms.TextPart(""))
			}
			out = append(out, mc)
		}
	}
	return out
}

// ToTools converts tool specs to function declarations.
func ToTools(specs []domain.ToolSpec) []llms.Tool {
	out := make([]llms.Tool, 0, len(specs))
	for _, s := range specs {
		params := s.Parameters
		if params == nil {
			params = domain.EmptyParameters()
		}
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// FromChoice maps a completion choice to an assistant turn.
// Tool call arguments must be a JSON object; anything else is a malformed reply.
func FromChoice(choice *llms.ContentChoice) (domain.Message, error) {
	if choice == nil {
		return domain.Message{}, fmt.Errorf("%w: empty choice", domain.ErrMalformedReply)
	}
	msg := domain.Message{Role: domain.RoleAssistant, Content: choice.Content}
	for i, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			return domain.Message{}, fmt.Errorf("%w: tool call %d has no function", domain.ErrMalformedReply, i)
		}
		args, err := decodeArgs(tc.FunctionCall.Arguments)
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: tool %q arguments: %w", domain.ErrMalformedReply, tc.FunctionCall.Name, err)
		}
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{
			ID:   id,
			Name: tc.FunctionCall.Name,
			Args: args,
		})
	}
	return msg, nil
}

func encodeArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, errors.New("arguments are not an object")
	}
	return args, nil
}
