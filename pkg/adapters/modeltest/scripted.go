// Package modeltest provides deterministic collaborators for workflow tests.
package modeltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/ports"
)

// Response configures one model turn in a scripted sequence.
type Response struct {
	Message domain.Message
	Err     error
}

// Text is a plain assistant reply.
func Text(content string) Response {
	return Response{Message: domain.AssistantMessage(content)}
}

// Call is an assistant reply requesting one tool.
func Call(id, name string, args map[string]any) Response {
	return Response{Message: domain.Message{
		Role:      domain.RoleAssistant,
		ToolCalls: []domain.ToolCall{{ID: id, Name: name, Args: args}},
	}}
}

// Fail makes the turn return err.
func Fail(err error) Response {
	return Response{Err: err}
}

// Request is what the gateway received on one call.
type Request struct {
	Conversation []domain.Message
	Tools        []string
}

// ScriptedGateway is a deterministic ModelGateway for runtime tests.
type ScriptedGateway struct {
	mu        sync.Mutex
	index     int
	responses []Response
	requests  []Request
}

var _ ports.ModelGateway = (*ScriptedGateway)(nil)

func NewScriptedGateway(responses ...Response) *ScriptedGateway {
	cloned := make([]Response, len(responses))
	copy(cloned, responses)
	return &ScriptedGateway{
		responses: cloned,
	}
}

// Send replays the next response. Tool calls are validated against tools the
// same way a real gateway does.
func (g *ScriptedGateway) Send(_ context.Context, conversation []domain.Message, tools []domain.ToolSpec) (domain.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	g.requests = append(g.requests, Request{
		Conversation: domain.CloneMessages(conversation),
		Tools:        names,
	})

	if g.index >= len(g.responses) {
		return domain.Message{}, fmt.Errorf("script exhausted at step %d", g.index+1)
	}
	current := g.responses[g.index]
	g.index++
	if current.Err != nil {
		return domain.Message{}, current.Err
	}
	msg := domain.CloneMessage(current.Message)
	if msg.Role == "" {
		msg.Role = domain.RoleAssistant
	}
	if err := domain.ValidateToolCalls(msg.ToolCalls, tools); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// Calls returns how many times Send was invoked.
func (g *ScriptedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// Requests returns a copy of every recorded request.
func (g *ScriptedGateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.requests))
	copy(out, g.requests)
	return out
}

// Remaining reports how many scripted responses were not consumed.
func (g *ScriptedGateway) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.responses) - g.index
}
