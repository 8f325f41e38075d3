package domain

import (
	"fmt"
	"reflect"
)

// Tool groups decide which node binds a capability when asking the model.
const (
	// ToolGroupJobs holds site-specific scrapers offered to the entry agent.
	ToolGroupJobs = "jobs"
	// ToolGroupWeb holds generic page readers offered to the code planner.
	ToolGroupWeb = "web"
)

// ToolCall represents a model request to invoke one declared tool.
// Ideally compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID   string         `json:"id" yaml:"id" mapstructure:"id"`
	Name string         `json:"name" yaml:"name" mapstructure:"name"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// ToolSpec declares a tool the model may call.
// Parameters is a JSON-schema object describing the arguments.
type ToolSpec struct {
	Name        string         `json:"name" yaml:"name" mapstructure:"name"`
	Description string         `json:"description" yaml:"description" mapstructure:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
	Group       string         `json:"group,omitempty" yaml:"group,omitempty" mapstructure:"group"`
}

// EmptyParameters is the schema of a tool that takes no arguments.
func EmptyParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// CloneToolCall returns a deep copy of the call. Nested argument values are copied
// for maps and slices; scalars are shared.
func CloneToolCall(in ToolCall) ToolCall {
	out := in
	if in.Args != nil {
		out.Args = cloneMap(in.Args)
	}
	return out
}

// DeclaredTool reports whether name is among the declared specs.
func DeclaredTool(specs []ToolSpec, name string) bool {
	for _, s := range specs {
		if s.Name == name {
			return true
		}
	}
	return false
}

// ValidateToolCalls ensures every call references a declared tool.
func ValidateToolCalls(calls []ToolCall, specs []ToolSpec) error {
	for _, c := range calls {
		if !DeclaredTool(specs, c.Name) {
			return fmt.Errorf("%w: tool %q was not declared", ErrMalformedReply, c.Name)
		}
	}
	return nil
}

func equalToolCalls(a, b ToolCall) bool {
	return a.ID == b.ID && a.Name == b.Name && reflect.DeepEqual(a.Args, b.Args)
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
