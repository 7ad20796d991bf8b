// Package llm adapts language-model providers to a single tool-using
// runtime contract: instructions, a prompt and declared tools go in; the
// final text and the tool calls the model made come out.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// DefaultMaxIterations bounds the model/tool round trips of one Run.
const DefaultMaxIterations = 8

// ErrMaxIterations is returned when the model keeps requesting tools past
// the iteration bound.
var ErrMaxIterations = errors.New("llm: tool loop exceeded max iterations")

// ToolSpec declares one tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Schema is the JSON schema object of the tool parameters.
	Schema json.RawMessage
}

// ToolInvocation is one tool call requested by the model.
type ToolInvocation struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

// Message is a prior conversation turn replayed to the model.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is everything one Run needs.
type Request struct {
	Instructions string
	Prompt       string
	History      []Message
	Tools        []ToolSpec
}

// Result is the typed outcome of a Run.
type Result struct {
	Output    string
	ToolCalls []ToolInvocation
}

// ToolOutput is what one tool call hands back to the model.
type ToolOutput struct {
	Text string
	// IsError marks a failed call; the text carries the reason.
	IsError bool
}

// Executor runs a tool invocation. It never fails; faults are reported in
// the output.
type Executor interface {
	Dispatch(ctx context.Context, inv ToolInvocation) ToolOutput
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, inv ToolInvocation) ToolOutput

// Dispatch calls f.
func (f ExecutorFunc) Dispatch(ctx context.Context, inv ToolInvocation) ToolOutput {
	return f(ctx, inv)
}

// Runtime drives a model through one turn.
type Runtime interface {
	Name() string
	Run(ctx context.Context, req Request, exec Executor) (Result, error)
}

// schemaMap decodes a tool schema into the generic map form the provider
// SDKs take. A missing or broken schema becomes an empty object schema.
func schemaMap(raw json.RawMessage) map[string]any {
	m := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &m)
	}
	if _, ok := m["type"]; !ok {
		m["type"] = "object"
	}
	return m
}

func requiredFields(schema map[string]any) []string {
	req, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(req))
	for _, r := range req {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boundOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxIterations
	}
	return n
}
