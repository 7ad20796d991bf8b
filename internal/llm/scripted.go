package llm

import (
	"context"
	"sync"
)

// Turn is one scripted model turn: the tool calls to make, then the final
// output. A non-nil Err makes Run fail without dispatching.
type Turn struct {
	Calls  []ToolInvocation
	Output string
	Err    error
}

// ScriptedRuntime is a deterministic Runtime. Each Run consumes the next
// scripted Turn; once the script is exhausted it echoes the prompt.
type ScriptedRuntime struct {
	mu       sync.Mutex
	turns    []Turn
	requests []Request
	outputs  []string
}

// NewScriptedRuntime creates a runtime that plays back turns in order.
func NewScriptedRuntime(turns ...Turn) *ScriptedRuntime {
	return &ScriptedRuntime{turns: turns}
}

// Name returns "scripted".
func (r *ScriptedRuntime) Name() string { return "scripted" }

// Push appends turns to the script.
func (r *ScriptedRuntime) Push(turns ...Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turns...)
}

// Run records req, dispatches the scripted calls through exec and returns
// the scripted output.
func (r *ScriptedRuntime) Run(ctx context.Context, req Request, exec Executor) (Result, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	var turn Turn
	if len(r.turns) > 0 {
		turn = r.turns[0]
		r.turns = r.turns[1:]
	} else {
		turn = Turn{Output: req.Prompt}
	}
	r.mu.Unlock()

	if turn.Err != nil {
		return Result{}, turn.Err
	}

	result := Result{Output: turn.Output}
	for _, call := range turn.Calls {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		out := exec.Dispatch(ctx, call)
		result.ToolCalls = append(result.ToolCalls, call)

		r.mu.Lock()
		r.outputs = append(r.outputs, out.Text)
		r.mu.Unlock()
	}
	return result, nil
}

// Requests returns every request seen so far.
func (r *ScriptedRuntime) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// ToolOutputs returns the executor output of every dispatched call.
func (r *ScriptedRuntime) ToolOutputs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outputs...)
}
