package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/llm"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

type entry struct {
	tool   Tool
	spec   llm.ToolSpec
	schema *gojsonschema.Schema
}

// Registry holds the fixed tool set of one agent and dispatches model tool
// calls to it. It implements llm.Executor.
type Registry struct {
	entries []*entry
	byName  map[string]*entry
	log     zerolog.Logger
}

// NewRegistry declares tools. Duplicate names and schemas that do not
// compile are configuration errors.
func NewRegistry(log zerolog.Logger, tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]*entry, len(tools)), log: log}
	for _, t := range tools {
		def := t.Definition()
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("tool %q declared twice", def.Name)
		}

		raw, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encoding schema of %s: %w", def.Name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compiling schema of %s: %w", def.Name, err)
		}

		e := &entry{
			tool:   t,
			spec:   llm.ToolSpec{Name: def.Name, Description: def.Description, Schema: raw},
			schema: schema,
		}
		r.entries = append(r.entries, e)
		r.byName[def.Name] = e
	}
	return r, nil
}

// Specs returns the declarations handed to the model, in declaration order.
func (r *Registry) Specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.spec
	}
	return out
}

// Names returns the declared tool names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Dispatch validates inv against the tool schema and runs the handler.
// Every outcome, including unknown tools, bad parameters and handler
// panics, is reported in the output; failures set IsError.
func (r *Registry) Dispatch(ctx context.Context, inv llm.ToolInvocation) (out llm.ToolOutput) {
	e, ok := r.byName[inv.Name]
	if !ok {
		r.log.Warn().Str("tool", inv.Name).Msg("dispatch: unknown tool")
		return errorOutput(fmt.Sprintf("Error: unknown tool %q", inv.Name))
	}

	params := bytes.TrimSpace(inv.Params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		params = []byte("{}")
	}
	var args map[string]any
	if err := json.Unmarshal(params, &args); err != nil {
		r.log.Warn().Str("tool", inv.Name).Err(err).Msg("dispatch: malformed parameters")
		return errorOutput(fmt.Sprintf("Error: invalid parameters for %s: %v", inv.Name, err))
	}

	if msg, ok := r.validate(e, args); !ok {
		return errorOutput(msg)
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("tool", inv.Name).Interface("panic", p).Msg("dispatch: handler panicked")
			out = errorOutput(fmt.Sprintf("Error: tool %s failed: %v", inv.Name, p))
		}
	}()

	var req mcp.CallToolRequest
	req.Params.Name = inv.Name
	req.Params.Arguments = args

	res, err := e.tool.Handle(ctx, req)
	if err != nil {
		r.log.Error().Str("tool", inv.Name).Err(err).Msg("dispatch: handler failed")
		return errorOutput(fmt.Sprintf("Error: tool %s failed: %v", inv.Name, err))
	}
	out = llm.ToolOutput{Text: ResultText(res), IsError: res != nil && res.IsError}
	if out.IsError {
		r.log.Info().Str("tool", inv.Name).Str("result", out.Text).Msg("dispatch: tool reported failure")
	}
	return out
}

func errorOutput(text string) llm.ToolOutput {
	return llm.ToolOutput{Text: text, IsError: true}
}

// validate checks args against the tool schema, returning the error text
// on a violation.
func (r *Registry) validate(e *entry, args map[string]any) (string, bool) {
	name := e.spec.Name
	result, err := e.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Sprintf("Error: invalid parameters for %s: %v", name, err), false
	}
	if result.Valid() {
		return "", true
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	r.log.Warn().Str("tool", name).Strs("errors", msgs).Msg("dispatch: schema violation")
	return fmt.Sprintf("Error: invalid parameters for %s: %s", name, strings.Join(msgs, "; ")), false
}

// Register exposes every declared tool on an MCP server. Arguments are
// validated against the schema before the handler runs.
func (r *Registry) Register(s *server.MCPServer) {
	for _, e := range r.entries {
		s.AddTool(e.tool.Definition(), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			if args == nil {
				args = map[string]any{}
			}
			if msg, ok := r.validate(e, args); !ok {
				return mcp.NewToolResultError(msg), nil
			}
			return e.tool.Handle(ctx, req)
		})
	}
}
