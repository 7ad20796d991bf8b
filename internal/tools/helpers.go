// Package tools implements the schema-declared, side-effecting tools an
// agent exposes to its model: saving and reading PRDs and technical
// specifications, and managing roadmap tasks.
//
// Each tool is a struct with its store injected via constructor, a
// Definition() returning the mcp.Tool schema and a Handle() processing the
// call. Domain failures are returned as error results, never as Go errors,
// so the model can read them and continue the conversation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is one declared tool.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// DocumentStore persists one document family (PRDs or specifications).
// *backend.Documents satisfies it.
type DocumentStore interface {
	Upsert(ctx context.Context, projectID int64, in backend.UpsertInput) backend.UpsertResult
	Fetch(ctx context.Context, projectID int64) backend.FetchResult
}

// RoadmapStore persists roadmap tasks. *backend.Roadmap satisfies it.
type RoadmapStore interface {
	BulkCreate(ctx context.Context, projectID int64, tasks []backend.Task) backend.TasksResult
	List(ctx context.Context, projectID int64) backend.TasksResult
	Update(ctx context.Context, taskID int64, u backend.TaskUpdate) backend.TaskResult
	Delete(ctx context.Context, taskID int64) backend.Result
	Clear(ctx context.Context, projectID int64) backend.Result
}

// idArg extracts a required positive integer argument. JSON numbers
// arrive as float64; fractional and out-of-range values are rejected.
func idArg(req mcp.CallToolRequest, key string) (int64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("'%s' is required", key)
	}
	var n int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
			return 0, fmt.Errorf("'%s' must be an integer", key)
		}
		n = int64(v)
	case int:
		n = int64(v)
	case int64:
		n = v
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("'%s' must be an integer", key)
		}
		n = i
	default:
		return 0, fmt.Errorf("'%s' must be an integer", key)
	}
	if n <= 0 {
		return 0, fmt.Errorf("'%s' must be a positive integer", key)
	}
	return n, nil
}

// optString returns a pointer to the string argument key, or nil when the
// argument is absent.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// decodeArg round-trips argument key through JSON into out.
func decodeArg(req mcp.CallToolRequest, key string, out any) error {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return fmt.Errorf("'%s' is required", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding '%s': %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("'%s' is malformed: %v", key, err)
	}
	return nil
}

// jsonResult marshals payload into a text result, flagged as an error when
// the payload reports failure.
func jsonResult(payload any, failed bool) *mcp.CallToolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()))
	}
	if failed {
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultText(string(data))
}

func jsonFailure(msg string) *mcp.CallToolResult {
	return jsonResult(map[string]any{"success": false, "error": msg}, true)
}

// ResultText extracts the text of a tool result.
func ResultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
