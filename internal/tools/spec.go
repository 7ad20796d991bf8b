package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names of the Spec domain.
const (
	UpdateSpecName = "update_project_spec"
	GetSpecName    = "get_project_spec"
)

// ─── UpdateSpecTool ─────────────────────────────────────────────────────────

// UpdateSpecTool handles the update_project_spec tool.
type UpdateSpecTool struct {
	store DocumentStore
}

// NewUpdateSpecTool creates an UpdateSpecTool.
func NewUpdateSpecTool(store DocumentStore) *UpdateSpecTool {
	return &UpdateSpecTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *UpdateSpecTool) Definition() mcp.Tool {
	return mcp.NewTool(UpdateSpecName,
		mcp.WithDescription(
			"Save the technical specification of a project. "+
				"Updates the existing specification or creates it when the project has none. "+
				"Call only with substantial, complete specification content.",
		),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The full specification content in markdown"),
		),
		mcp.WithString("technical_details",
			mcp.Description("Additional implementation details stored alongside the content"),
		),
		mcp.WithString("title",
			mcp.Description("Title used when the specification is created. Default: Technical Specification"),
		),
	)
}

// Handle processes the update_project_spec call.
func (t *UpdateSpecTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	res := t.store.Upsert(ctx, projectID, backend.UpsertInput{
		Content:          content,
		Title:            req.GetString("title", ""),
		TechnicalDetails: req.GetString("technical_details", ""),
	})
	if !res.Success {
		return mcp.NewToolResultError("Failed to update specification: " + res.Error), nil
	}

	return mcp.NewToolResultText(strings.TrimSpace(fmt.Sprintf(
		"Technical specification %s successfully for project %d. %s", res.Action, projectID, res.Message,
	))), nil
}

// ─── GetSpecTool ────────────────────────────────────────────────────────────

// GetSpecTool handles the get_project_spec tool.
type GetSpecTool struct {
	store DocumentStore
}

// NewGetSpecTool creates a GetSpecTool.
func NewGetSpecTool(store DocumentStore) *GetSpecTool {
	return &GetSpecTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *GetSpecTool) Definition() mcp.Tool {
	return mcp.NewTool(GetSpecName,
		mcp.WithDescription("Get the current technical specification of a project, including technical details."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project"),
		),
	)
}

// Handle processes the get_project_spec call.
func (t *GetSpecTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := t.store.Fetch(ctx, projectID)
	if !res.Success {
		return mcp.NewToolResultError("Error getting specification: " + res.Error), nil
	}
	if res.Data == nil {
		return mcp.NewToolResultText("No technical specification found for this project"), nil
	}

	content := res.Data.Content
	if content == "" {
		content = "No content found"
	}
	if res.Data.TechnicalDetails != "" {
		content += "\n\n## Technical Implementation Details\n\n" + res.Data.TechnicalDetails
	}
	return mcp.NewToolResultText(content), nil
}
