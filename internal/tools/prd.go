package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names of the PRD domain.
const (
	UpdatePRDName = "update_project_prd"
	GetPRDName    = "get_project_prd"
)

// ─── UpdatePRDTool ──────────────────────────────────────────────────────────

// UpdatePRDTool handles the update_project_prd tool.
type UpdatePRDTool struct {
	store    DocumentStore
	fallback *FallbackRoadmap
}

// NewUpdatePRDTool creates an UpdatePRDTool. A nil fallback disables the
// default roadmap after saves.
func NewUpdatePRDTool(store DocumentStore, fallback *FallbackRoadmap) *UpdatePRDTool {
	return &UpdatePRDTool{store: store, fallback: fallback}
}

// Definition returns the tool definition for registration.
func (t *UpdatePRDTool) Definition() mcp.Tool {
	return mcp.NewTool(UpdatePRDName,
		mcp.WithDescription(
			"Save the Product Requirements Document of a project. "+
				"Updates the existing PRD or creates it when the project has none. "+
				"Call only with substantial, complete PRD content, never for questions or partial drafts.",
		),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The full PRD content in markdown"),
		),
		mcp.WithString("title",
			mcp.Description("Title used when the PRD is created. Default: Product Requirements Document"),
		),
	)
}

// Handle processes the update_project_prd call.
func (t *UpdatePRDTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	res := t.store.Upsert(ctx, projectID, backend.UpsertInput{
		Content: content,
		Title:   req.GetString("title", ""),
	})
	if !res.Success {
		return mcp.NewToolResultError("Failed to update PRD: " + res.Error), nil
	}

	text := strings.TrimSpace(fmt.Sprintf("PRD %s successfully for project %d. %s", res.Action, projectID, res.Message))
	if t.fallback != nil {
		if note := t.fallback.Apply(ctx, projectID); note != "" {
			text += "\n" + note
		}
	}
	return mcp.NewToolResultText(text), nil
}

// ─── GetPRDTool ─────────────────────────────────────────────────────────────

// GetPRDTool handles the get_project_prd tool.
type GetPRDTool struct {
	store DocumentStore
}

// NewGetPRDTool creates a GetPRDTool.
func NewGetPRDTool(store DocumentStore) *GetPRDTool {
	return &GetPRDTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *GetPRDTool) Definition() mcp.Tool {
	return mcp.NewTool(GetPRDName,
		mcp.WithDescription("Get the current PRD content of a project."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project"),
		),
	)
}

// Handle processes the get_project_prd call.
func (t *GetPRDTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := t.store.Fetch(ctx, projectID)
	switch {
	case !res.Success:
		return mcp.NewToolResultError("Error getting PRD: " + res.Error), nil
	case res.Data == nil:
		return mcp.NewToolResultText("No PRD found for this project"), nil
	case res.Data.Content == "":
		return mcp.NewToolResultText("No content found"), nil
	default:
		return mcp.NewToolResultText(res.Data.Content), nil
	}
}
