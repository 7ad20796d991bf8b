package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names of the Roadmap domain.
const (
	CreateRoadmapTasksName  = "create_roadmap_tasks"
	GetProjectRoadmapName   = "get_project_roadmap"
	UpdateRoadmapTaskName   = "update_roadmap_task"
	DeleteRoadmapTaskName   = "delete_roadmap_task"
	ClearProjectRoadmapName = "clear_project_roadmap"
)

// taskItemSchema is the JSON schema of one task in create_roadmap_tasks.
func taskItemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Task title",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Detailed task description",
			},
			"priority": map[string]any{
				"type":        "string",
				"enum":        backend.Priorities,
				"description": "Task priority (P0=Critical, P1=High, P2=Medium, P3=Low)",
			},
			"quarter": map[string]any{
				"type":        "string",
				"description": "Target quarter (e.g. Q1 2025)",
			},
			"estimated_effort": map[string]any{
				"type":        "string",
				"enum":        backend.Efforts,
				"description": "Effort estimate",
			},
			"dependencies": map[string]any{
				"type":        "string",
				"description": "Titles or IDs of tasks this one depends on",
			},
		},
		"required": []string{"title", "quarter"},
	}
}

// ─── CreateRoadmapTasksTool ─────────────────────────────────────────────────

// CreateRoadmapTasksTool handles the create_roadmap_tasks tool.
type CreateRoadmapTasksTool struct {
	store RoadmapStore
}

// NewCreateRoadmapTasksTool creates a CreateRoadmapTasksTool.
func NewCreateRoadmapTasksTool(store RoadmapStore) *CreateRoadmapTasksTool {
	return &CreateRoadmapTasksTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *CreateRoadmapTasksTool) Definition() mcp.Tool {
	return mcp.NewTool(CreateRoadmapTasksName,
		mcp.WithDescription(
			"Create multiple roadmap tasks for a project based on PRD analysis. "+
				"Every task needs a title and a quarter; an invalid task rejects the whole batch.",
		),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project to create tasks for"),
		),
		mcp.WithArray("tasks",
			mcp.Required(),
			mcp.Description("Array of task objects to create"),
			mcp.Items(taskItemSchema()),
		),
	)
}

// Handle processes the create_roadmap_tasks call.
func (t *CreateRoadmapTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return jsonFailure(err.Error()), nil
	}
	var tasks []backend.Task
	if err := decodeArg(req, "tasks", &tasks); err != nil {
		return jsonFailure(err.Error()), nil
	}
	if err := backend.ValidateBatch(tasks); err != nil {
		return jsonFailure(err.Error()), nil
	}

	res := t.store.BulkCreate(ctx, projectID, tasks)
	if !res.Success {
		return jsonFailure(orDefault(res.Error, "Failed to create roadmap tasks")), nil
	}
	return jsonResult(map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully created %d roadmap tasks", len(res.Tasks)),
		"tasks":   nonNilTasks(res.Tasks),
	}, false), nil
}

// ─── GetProjectRoadmapTool ──────────────────────────────────────────────────

// GetProjectRoadmapTool handles the get_project_roadmap tool.
type GetProjectRoadmapTool struct {
	store RoadmapStore
}

// NewGetProjectRoadmapTool creates a GetProjectRoadmapTool.
func NewGetProjectRoadmapTool(store RoadmapStore) *GetProjectRoadmapTool {
	return &GetProjectRoadmapTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *GetProjectRoadmapTool) Definition() mcp.Tool {
	return mcp.NewTool(GetProjectRoadmapName,
		mcp.WithDescription("Get the existing roadmap tasks of a project."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project"),
		),
	)
}

// Handle processes the get_project_roadmap call.
func (t *GetProjectRoadmapTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return jsonFailure(err.Error()), nil
	}

	res := t.store.List(ctx, projectID)
	if !res.Success {
		return jsonFailure(orDefault(res.Error, "Failed to fetch roadmap")), nil
	}
	return jsonResult(map[string]any{"success": true, "tasks": nonNilTasks(res.Tasks)}, false), nil
}

// ─── UpdateRoadmapTaskTool ──────────────────────────────────────────────────

// UpdateRoadmapTaskTool handles the update_roadmap_task tool.
type UpdateRoadmapTaskTool struct {
	store RoadmapStore
}

// NewUpdateRoadmapTaskTool creates an UpdateRoadmapTaskTool.
func NewUpdateRoadmapTaskTool(store RoadmapStore) *UpdateRoadmapTaskTool {
	return &UpdateRoadmapTaskTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *UpdateRoadmapTaskTool) Definition() mcp.Tool {
	return mcp.NewTool(UpdateRoadmapTaskName,
		mcp.WithDescription("Update one roadmap task by ID. Only the provided fields are changed."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to update"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum(backend.Priorities...),
		),
		mcp.WithString("quarter", mcp.Description("New target quarter")),
		mcp.WithString("estimated_effort",
			mcp.Description("New effort estimate"),
			mcp.Enum(backend.Efforts...),
		),
		mcp.WithString("dependencies", mcp.Description("New dependencies")),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(backend.Statuses...),
		),
	)
}

// Handle processes the update_roadmap_task call.
func (t *UpdateRoadmapTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := idArg(req, "task_id")
	if err != nil {
		return jsonFailure(err.Error()), nil
	}

	u := backend.TaskUpdate{
		Title:           optString(req, "title"),
		Description:     optString(req, "description"),
		Priority:        optString(req, "priority"),
		Quarter:         optString(req, "quarter"),
		EstimatedEffort: optString(req, "estimated_effort"),
		Dependencies:    optString(req, "dependencies"),
		Status:          optString(req, "status"),
	}
	if u.Empty() {
		return jsonFailure("No fields to update"), nil
	}

	res := t.store.Update(ctx, taskID, u)
	if !res.Success {
		return jsonFailure(orDefault(res.Error, "Failed to update roadmap task")), nil
	}
	return jsonResult(map[string]any{
		"success": true,
		"message": "Successfully updated roadmap task",
		"task":    res.Task,
	}, false), nil
}

// ─── DeleteRoadmapTaskTool ──────────────────────────────────────────────────

// DeleteRoadmapTaskTool handles the delete_roadmap_task tool.
type DeleteRoadmapTaskTool struct {
	store RoadmapStore
}

// NewDeleteRoadmapTaskTool creates a DeleteRoadmapTaskTool.
func NewDeleteRoadmapTaskTool(store RoadmapStore) *DeleteRoadmapTaskTool {
	return &DeleteRoadmapTaskTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *DeleteRoadmapTaskTool) Definition() mcp.Tool {
	return mcp.NewTool(DeleteRoadmapTaskName,
		mcp.WithDescription("Delete one roadmap task by ID."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to delete"),
		),
	)
}

// Handle processes the delete_roadmap_task call.
func (t *DeleteRoadmapTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := idArg(req, "task_id")
	if err != nil {
		return jsonFailure(err.Error()), nil
	}

	res := t.store.Delete(ctx, taskID)
	if !res.Success {
		return jsonFailure(orDefault(res.Error, "Failed to delete roadmap task")), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "Successfully deleted roadmap task"}, false), nil
}

// ─── ClearProjectRoadmapTool ────────────────────────────────────────────────

// ClearProjectRoadmapTool handles the clear_project_roadmap tool.
type ClearProjectRoadmapTool struct {
	store RoadmapStore
}

// NewClearProjectRoadmapTool creates a ClearProjectRoadmapTool.
func NewClearProjectRoadmapTool(store RoadmapStore) *ClearProjectRoadmapTool {
	return &ClearProjectRoadmapTool{store: store}
}

// Definition returns the tool definition for registration.
func (t *ClearProjectRoadmapTool) Definition() mcp.Tool {
	return mcp.NewTool(ClearProjectRoadmapName,
		mcp.WithDescription("Delete every roadmap task of a project."),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("The ID of the project"),
		),
	)
}

// Handle processes the clear_project_roadmap call.
func (t *ClearProjectRoadmapTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := idArg(req, "project_id")
	if err != nil {
		return jsonFailure(err.Error()), nil
	}

	res := t.store.Clear(ctx, projectID)
	if !res.Success {
		return jsonFailure(orDefault(res.Error, "Failed to clear project roadmap")), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "Successfully cleared project roadmap"}, false), nil
}

func nonNilTasks(tasks []backend.Task) []backend.Task {
	if tasks == nil {
		return []backend.Task{}
	}
	return tasks
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
