package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Task priorities, efforts and statuses accepted by the backend.
var (
	Priorities = []string{"P0", "P1", "P2", "P3"}
	Efforts    = []string{"Small", "Medium", "Large"}
	Statuses   = []string{"planned", "in_progress", "completed", "blocked"}
)

// ErrInvalidBatch rejects a bulk create in which some task lacks a title or quarter.
var ErrInvalidBatch = errors.New("Each task must have a title and quarter")

// Task is a roadmap task. ID, ProjectID, Status and the timestamps are
// assigned by the backend.
type Task struct {
	ID              int64  `json:"id,omitempty"`
	ProjectID       int64  `json:"project_id,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Priority        string `json:"priority,omitempty"`
	Quarter         string `json:"quarter"`
	EstimatedEffort string `json:"estimated_effort,omitempty"`
	Dependencies    string `json:"dependencies,omitempty"`
	Status          string `json:"status,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// TaskUpdate carries the fields to change on an existing task; nil fields
// are left untouched.
type TaskUpdate struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	Quarter         *string `json:"quarter,omitempty"`
	EstimatedEffort *string `json:"estimated_effort,omitempty"`
	Dependencies    *string `json:"dependencies,omitempty"`
	Status          *string `json:"status,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.Quarter == nil && u.EstimatedEffort == nil && u.Dependencies == nil &&
		u.Status == nil
}

// ValidateBatch checks that every task has a non-blank title and quarter.
// The first violation rejects the whole batch.
func ValidateBatch(tasks []Task) error {
	for _, t := range tasks {
		if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Quarter) == "" {
			return ErrInvalidBatch
		}
	}
	return nil
}

// TasksResult is the outcome of operations returning several tasks.
type TasksResult struct {
	Success bool   `json:"success"`
	Tasks   []Task `json:"tasks,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskResult is the outcome of operations returning one task.
type TaskResult struct {
	Success bool   `json:"success"`
	Task    *Task  `json:"task,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of operations with no payload.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

const taskNotFound = "Roadmap task not found"

// Roadmap serves the roadmap task endpoints.
type Roadmap struct {
	client *Client
}

func projectRoadmapPath(projectID int64) string {
	return fmt.Sprintf("/api/projects/%d/roadmap", projectID)
}

func taskPath(taskID int64) string {
	return fmt.Sprintf("/api/roadmap/%d", taskID)
}

// BulkCreate creates all tasks in one request. The batch is validated first
// and nothing is sent when it is invalid.
func (r *Roadmap) BulkCreate(ctx context.Context, projectID int64, tasks []Task) TasksResult {
	if err := ValidateBatch(tasks); err != nil {
		return TasksResult{Error: err.Error()}
	}
	payload := map[string]any{"tasks": tasks}
	return r.tasks(ctx, http.MethodPost, projectRoadmapPath(projectID)+"/bulk", payload, http.StatusCreated)
}

// List returns every task of the project.
func (r *Roadmap) List(ctx context.Context, projectID int64) TasksResult {
	return r.tasks(ctx, http.MethodGet, projectRoadmapPath(projectID), nil, http.StatusOK)
}

// ListByQuarter returns the project's tasks for one quarter, e.g. "Q1 2025".
func (r *Roadmap) ListByQuarter(ctx context.Context, projectID int64, quarter string) TasksResult {
	p := projectRoadmapPath(projectID) + "/quarter/" + url.PathEscape(quarter)
	return r.tasks(ctx, http.MethodGet, p, nil, http.StatusOK)
}

// ListByStatus returns the project's tasks with the given status.
func (r *Roadmap) ListByStatus(ctx context.Context, projectID int64, status string) TasksResult {
	p := projectRoadmapPath(projectID) + "/status/" + url.PathEscape(status)
	return r.tasks(ctx, http.MethodGet, p, nil, http.StatusOK)
}

// Get returns one task.
func (r *Roadmap) Get(ctx context.Context, taskID int64) TaskResult {
	return r.task(ctx, http.MethodGet, taskPath(taskID), nil, http.StatusOK)
}

// Update changes the given fields of one task.
func (r *Roadmap) Update(ctx context.Context, taskID int64, u TaskUpdate) TaskResult {
	return r.task(ctx, http.MethodPut, taskPath(taskID), u, http.StatusOK)
}

// Delete removes one task.
func (r *Roadmap) Delete(ctx context.Context, taskID int64) Result {
	return r.noContent(ctx, taskPath(taskID), true)
}

// Clear removes every task of the project.
func (r *Roadmap) Clear(ctx context.Context, projectID int64) Result {
	return r.noContent(ctx, projectRoadmapPath(projectID), false)
}

func (r *Roadmap) tasks(ctx context.Context, method, path string, payload any, want int) TasksResult {
	resp, err := r.client.do(ctx, method, path, payload)
	if err != nil {
		return TasksResult{Error: networkError(err)}
	}
	if resp.status != want {
		return TasksResult{Error: resp.errorText()}
	}
	tasks := []Task{}
	if err := json.Unmarshal(resp.body, &tasks); err != nil {
		return TasksResult{Error: fmt.Sprintf("decoding tasks: %v", err)}
	}
	return TasksResult{Success: true, Tasks: tasks}
}

// task reads one task from an /api/roadmap/{id} path; 404 is taskNotFound.
func (r *Roadmap) task(ctx context.Context, method, path string, payload any, want int) TaskResult {
	resp, err := r.client.do(ctx, method, path, payload)
	if err != nil {
		return TaskResult{Error: networkError(err)}
	}
	switch {
	case resp.status == want:
	case resp.status == http.StatusNotFound:
		return TaskResult{Error: taskNotFound}
	default:
		return TaskResult{Error: resp.errorText()}
	}
	var t Task
	if err := json.Unmarshal(resp.body, &t); err != nil {
		return TaskResult{Error: fmt.Sprintf("decoding task: %v", err)}
	}
	return TaskResult{Success: true, Task: &t}
}

// noContent deletes path; byID maps 404 to taskNotFound.
func (r *Roadmap) noContent(ctx context.Context, path string, byID bool) Result {
	resp, err := r.client.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return Result{Error: networkError(err)}
	}
	switch {
	case resp.status == http.StatusNoContent:
		return Result{Success: true}
	case resp.status == http.StatusNotFound && byID:
		return Result{Error: taskNotFound}
	default:
		return Result{Error: resp.errorText()}
	}
}
