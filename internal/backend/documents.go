package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Action reports which write an upsert performed.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// DraftStatus is the status written with every upsert.
const DraftStatus = "draft"

// Document is a stored PRD or technical specification.
type Document struct {
	ID               int64  `json:"id,omitempty"`
	ProjectID        int64  `json:"project_id,omitempty"`
	Title            string `json:"title,omitempty"`
	Content          string `json:"content"`
	Status           string `json:"status,omitempty"`
	TechnicalDetails string `json:"technical_details,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// UpsertInput is the content to write. Title is used only on create.
type UpsertInput struct {
	Content          string
	Title            string
	TechnicalDetails string
}

// UpsertResult is the outcome of Documents.Upsert.
type UpsertResult struct {
	Success bool      `json:"success"`
	Action  Action    `json:"action,omitempty"`
	Message string    `json:"message,omitempty"`
	Data    *Document `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// FetchResult is the outcome of Documents.Fetch. A missing document is
// Success with nil Data.
type FetchResult struct {
	Success bool      `json:"success"`
	Data    *Document `json:"data"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// docKind holds the path segment and wording of one document family.
type docKind struct {
	segment      string
	noun         string // used in error messages
	label        string // used in success messages
	defaultTitle string
}

var (
	prdKind = docKind{
		segment:      "prd",
		noun:         "PRD",
		label:        "PRD",
		defaultTitle: "Product Requirements Document",
	}
	specKind = docKind{
		segment:      "spec",
		noun:         "specification",
		label:        "Technical specification",
		defaultTitle: "Technical Specification",
	}
)

// Documents serves /api/projects/{id}/prd or /api/projects/{id}/spec.
type Documents struct {
	client *Client
	kind   docKind
}

func (d *Documents) path(projectID int64) string {
	return fmt.Sprintf("/api/projects/%d/%s", projectID, d.kind.segment)
}

// NotFoundMessage is the message attached to a fetch of a missing document.
func (d *Documents) NotFoundMessage() string {
	if d.kind.segment == prdKind.segment {
		return "No PRD found for this project"
	}
	return "No technical specification found for this project"
}

// Upsert updates the project's document, creating it when the backend
// reports 404 on the update.
func (d *Documents) Upsert(ctx context.Context, projectID int64, in UpsertInput) UpsertResult {
	update := map[string]any{
		"content": in.Content,
		"status":  DraftStatus,
	}
	if in.TechnicalDetails != "" {
		update["technical_details"] = in.TechnicalDetails
	}

	resp, err := d.client.do(ctx, http.MethodPut, d.path(projectID), update)
	if err != nil {
		return UpsertResult{Error: networkError(err)}
	}

	switch resp.status {
	case http.StatusOK:
		return UpsertResult{
			Success: true,
			Action:  ActionUpdated,
			Message: d.kind.label + " updated successfully",
			Data:    decodeDocument(resp.body),
		}
	case http.StatusNotFound:
		return d.create(ctx, projectID, in)
	default:
		return UpsertResult{
			Error: fmt.Sprintf("Failed to update %s: %d (%s)", d.kind.noun, resp.status, resp.errorText()),
		}
	}
}

func (d *Documents) create(ctx context.Context, projectID int64, in UpsertInput) UpsertResult {
	title := in.Title
	if title == "" {
		title = d.kind.defaultTitle
	}
	body := map[string]any{
		"title":   title,
		"content": in.Content,
		"status":  DraftStatus,
	}
	if in.TechnicalDetails != "" {
		body["technical_details"] = in.TechnicalDetails
	}

	resp, err := d.client.do(ctx, http.MethodPost, d.path(projectID), body)
	if err != nil {
		return UpsertResult{Error: networkError(err)}
	}
	if resp.status != http.StatusCreated {
		return UpsertResult{
			Error: fmt.Sprintf("Failed to create %s: %d (%s)", d.kind.noun, resp.status, resp.errorText()),
		}
	}
	return UpsertResult{
		Success: true,
		Action:  ActionCreated,
		Message: d.kind.label + " created successfully",
		Data:    decodeDocument(resp.body),
	}
}

// Fetch returns the project's document, or nil Data when there is none.
func (d *Documents) Fetch(ctx context.Context, projectID int64) FetchResult {
	resp, err := d.client.do(ctx, http.MethodGet, d.path(projectID), nil)
	if err != nil {
		return FetchResult{Error: networkError(err)}
	}

	switch resp.status {
	case http.StatusOK:
		var doc Document
		if err := json.Unmarshal(resp.body, &doc); err != nil {
			return FetchResult{Error: fmt.Sprintf("Failed to get %s: decoding response: %v", d.kind.noun, err)}
		}
		return FetchResult{Success: true, Data: &doc}
	case http.StatusNotFound:
		return FetchResult{Success: true, Message: d.NotFoundMessage()}
	default:
		return FetchResult{
			Error: fmt.Sprintf("Failed to get %s: %d (%s)", d.kind.noun, resp.status, resp.errorText()),
		}
	}
}

// decodeDocument is lenient: a write that succeeded stays a success even
// if the echoed body is not a document.
func decodeDocument(body []byte) *Document {
	var doc Document
	if len(body) == 0 || json.Unmarshal(body, &doc) != nil {
		return nil
	}
	return &doc
}
