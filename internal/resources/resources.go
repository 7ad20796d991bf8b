// Package resources implements MCP resource handlers for the template
// catalogs.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (pm://...) following MCP conventions.
package resources

import (
	"context"
	"fmt"

	"github.com/HendryAvila/pmhelper/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// URIs of the template catalogs.
const (
	PRDTemplatesURI  = "pm://templates/prd"
	SpecTemplatesURI = "pm://templates/spec"
)

// Catalog is the body of a template catalog resource.
type Catalog struct {
	Kind      templates.Kind   `json:"kind"`
	Templates []templates.Info `json:"templates"`
}

// Handler serves the template catalogs.
type Handler struct {
	prd  *templates.Store
	spec *templates.Store
}

// NewHandler creates a resource Handler over the PRD and Spec stores.
func NewHandler(prd, spec *templates.Store) *Handler {
	return &Handler{prd: prd, spec: spec}
}

// PRDTemplatesResource returns the MCP resource definition for PRD templates.
func (h *Handler) PRDTemplatesResource() mcp.Resource {
	return mcp.NewResource(
		PRDTemplatesURI,
		"PRD Templates",
		mcp.WithResourceDescription("Available PRD templates with their sections and required sections"),
		mcp.WithMIMEType("application/json"),
	)
}

// SpecTemplatesResource returns the MCP resource definition for Spec templates.
func (h *Handler) SpecTemplatesResource() mcp.Resource {
	return mcp.NewResource(
		SpecTemplatesURI,
		"Technical Specification Templates",
		mcp.WithResourceDescription("Available technical specification templates, including the built-in defaults"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandlePRDTemplates returns the PRD catalog as JSON.
func (h *Handler) HandlePRDTemplates(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return catalogResource(req.Params.URI, h.prd)
}

// HandleSpecTemplates returns the Spec catalog as JSON.
func (h *Handler) HandleSpecTemplates(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return catalogResource(req.Params.URI, h.spec)
}

// BuildCatalog describes every template of store.
func BuildCatalog(store *templates.Store) Catalog {
	c := Catalog{Kind: store.Kind(), Templates: []templates.Info{}}
	for _, t := range store.AvailableTypes() {
		if info := store.Info(t); info.Found() {
			c.Templates = append(c.Templates, info)
		}
	}
	return c
}

func catalogResource(uri string, store *templates.Store) ([]mcp.ResourceContents, error) {
	if store == nil {
		return errorResource(uri, "template store not configured"), nil
	}
	contents, err := jsonResource(uri, BuildCatalog(store))
	if err != nil {
		return nil, fmt.Errorf("marshaling %s catalog: %w", store.Kind(), err)
	}
	return contents, nil
}
