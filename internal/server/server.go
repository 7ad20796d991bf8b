// Package server wires all components and exposes them over MCP and HTTP.
//
// This is the composition root: it creates concrete implementations and
// injects them into the agents, tools, prompts and resources that depend
// on abstractions. No business logic lives here, only wiring.
package server

import (
	"github.com/HendryAvila/pmhelper/internal/prompts"
	"github.com/HendryAvila/pmhelper/internal/resources"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates the MCP server with every tool, prompt and resource
// of app registered.
func NewMCPServer(app *App) *server.MCPServer {
	s := server.NewMCPServer(
		"pmhelper",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---
	//
	// Calls go through the registry so MCP clients get the same schema
	// validation and error text as the agents' models.

	app.Tools.Register(s)

	// --- Register prompts ---

	prdPrompt := prompts.NewDraftPrompt(prompts.DomainPRD, app.PRDTemplates)
	s.AddPrompt(prdPrompt.Definition(), prdPrompt.Handle)

	specPrompt := prompts.NewDraftPrompt(prompts.DomainSpec, app.SpecTemplates)
	s.AddPrompt(specPrompt.Definition(), specPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(app.PRDTemplates, app.SpecTemplates)
	s.AddResource(resourceHandler.PRDTemplatesResource(), resourceHandler.HandlePRDTemplates)
	s.AddResource(resourceHandler.SpecTemplatesResource(), resourceHandler.HandleSpecTemplates)

	return s
}

func serverInstructions() string {
	return `You have access to pmhelper, a product-management document server.

## WHAT IT STORES

Per numeric project_id, pmhelper persists:
- a Product Requirements Document (PRD)
- a technical specification, optionally with implementation details
- a roadmap of prioritized tasks (P0-P3) distributed across quarters

## HOW TO WORK WITH IT

1. Read before writing: call get_project_prd, get_project_spec or
   get_project_roadmap to see what already exists.
2. To draft a document, use the pm-draft-prd or pm-draft-spec prompt. It
   composes the persona, template structure and mode directive for you.
   Pass existing_content to refine a document instead of starting over.
3. Save with update_project_prd or update_project_spec only once you have
   substantial, complete content. Never save questions or partial drafts.
4. Break a saved PRD into roadmap tasks with create_roadmap_tasks. Every task
   needs a title and a quarter such as "Q1 2026". Do not duplicate tasks
   that already exist.

## TEMPLATES

The pm://templates/prd and pm://templates/spec resources list the available
templates with their sections. Spec requests carrying a PRD template name
use the api spec template.`
}
