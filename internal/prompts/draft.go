package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// DraftPrompt handles the pm-draft-prd and pm-draft-spec MCP prompts.
// It renders the same instructions an agent would send to its model, so an
// MCP client's own model can draft the document and save it with the
// update tool.
type DraftPrompt struct {
	domain      Domain
	store       *templates.Store
	defaultType string
}

// NewDraftPrompt creates the draft prompt for domain (PRD or Spec).
func NewDraftPrompt(domain Domain, store *templates.Store) *DraftPrompt {
	def := "lean"
	if domain == DomainSpec {
		def = templates.FallbackSpecType
	}
	return &DraftPrompt{domain: domain, store: store, defaultType: def}
}

// Name returns the MCP prompt name.
func (p *DraftPrompt) Name() string {
	return "pm-draft-" + string(p.domain)
}

// Definition returns the MCP prompt definition for registration.
func (p *DraftPrompt) Definition() mcp.Prompt {
	noun := "a Product Requirements Document"
	if p.domain == DomainSpec {
		noun = "a technical specification"
	}
	return mcp.NewPrompt(p.Name(),
		mcp.WithPromptDescription(
			fmt.Sprintf("Draft or update %s from a template. ", noun)+
				"Composes the persona, template structure and mode directive, "+
				"then asks you to save the result with the update tool.",
		),
		mcp.WithArgument("request",
			mcp.ArgumentDescription("What you want written or changed"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("template_type",
			mcp.ArgumentDescription(fmt.Sprintf("Template type. Default: %s", p.defaultType)),
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Numeric project ID used when saving"),
		),
		mcp.WithArgument("existing_content",
			mcp.ArgumentDescription("Current document content; when set, the prompt runs in update mode"),
		),
	)
}

// Handle processes the prompt request.
func (p *DraftPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	request := strings.TrimSpace(args["request"])
	if request == "" {
		return nil, fmt.Errorf("argument 'request' is required")
	}

	templateType := args["template_type"]
	if templateType == "" {
		templateType = p.defaultType
	}

	var projectID *int64
	if raw := strings.TrimSpace(args["project_id"]); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid project_id %q: %w", raw, err)
		}
		projectID = &id
	}

	existing := args["existing_content"]
	pc := &ProjectContext{
		ProjectID:          projectID,
		ExistingContent:    existing,
		HasExistingContent: existing != "",
	}
	mode := ResolveMode(pc)

	instructions := BuildInstructions(InstructionInput{
		Domain:          p.domain,
		TemplateType:    templateType,
		Mode:            mode,
		Assumptions:     DetectAssumptionRequest(p.domain, request),
		ExistingContent: existing,
		Sections:        p.store.Sections(templateType),
		ProjectID:       projectID,
	})
	prompt := BuildUserPrompt(PromptInput{
		Message:      request,
		TemplateType: templateType,
		ProjectID:    projectID,
	})

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draft %s (%s, %s mode)", p.domain, templateType, mode),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(instructions + "\n\n---\n\n" + prompt),
			},
		},
	}, nil
}
