package prompts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/HendryAvila/pmhelper/internal/templates"
)

// InstructionInput is everything BuildInstructions draws from.
type InstructionInput struct {
	Domain       Domain
	TemplateType string
	Mode         Mode
	// Assumptions is honored only in CREATE mode.
	Assumptions     bool
	ExistingContent string
	// WorkingState is rendered as JSON when ExistingContent is empty.
	WorkingState map[string]any
	Sections     *templates.Sections
	ProjectID    *int64
	UpdateTool   string
}

// BuildInstructions composes the model instructions. Parts, separated by a
// blank line and skipped when empty:
//
//  1. domain persona
//  2. template guidance
//  3. current content, or the working state as JSON
//  4. template structure
//  5. mode directive
func BuildInstructions(in InstructionInput) string {
	parts := []string{
		Persona(in.Domain, in.UpdateTool),
		Guidance(in.Domain, in.TemplateType),
		currentContentBlock(in),
		templateStructureBlock(in.Sections),
		modeDirective(in),
	}
	return joinParts(parts)
}

func joinParts(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func currentContentBlock(in InstructionInput) string {
	label := "Current " + documentNoun(in.Domain, true) + " Content:"
	if strings.TrimSpace(in.ExistingContent) != "" {
		return label + "\n" + in.ExistingContent
	}
	if len(in.WorkingState) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(in.WorkingState, "", "  ")
	if err != nil {
		return ""
	}
	return label + "\n" + string(data)
}

func templateStructureBlock(sections *templates.Sections) string {
	body := templates.FormatSections(sections)
	if body == "" {
		return ""
	}
	return "Template Structure:\n" + body
}

func modeDirective(in InstructionInput) string {
	noun := documentNoun(in.Domain, false)
	tool := in.UpdateTool
	if tool == "" {
		tool = defaultTool(in.Domain)
	}

	var b strings.Builder
	switch {
	case in.Domain == DomainRoadmap:
		b.WriteString("MODE: ROADMAP PLANNING\n")
		b.WriteString("Break the PRD into specific, actionable tasks that are prioritized (P0-P3), " +
			"distributed across realistic quarters, and carry effort estimates and dependencies.\n")
	case in.Mode == ModeUpdate:
		b.WriteString("MODE: UPDATE\n")
		fmt.Fprintf(&b, "The user wants to modify or enhance the existing %s. ", noun)
		b.WriteString("Focus strictly on the change the user requests and keep it consistent with the existing content. ")
		fmt.Fprintf(&b, "Do NOT ask for basic information that is already present in the existing %s.\n", noun)
	case in.Assumptions:
		b.WriteString("MODE: CREATE (assumptions requested)\n")
		b.WriteString("The user asked you to proceed without further questions. ")
		b.WriteString("Make reasonable assumptions based on industry best practices, ")
		fmt.Fprintf(&b, "produce a complete %s draft%s, ", noun, templateClause(in.TemplateType))
		b.WriteString("and clearly annotate every assumption so the user can review and refine it.\n")
	default:
		b.WriteString("MODE: CREATE\n")
		b.WriteString("If essential information is missing, ask focused clarifying questions before drafting. ")
		fmt.Fprintf(&b, "If the user already supplied enough detail, generate the %s%s.\n", noun, templateClause(in.TemplateType))
	}

	fmt.Fprintf(&b, "\nproject_id: %s\n", formatProjectID(in.ProjectID))
	fmt.Fprintf(&b, "Call the %s tool with this project_id only once you have substantial, complete %s content. ", tool, noun)
	b.WriteString("Never call it for questions, conversational replies, or partial content.")
	if in.ProjectID == nil {
		fmt.Fprintf(&b, " No project_id is available, so do not call %s in this turn.", tool)
	}
	return b.String()
}

func templateClause(templateType string) string {
	if templateType == "" {
		return ""
	}
	return " using the " + templateType + " template"
}

// documentNoun names the artifact of a domain. title selects heading case.
func documentNoun(d Domain, title bool) string {
	switch d {
	case DomainSpec:
		if title {
			return "Specification"
		}
		return "technical specification"
	case DomainRoadmap:
		if title {
			return "Roadmap"
		}
		return "roadmap"
	}
	return "PRD"
}

func defaultTool(d Domain) string {
	switch d {
	case DomainSpec:
		return defaultSpecTool
	case DomainRoadmap:
		return defaultRoadmapTool
	}
	return defaultPRDTool
}

func formatProjectID(id *int64) string {
	if id == nil {
		return "none"
	}
	return strconv.FormatInt(*id, 10)
}

// PromptInput is everything BuildUserPrompt draws from.
type PromptInput struct {
	Message         string
	TemplateType    string
	ExistingContent string
	ProjectID       *int64
}

// BuildUserPrompt renders the turn's labeled blocks: EXISTING CONTENT (when
// present), USER REQUEST, TEMPLATE (when set) and PROJECT ID.
func BuildUserPrompt(in PromptInput) string {
	var parts []string
	if strings.TrimSpace(in.ExistingContent) != "" {
		parts = append(parts, "EXISTING CONTENT:\n"+in.ExistingContent)
	}
	parts = append(parts, "USER REQUEST: "+in.Message)
	if in.TemplateType != "" {
		parts = append(parts, "TEMPLATE: "+in.TemplateType)
	}
	parts = append(parts, "PROJECT ID: "+formatProjectID(in.ProjectID))
	return strings.Join(parts, "\n\n")
}

// RoadmapPromptInput feeds BuildRoadmapPrompt.
type RoadmapPromptInput struct {
	Message         string
	ProjectID       *int64
	PRDContent      string
	ExistingRoadmap []backend.Task
}

// BuildRoadmapPrompt renders a roadmap chat turn.
func BuildRoadmapPrompt(in RoadmapPromptInput) string {
	parts := []string{"USER REQUEST: " + in.Message}
	if in.ProjectID != nil {
		parts = append(parts, "PROJECT ID: "+formatProjectID(in.ProjectID))
	}
	if strings.TrimSpace(in.PRDContent) != "" {
		parts = append(parts, "PRD CONTENT:\n"+in.PRDContent)
	}
	if len(in.ExistingRoadmap) > 0 {
		parts = append(parts, "EXISTING ROADMAP:\n"+tasksJSON(in.ExistingRoadmap))
	}
	parts = append(parts, `You are helping with roadmap planning. If the user wants roadmap tasks generated from a PRD, analyze the PRD content and create actionable tasks using the create_roadmap_tasks tool.

When creating tasks, ensure they are:
- Specific and actionable
- Properly prioritized (P0-P3)
- Distributed across realistic quarters
- Accompanied by effort estimates and dependencies`)
	return strings.Join(parts, "\n\n")
}

// BuildRoadmapFromPRDPrompt renders the PRD analysis request.
func BuildRoadmapFromPRDPrompt(projectID int64, prd string, existing []backend.Task) string {
	return fmt.Sprintf(`PROJECT ID: %d

PRD CONTENT:
%s

EXISTING ROADMAP TASKS:
%s

TASK: Analyze the PRD content above and generate a comprehensive roadmap of actionable tasks.

Consider:
1. All features and requirements mentioned in the PRD
2. Technical implementation needs (backend, frontend, database, APIs)
3. Non-technical tasks (design, research, testing, documentation)
4. Infrastructure and deployment requirements
5. Launch and rollout activities

Do not duplicate tasks that already exist in the roadmap.

Use the create_roadmap_tasks tool to save the generated roadmap.`, projectID, prd, tasksJSON(existing))
}

func tasksJSON(tasks []backend.Task) string {
	if len(tasks) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
