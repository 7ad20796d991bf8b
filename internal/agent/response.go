package agent

import (
	"github.com/HendryAvila/pmhelper/internal/conversation"
	"github.com/HendryAvila/pmhelper/internal/prompts"
)

// ResponseType classifies a Response.
type ResponseType string

const (
	TypePRDContent        ResponseType = "prd_content"
	TypeSpecContent       ResponseType = "spec_content"
	TypeRoadmapContent    ResponseType = "roadmap_content"
	TypeRoadmapGeneration ResponseType = "roadmap_generation"
	TypeError             ResponseType = "error"
)

// Metadata keys.
const (
	MetaMode              = "mode"
	MetaSectionsGenerated = "sections_generated"
	MetaToolCallsMade     = "tool_calls_made"
	MetaToolCalls         = "tool_calls"
	MetaAssumptionsMade   = "assumptions_made"
	MetaProjectID         = "project_id"
	MetaInteraction       = "interaction"
	MetaHasRoadmap        = "has_existing_roadmap"
)

// ModePRDAnalysis is the metadata mode of GenerateFromPRD.
const ModePRDAnalysis = "prd_analysis"

// ChatRequest is one user turn.
type ChatRequest struct {
	Message        string                  `json:"message"`
	TemplateType   string                  `json:"template_type,omitempty"`
	ProjectContext *prompts.ProjectContext `json:"project_context,omitempty"`
	// History, when non-empty, replaces the agent's conversation before the
	// turn is appended.
	History []conversation.Message `json:"chat_history,omitempty"`
}

// Response is the agent's answer to one turn.
type Response struct {
	Content       string         `json:"content"`
	Type          ResponseType   `json:"type"`
	TemplateType  string         `json:"template_type,omitempty"`
	RequiresInput bool           `json:"requires_input"`
	MissingInfo   []string       `json:"missing_info,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
