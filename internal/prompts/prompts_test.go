package prompts

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/HendryAvila/pmhelper/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

// --- ResolveMode ---

func TestResolveMode(t *testing.T) {
	cases := []struct {
		name string
		pc   *ProjectContext
		want Mode
	}{
		{"nil context", nil, ModeCreate},
		{"empty context", &ProjectContext{}, ModeCreate},
		{"flag without content", &ProjectContext{HasExistingContent: true}, ModeCreate},
		{"flag with whitespace", &ProjectContext{HasExistingContent: true, ExistingContent: " \n\t "}, ModeCreate},
		{"content without flag", &ProjectContext{ExistingContent: "# PRD"}, ModeCreate},
		{"flag and content", &ProjectContext{HasExistingContent: true, ExistingContent: "# PRD"}, ModeUpdate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveMode(tc.pc))
		})
	}
}

func TestProjectContext_DomainAliases(t *testing.T) {
	var pc ProjectContext
	require.NoError(t, json.Unmarshal([]byte(`{"project_id": 4, "existing_prd": "# Old", "has_existing_prd": true}`), &pc))
	assert.Equal(t, ModeUpdate, ResolveMode(&pc))
	id, ok := pc.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	var spec ProjectContext
	require.NoError(t, json.Unmarshal([]byte(`{"existing_spec": "spec", "has_existing_spec": true}`), &spec))
	assert.Equal(t, "spec", spec.ExistingContent)
	assert.True(t, spec.HasExistingContent)

	var roadmap ProjectContext
	require.NoError(t, json.Unmarshal([]byte(`{"existing_roadmap": [{"title": "A", "quarter": "Q1"}]}`), &roadmap))
	require.Len(t, roadmap.Roadmap(), 1)
	assert.Equal(t, "A", roadmap.Roadmap()[0].Title)
}

func TestProjectContext_NilAccessors(t *testing.T) {
	var pc *ProjectContext
	_, ok := pc.ID()
	assert.False(t, ok)
	assert.Empty(t, pc.Content())
	assert.Nil(t, pc.Roadmap())
}

// --- DetectAssumptionRequest ---

func TestDetectAssumptionRequest_PinsPhraseLists(t *testing.T) {
	assert.Equal(t, []string{
		"answer the questions for me",
		"fill in reasonable defaults",
		"fill in defaults",
		"make assumptions",
		"use your best judgment",
		"create a sample",
		"create an example",
		"fill in the blanks",
		"answer for me",
		"make reasonable assumptions",
		"use industry best practices",
		"create a template",
		"generate with defaults",
	}, AssumptionPhrases(DomainPRD))

	spec := AssumptionPhrases(DomainSpec)
	assert.Equal(t, AssumptionPhrases(DomainPRD), spec[:13])
	assert.Equal(t, []string{
		"design the architecture",
		"create the technical design",
		"specify the implementation",
	}, spec[13:])

	assert.Empty(t, AssumptionPhrases(DomainRoadmap))
}

func TestDetectAssumptionRequest_EveryPhraseMatches(t *testing.T) {
	for _, d := range []Domain{DomainPRD, DomainSpec} {
		for _, p := range AssumptionPhrases(d) {
			msg := "Please " + strings.ToUpper(p) + " and go."
			assert.True(t, DetectAssumptionRequest(d, msg), "%s: %q", d, p)
		}
	}
}

func TestDetectAssumptionRequest_DomainSpecific(t *testing.T) {
	msg := "Design the architecture for a billing service"
	assert.True(t, DetectAssumptionRequest(DomainSpec, msg))
	assert.False(t, DetectAssumptionRequest(DomainPRD, msg))
}

func TestDetectAssumptionRequest_NoMatch(t *testing.T) {
	msg := "Create PRD using lean template: add a feature for password reset"
	assert.False(t, DetectAssumptionRequest(DomainPRD, msg))
	assert.False(t, DetectAssumptionRequest(DomainPRD, "assume whatever"), "paraphrases are not detected")
}

// --- BuildInstructions ---

func specSections(t *testing.T) *templates.Sections {
	t.Helper()
	s, err := templates.NewStore(templates.KindSpec, t.TempDir())
	require.NoError(t, err)
	return s.Sections("api")
}

func TestBuildInstructions_PartOrder(t *testing.T) {
	out := BuildInstructions(InstructionInput{
		Domain:          DomainSpec,
		TemplateType:    "api",
		Mode:            ModeUpdate,
		ExistingContent: "EXISTING-BODY",
		Sections:        specSections(t),
		ProjectID:       int64p(12),
	})

	persona := strings.Index(out, "Technical Architect")
	guidance := strings.Index(out, "Template Context: API Specification")
	content := strings.Index(out, "Current Specification Content:\nEXISTING-BODY")
	structure := strings.Index(out, "Template Structure:\n**API Overview** (Required)")
	directive := strings.Index(out, "MODE: UPDATE")

	for name, idx := range map[string]int{
		"persona": persona, "guidance": guidance, "content": content,
		"structure": structure, "directive": directive,
	} {
		require.GreaterOrEqual(t, idx, 0, name)
	}
	assert.Less(t, persona, guidance)
	assert.Less(t, guidance, content)
	assert.Less(t, content, structure)
	assert.Less(t, structure, directive)

	assert.Contains(t, out, "project_id: 12")
	assert.Contains(t, out, "Call the update_project_spec tool with this project_id only once you have substantial, complete")
	assert.NotContains(t, out, "\n\n\n", "parts are separated by exactly one blank line")
}

func TestBuildInstructions_OmitsMissingParts(t *testing.T) {
	out := BuildInstructions(InstructionInput{
		Domain:       DomainPRD,
		TemplateType: "custom",
		Mode:         ModeCreate,
	})

	assert.NotContains(t, out, "Template Context:")
	assert.NotContains(t, out, "Current PRD Content:")
	assert.NotContains(t, out, "Template Structure:")
	assert.Contains(t, out, "MODE: CREATE\n")
	assert.Contains(t, out, "project_id: none")
	assert.Contains(t, out, "do not call update_project_prd")
}

func TestBuildInstructions_WorkingStateSnapshot(t *testing.T) {
	out := BuildInstructions(InstructionInput{
		Domain:       DomainPRD,
		Mode:         ModeCreate,
		WorkingState: map[string]any{"existing_content": "draft from last turn"},
	})
	assert.Contains(t, out, "Current PRD Content:\n{\n  \"existing_content\": \"draft from last turn\"\n}")
}

func TestBuildInstructions_CreateDirectives(t *testing.T) {
	base := InstructionInput{Domain: DomainPRD, TemplateType: "lean", Mode: ModeCreate, ProjectID: int64p(3)}

	ask := BuildInstructions(base)
	assert.Contains(t, ask, "ask focused clarifying questions")
	assert.NotContains(t, ask, "assumptions requested")

	base.Assumptions = true
	assume := BuildInstructions(base)
	assert.Contains(t, assume, "MODE: CREATE (assumptions requested)")
	assert.Contains(t, assume, "clearly annotate every assumption")
	assert.Contains(t, assume, "using the lean template")
}

func TestBuildInstructions_UpdateIgnoresAssumptions(t *testing.T) {
	out := BuildInstructions(InstructionInput{
		Domain:          DomainPRD,
		Mode:            ModeUpdate,
		Assumptions:     true,
		ExistingContent: "x",
	})
	assert.Contains(t, out, "MODE: UPDATE")
	assert.NotContains(t, out, "assumptions requested")
}

func TestBuildInstructions_Roadmap(t *testing.T) {
	out := BuildInstructions(InstructionInput{Domain: DomainRoadmap, ProjectID: int64p(8)})
	assert.True(t, strings.HasPrefix(out, "You are a Roadmap Planning Assistant"))
	assert.Contains(t, out, "MODE: ROADMAP PLANNING")
	assert.Contains(t, out, "Call the create_roadmap_tasks tool")
}

func TestBuildInstructions_CustomToolName(t *testing.T) {
	out := BuildInstructions(InstructionInput{Domain: DomainPRD, UpdateTool: "save_prd"})
	assert.Contains(t, out, "The save_prd tool saves PRD content")
	assert.Contains(t, out, "Call the save_prd tool")
}

// --- BuildUserPrompt ---

func TestBuildUserPrompt(t *testing.T) {
	out := BuildUserPrompt(PromptInput{
		Message:         "add SSO",
		TemplateType:    "lean",
		ExistingContent: "# Existing",
		ProjectID:       int64p(9),
	})
	assert.Equal(t, "EXISTING CONTENT:\n# Existing\n\nUSER REQUEST: add SSO\n\nTEMPLATE: lean\n\nPROJECT ID: 9", out)
}

func TestBuildUserPrompt_NoContentNoProject(t *testing.T) {
	out := BuildUserPrompt(PromptInput{Message: "hello"})
	assert.Equal(t, "USER REQUEST: hello\n\nPROJECT ID: none", out)
}

// --- Roadmap prompts ---

func TestBuildRoadmapPrompt(t *testing.T) {
	out := BuildRoadmapPrompt(RoadmapPromptInput{
		Message:         "plan Q1",
		ProjectID:       int64p(2),
		PRDContent:      "# PRD",
		ExistingRoadmap: []backend.Task{{Title: "Auth", Quarter: "Q1 2025"}},
	})
	assert.True(t, strings.HasPrefix(out, "USER REQUEST: plan Q1\n\nPROJECT ID: 2\n\nPRD CONTENT:\n# PRD\n\nEXISTING ROADMAP:\n["))
	assert.Contains(t, out, `"title": "Auth"`)
	assert.Contains(t, out, "create_roadmap_tasks")
}

func TestBuildRoadmapPrompt_Minimal(t *testing.T) {
	out := BuildRoadmapPrompt(RoadmapPromptInput{Message: "hi"})
	assert.NotContains(t, out, "PROJECT ID")
	assert.NotContains(t, out, "PRD CONTENT")
	assert.NotContains(t, out, "EXISTING ROADMAP")
}

func TestBuildRoadmapFromPRDPrompt(t *testing.T) {
	out := BuildRoadmapFromPRDPrompt(5, "# PRD body", nil)
	assert.True(t, strings.HasPrefix(out, "PROJECT ID: 5\n\nPRD CONTENT:\n# PRD body\n\nEXISTING ROADMAP TASKS:\n[]"))
	assert.Contains(t, out, "Use the create_roadmap_tasks tool")
}

// --- AssessInput ---

func TestAssessInput_Detailed(t *testing.T) {
	a := AssessInput(DomainPRD,
		"Build a product called Tracker that solves the problem of lost invoices for small business customers. "+
			"It must allow uploads and we measure success by a 20% reduction in late payments.")
	assert.True(t, a.IsSufficient)
	assert.False(t, a.IsUnderspecified)
	assert.Equal(t, 1.0, a.CompletenessScore)
	assert.Empty(t, a.MissingInfo)
}

func TestAssessInput_Underspecified(t *testing.T) {
	a := AssessInput(DomainPRD, "make a thing")
	assert.True(t, a.IsUnderspecified)
	assert.False(t, a.IsSufficient)
	assert.Contains(t, a.MissingInfo, "Problem Statement")
	assert.Contains(t, a.MissingInfo, "Success Metric")
}

func TestAssessInput_SpecUsesSpecList(t *testing.T) {
	a := AssessInput(DomainSpec, "x")
	assert.Len(t, a.MissingInfo, 6)
	assert.Contains(t, a.MissingInfo, "Integration Points")
}

// --- DraftPrompt ---

func TestDraftPrompt_Definition(t *testing.T) {
	store, err := templates.NewStore(templates.KindSpec, t.TempDir())
	require.NoError(t, err)
	p := NewDraftPrompt(DomainSpec, store)

	def := p.Definition()
	assert.Equal(t, "pm-draft-spec", def.Name)
	require.NotEmpty(t, def.Arguments)
	assert.Equal(t, "request", def.Arguments[0].Name)
	assert.True(t, def.Arguments[0].Required)
}

func TestDraftPrompt_Handle(t *testing.T) {
	store, err := templates.NewStore(templates.KindSpec, t.TempDir())
	require.NoError(t, err)
	p := NewDraftPrompt(DomainSpec, store)

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{
		"request":    "design the architecture for payments",
		"project_id": "42",
	}
	res, err := p.Handle(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)

	text, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "MODE: CREATE (assumptions requested)")
	assert.Contains(t, text.Text, "project_id: 42")
	assert.Contains(t, text.Text, "**API Overview** (Required)")
	assert.Contains(t, text.Text, "USER REQUEST: design the architecture for payments")
}

func TestDraftPrompt_HandleErrors(t *testing.T) {
	store, err := templates.NewStore(templates.KindPRD, t.TempDir())
	require.NoError(t, err)
	p := NewDraftPrompt(DomainPRD, store)

	req := mcp.GetPromptRequest{}
	_, err = p.Handle(context.Background(), req)
	assert.Error(t, err)

	req.Params.Arguments = map[string]string{"request": "x", "project_id": "abc"}
	_, err = p.Handle(context.Background(), req)
	assert.Error(t, err)
}
