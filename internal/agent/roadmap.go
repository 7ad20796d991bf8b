package agent

import (
	"context"
	"fmt"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/HendryAvila/pmhelper/internal/conversation"
	"github.com/HendryAvila/pmhelper/internal/prompts"
)

// InteractionChat marks roadmap chat turns in metadata.
const InteractionChat = "chat_response"

func (a *Agent) roadmapChat(ctx context.Context, req ChatRequest, prior []conversation.Message) Response {
	pc := req.ProjectContext
	projectID := pc.IDPtr()
	existing := pc.Roadmap()

	// A roadmap turn updates when the project already has tasks.
	mode := prompts.ModeCreate
	if len(existing) > 0 {
		mode = prompts.ModeUpdate
	}

	instructions := prompts.BuildInstructions(prompts.InstructionInput{
		Domain:     prompts.DomainRoadmap,
		Mode:       mode,
		ProjectID:  projectID,
		UpdateTool: a.updateTool,
	})
	prompt := prompts.BuildRoadmapPrompt(prompts.RoadmapPromptInput{
		Message:         req.Message,
		ProjectID:       projectID,
		PRDContent:      pc.Content(),
		ExistingRoadmap: existing,
	})

	res, err := a.run(ctx, instructions, prompt, prior)
	if err != nil {
		return a.errorResponse(err)
	}

	return Response{
		Content: res.Output,
		Type:    TypeRoadmapContent,
		Metadata: map[string]any{
			MetaMode:          string(mode),
			MetaInteraction:   InteractionChat,
			MetaProjectID:     metaID(projectID),
			MetaToolCallsMade: len(res.ToolCalls) > 0,
			MetaToolCalls:     toolNames(res.ToolCalls),
		},
	}
}

// GenerateFromPRD asks the model to break prd into roadmap tasks for
// projectID and save them. It does not touch the conversation.
func (a *Agent) GenerateFromPRD(ctx context.Context, projectID int64, prd string, existing []backend.Task) Response {
	if a.domain != prompts.DomainRoadmap {
		return a.errorResponse(fmt.Errorf("%s agent cannot generate roadmaps", a.domain))
	}

	return a.safely(func() Response {
		instructions := prompts.BuildInstructions(prompts.InstructionInput{
			Domain:     prompts.DomainRoadmap,
			Mode:       prompts.ModeCreate,
			ProjectID:  &projectID,
			UpdateTool: a.updateTool,
		})
		prompt := prompts.BuildRoadmapFromPRDPrompt(projectID, prd, existing)

		res, err := a.run(ctx, instructions, prompt, nil)
		if err != nil {
			resp := a.errorResponse(err)
			resp.Content = fmt.Sprintf("I encountered an error while generating the roadmap: %v. Please try again or provide more specific information.", err)
			return resp
		}
		return Response{
			Content: res.Output,
			Type:    TypeRoadmapGeneration,
			Metadata: map[string]any{
				MetaMode:          ModePRDAnalysis,
				MetaProjectID:     projectID,
				MetaHasRoadmap:    len(existing) > 0,
				MetaToolCallsMade: len(res.ToolCalls) > 0,
				MetaToolCalls:     toolNames(res.ToolCalls),
			},
		}
	})
}

func metaID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
