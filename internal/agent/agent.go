// Package agent resolves one user turn of the PRD, Spec or Roadmap
// workflow into one response: it records the turn, decides the generation
// mode, composes the prompt, runs the model with the domain's tools and
// shapes the result.
//
// An Agent is not safe for concurrent turns; callers serialize per agent.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/conversation"
	"github.com/HendryAvila/pmhelper/internal/llm"
	"github.com/HendryAvila/pmhelper/internal/prompts"
	"github.com/HendryAvila/pmhelper/internal/templates"
	"github.com/HendryAvila/pmhelper/internal/tools"
	"github.com/rs/zerolog"
)

// ErrConfig reports an Agent built from incomplete options.
var ErrConfig = errors.New("agent: invalid configuration")

// Options configures an Agent.
type Options struct {
	Domain prompts.Domain
	// Templates is required for the PRD and Spec domains.
	Templates *templates.Store
	Runtime   llm.Runtime
	Tools     *tools.Registry
	Logger    zerolog.Logger
	// History configures the conversation, e.g. a message cap.
	History []conversation.Option
	// UpdateTool overrides the save tool named in the instructions.
	UpdateTool string
}

// Agent is the chat entry point of one domain.
type Agent struct {
	domain     prompts.Domain
	templates  *templates.Store
	runtime    llm.Runtime
	tools      *tools.Registry
	log        zerolog.Logger
	updateTool string

	history         *conversation.History
	workingState    map[string]any
	currentTemplate string
}

// New validates opts and creates an Agent.
func New(opts Options) (*Agent, error) {
	switch opts.Domain {
	case prompts.DomainPRD, prompts.DomainSpec:
		if opts.Templates == nil {
			return nil, fmt.Errorf("%w: %s agent needs a template store", ErrConfig, opts.Domain)
		}
	case prompts.DomainRoadmap:
	default:
		return nil, fmt.Errorf("%w: unknown domain %q", ErrConfig, opts.Domain)
	}
	if opts.Runtime == nil {
		return nil, fmt.Errorf("%w: %s agent needs a model runtime", ErrConfig, opts.Domain)
	}
	if opts.Tools == nil {
		return nil, fmt.Errorf("%w: %s agent needs a tool registry", ErrConfig, opts.Domain)
	}

	return &Agent{
		domain:       opts.Domain,
		templates:    opts.Templates,
		runtime:      opts.Runtime,
		tools:        opts.Tools,
		log:          opts.Logger.With().Str("agent", string(opts.Domain)).Logger(),
		updateTool:   opts.UpdateTool,
		history:      conversation.New(opts.History...),
		workingState: map[string]any{},
	}, nil
}

// Domain returns the agent's domain.
func (a *Agent) Domain() prompts.Domain { return a.domain }

// Chat records the user turn, runs the model and records the answer.
// Failures never escape: they become a TypeError response.
func (a *Agent) Chat(ctx context.Context, req ChatRequest) Response {
	if len(req.History) > 0 {
		if skipped := a.history.ReplaceAll(req.History); skipped > 0 {
			a.log.Warn().Int("skipped", skipped).Msg("chat history: dropped messages with unknown roles")
		}
	}
	prior := a.history.Snapshot()
	a.history.Append(conversation.Message{Role: conversation.RoleUser, Content: req.Message})

	resp := a.safely(func() Response {
		if a.domain == prompts.DomainRoadmap {
			return a.roadmapChat(ctx, req, prior)
		}
		return a.documentChat(ctx, req, prior)
	})

	a.history.Append(conversation.Message{
		Role:     conversation.RoleAssistant,
		Content:  resp.Content,
		Metadata: resp.Metadata,
	})
	return resp
}

// AvailableTemplates lists the template types of the domain.
func (a *Agent) AvailableTemplates() []string {
	if a.templates == nil {
		return []string{}
	}
	return a.templates.AvailableTypes()
}

// TemplateInfo describes one template; the zero Info means not found.
func (a *Agent) TemplateInfo(templateType string) templates.Info {
	if a.templates == nil {
		return templates.Info{}
	}
	return a.templates.Info(a.resolveTemplate(templateType))
}

// ConversationHistory returns a copy of the conversation.
func (a *Agent) ConversationHistory() []conversation.Message {
	return a.history.Snapshot()
}

// ClearConversation drops the conversation and the working state.
func (a *Agent) ClearConversation() {
	a.history.Clear()
	a.workingState = map[string]any{}
	a.currentTemplate = ""
}

func (a *Agent) documentChat(ctx context.Context, req ChatRequest, prior []conversation.Message) Response {
	templateType := a.resolveTemplate(req.TemplateType)
	a.currentTemplate = templateType

	pc := req.ProjectContext
	if content := pc.Content(); strings.TrimSpace(content) != "" {
		a.workingState = map[string]any{"existing_content": content}
	}

	mode := prompts.ResolveMode(pc)
	assumptions := mode == prompts.ModeCreate && prompts.DetectAssumptionRequest(a.domain, req.Message)
	sections := a.templates.Sections(templateType)
	projectID := pc.IDPtr()

	instructions := prompts.BuildInstructions(prompts.InstructionInput{
		Domain:          a.domain,
		TemplateType:    templateType,
		Mode:            mode,
		Assumptions:     assumptions,
		ExistingContent: pc.Content(),
		WorkingState:    a.workingState,
		Sections:        sections,
		ProjectID:       projectID,
		UpdateTool:      a.updateTool,
	})
	promptIn := prompts.PromptInput{
		Message:      req.Message,
		TemplateType: templateType,
		ProjectID:    projectID,
	}
	if mode == prompts.ModeUpdate {
		promptIn.ExistingContent = pc.Content()
	}

	a.log.Debug().
		Str("mode", string(mode)).
		Str("template", templateType).
		Bool("assumptions", assumptions).
		Msg("running turn")

	res, err := a.run(ctx, instructions, prompts.BuildUserPrompt(promptIn), prior)
	if err != nil {
		return a.errorResponse(err)
	}

	resp := Response{
		Content:      res.Output,
		Type:         a.contentType(),
		TemplateType: templateType,
		Metadata: map[string]any{
			MetaMode:              string(mode),
			MetaSectionsGenerated: templates.SectionKeys(sections),
			MetaToolCallsMade:     len(res.ToolCalls) > 0,
			MetaToolCalls:         toolNames(res.ToolCalls),
			MetaAssumptionsMade:   assumptions,
		},
	}
	if mode == prompts.ModeCreate && !assumptions && len(res.ToolCalls) == 0 {
		if as := prompts.AssessInput(a.domain, req.Message); !as.IsSufficient {
			resp.RequiresInput = true
			resp.MissingInfo = as.MissingInfo
		}
	}
	return resp
}

func (a *Agent) run(ctx context.Context, instructions, prompt string, prior []conversation.Message) (llm.Result, error) {
	return a.runtime.Run(ctx, llm.Request{
		Instructions: instructions,
		Prompt:       prompt,
		History:      toLLMHistory(prior),
		Tools:        a.tools.Specs(),
	}, a.tools)
}

// resolveTemplate applies the domain default and, for specs, maps PRD
// template names onto the default spec template.
func (a *Agent) resolveTemplate(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		t = a.currentTemplate
	}
	switch a.domain {
	case prompts.DomainSpec:
		if t == "" || prompts.IsPRDTemplateType(t) {
			return templates.FallbackSpecType
		}
	case prompts.DomainPRD:
		if t == "" {
			return DefaultPRDTemplate
		}
	}
	return t
}

// DefaultPRDTemplate is the PRD template used when none is requested.
const DefaultPRDTemplate = "lean"

func (a *Agent) contentType() ResponseType {
	switch a.domain {
	case prompts.DomainSpec:
		return TypeSpecContent
	case prompts.DomainRoadmap:
		return TypeRoadmapContent
	}
	return TypePRDContent
}

func (a *Agent) errorResponse(err error) Response {
	a.log.Error().Err(err).Msg("turn failed")

	what := "generating the PRD"
	switch a.domain {
	case prompts.DomainSpec:
		what = "generating the technical specification"
	case prompts.DomainRoadmap:
		what = "processing your roadmap request"
	}
	return Response{
		Content: fmt.Sprintf("I encountered an error while %s: %v. Please try again or provide more specific information.", what, err),
		Type:    TypeError,
	}
}

// safely runs fn, turning a panic into an error response.
func (a *Agent) safely(fn func() Response) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			resp = a.errorResponse(fmt.Errorf("unexpected failure: %v", p))
		}
	}()
	return fn()
}

func toLLMHistory(msgs []conversation.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func toolNames(calls []llm.ToolInvocation) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}
