package server

import (
	"fmt"

	"github.com/HendryAvila/pmhelper/internal/agent"
	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/HendryAvila/pmhelper/internal/config"
	"github.com/HendryAvila/pmhelper/internal/conversation"
	"github.com/HendryAvila/pmhelper/internal/llm"
	"github.com/HendryAvila/pmhelper/internal/logging"
	"github.com/HendryAvila/pmhelper/internal/prompts"
	"github.com/HendryAvila/pmhelper/internal/templates"
	"github.com/HendryAvila/pmhelper/internal/tools"
	"github.com/rs/zerolog"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App holds every wired component. It is built once at startup and shared
// by the MCP server, the HTTP adapter and the CLI.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	Backend       *backend.Client
	PRDTemplates  *templates.Store
	SpecTemplates *templates.Store

	// Tools is the full tool set exposed over MCP.
	Tools *tools.Registry

	PRD     *agent.Agent
	Spec    *agent.Agent
	Roadmap *agent.Agent
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	runtime  llm.Runtime
	prdDocs  tools.DocumentStore
	specDocs tools.DocumentStore
	roadmap  tools.RoadmapStore
}

// WithRuntime replaces the runtime built from llm.provider.
func WithRuntime(rt llm.Runtime) Option {
	return func(o *buildOptions) { o.runtime = rt }
}

// WithStores replaces the backend-client stores.
func WithStores(prd, spec tools.DocumentStore, roadmap tools.RoadmapStore) Option {
	return func(o *buildOptions) {
		o.prdDocs = prd
		o.specDocs = spec
		o.roadmap = roadmap
	}
}

// Build resolves every dependency from cfg. cfg must already be validated.
func Build(cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	// --- Shared dependencies ---

	client := backend.New(cfg.Backend.URL, backend.WithTimeout(cfg.Backend.Timeout))
	if o.prdDocs == nil {
		o.prdDocs = client.PRDs()
	}
	if o.specDocs == nil {
		o.specDocs = client.Specs()
	}
	if o.roadmap == nil {
		o.roadmap = client.Roadmap()
	}

	storeOpts := []templates.Option{
		templates.WithLogger(logging.Component(log, "templates")),
		templates.WithCacheSize(cfg.Templates.CacheSize),
	}
	prdTemplates, err := templates.NewStore(templates.KindPRD, cfg.Templates.Dir, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating PRD template store: %w", err)
	}
	specTemplates, err := templates.NewStore(templates.KindSpec, cfg.Templates.Dir, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating spec template store: %w", err)
	}

	rt := o.runtime
	if rt == nil {
		rt, err = NewRuntime(cfg.LLM, logging.Component(log, "llm"))
		if err != nil {
			return nil, err
		}
	}

	// --- Tool sets ---

	var fallback *tools.FallbackRoadmap
	if cfg.Roadmap.Fallback {
		fallback = tools.NewFallbackRoadmap(o.roadmap, logging.Component(log, "fallback"))
	}
	prdTools := tools.PRDTools(o.prdDocs, fallback)
	specTools := tools.SpecTools(o.specDocs)
	roadmapTools := tools.RoadmapTools(o.roadmap)

	toolLog := logging.Component(log, "tools")
	prdRegistry, err := tools.NewRegistry(toolLog, prdTools...)
	if err != nil {
		return nil, fmt.Errorf("declaring PRD tools: %w", err)
	}
	specRegistry, err := tools.NewRegistry(toolLog, specTools...)
	if err != nil {
		return nil, fmt.Errorf("declaring spec tools: %w", err)
	}
	roadmapRegistry, err := tools.NewRegistry(toolLog, roadmapTools...)
	if err != nil {
		return nil, fmt.Errorf("declaring roadmap tools: %w", err)
	}

	all := append(append(append([]tools.Tool{}, prdTools...), specTools...), roadmapTools...)
	allRegistry, err := tools.NewRegistry(toolLog, all...)
	if err != nil {
		return nil, fmt.Errorf("declaring MCP tools: %w", err)
	}

	// --- Agents ---

	history := []conversation.Option{conversation.WithMaxMessages(cfg.History.MaxMessages)}
	newAgent := func(d prompts.Domain, store *templates.Store, reg *tools.Registry) (*agent.Agent, error) {
		a, err := agent.New(agent.Options{
			Domain:    d,
			Templates: store,
			Runtime:   rt,
			Tools:     reg,
			Logger:    log,
			History:   history,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s agent: %w", d, err)
		}
		return a, nil
	}

	prdAgent, err := newAgent(prompts.DomainPRD, prdTemplates, prdRegistry)
	if err != nil {
		return nil, err
	}
	specAgent, err := newAgent(prompts.DomainSpec, specTemplates, specRegistry)
	if err != nil {
		return nil, err
	}
	roadmapAgent, err := newAgent(prompts.DomainRoadmap, nil, roadmapRegistry)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", rt.Name()).
		Str("backend", client.BaseURL()).
		Str("templates", cfg.Templates.Dir).
		Msg("components ready")

	return &App{
		Config:        cfg,
		Log:           log,
		Backend:       client,
		PRDTemplates:  prdTemplates,
		SpecTemplates: specTemplates,
		Tools:         allRegistry,
		PRD:           prdAgent,
		Spec:          specAgent,
		Roadmap:       roadmapAgent,
	}, nil
}

// NewRuntime builds the model runtime selected by cfg.Provider.
func NewRuntime(cfg config.LLMConfig, log zerolog.Logger) (llm.Runtime, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicRuntime(llm.AnthropicConfig{
			APIKey:        cfg.APIKey,
			Model:         cfg.DefaultModel(),
			BaseURL:       cfg.BaseURL,
			MaxTokens:     cfg.MaxTokens,
			MaxIterations: cfg.MaxIterations,
		}, log)
	case config.ProviderOpenAI:
		return llm.NewOpenAIRuntime(llm.OpenAIConfig{
			APIKey:        cfg.APIKey,
			Model:         cfg.DefaultModel(),
			BaseURL:       cfg.BaseURL,
			MaxTokens:     cfg.MaxTokens,
			MaxIterations: cfg.MaxIterations,
		}, log)
	case config.ProviderScripted:
		return llm.NewScriptedRuntime(), nil
	}
	return nil, fmt.Errorf("%w: llm.provider %q", config.ErrInvalid, cfg.Provider)
}
