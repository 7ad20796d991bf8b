package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/pmhelper/internal/agent"
	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/HendryAvila/pmhelper/internal/conversation"
	"github.com/HendryAvila/pmhelper/internal/httpx"
	"github.com/HendryAvila/pmhelper/internal/prompts"
	"github.com/HendryAvila/pmhelper/internal/templates"
	"github.com/rs/zerolog"
)

// guarded serializes turns on one agent.
type guarded struct {
	mu    sync.Mutex
	agent *agent.Agent
}

func (g *guarded) do(fn func(a *agent.Agent)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.agent)
}

// HTTPServer is the HTTP adapter over the three agents.
type HTTPServer struct {
	app    *App
	agents map[prompts.Domain]*guarded
	log    zerolog.Logger
}

// NewHTTPHandler returns the agent HTTP API.
func NewHTTPHandler(app *App) http.Handler {
	s := &HTTPServer{
		app: app,
		agents: map[prompts.Domain]*guarded{
			prompts.DomainPRD:     {agent: app.PRD},
			prompts.DomainSpec:    {agent: app.Spec},
			prompts.DomainRoadmap: {agent: app.Roadmap},
		},
		log: app.Log.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /agents/chat", s.handleChat)
	mux.HandleFunc("GET /agents/templates", s.handleTemplates)
	mux.HandleFunc("GET /agents/templates/{type}", s.handleTemplateInfo)
	mux.HandleFunc("GET /agents/conversation", s.handleConversation)
	mux.HandleFunc("POST /agents/conversation/clear", s.handleClear)

	mux.HandleFunc("POST /agents/generate-prd", s.handleGenerate(prompts.DomainPRD))
	mux.HandleFunc("POST /agents/generate-spec", s.handleGenerate(prompts.DomainSpec))
	mux.HandleFunc("POST /agents/generate-roadmap", s.handleGenerateRoadmap)

	mux.HandleFunc("POST /agents/roadmap/chat", s.handleRoadmapChat)
	mux.HandleFunc("GET /agents/roadmap/conversation", s.handleRoadmapConversation)
	mux.HandleFunc("POST /agents/roadmap/conversation/clear", s.handleRoadmapClear)

	mux.HandleFunc("POST /agents/validate", s.handleValidate)
	mux.HandleFunc("GET /agents/config", s.handleConfig)

	return httpx.Chain(mux, httpx.WithLogging(s.log), httpx.WithCORS)
}

// chatRequest is the body shared by the chat and generate endpoints.
type chatRequest struct {
	Message        string                  `json:"message"`
	TemplateType   string                  `json:"template_type"`
	AgentType      string                  `json:"agent_type"`
	ProjectID      *int64                  `json:"project_id"`
	ProjectContext *prompts.ProjectContext `json:"project_context"`
	ChatHistory    []conversation.Message  `json:"chat_history"`
}

// toAgent folds the top-level project_id into the project context.
func (r chatRequest) toAgent() agent.ChatRequest {
	pc := r.ProjectContext
	if r.ProjectID != nil {
		if pc == nil {
			pc = &prompts.ProjectContext{}
		}
		if pc.ProjectID == nil {
			id := *r.ProjectID
			pc.ProjectID = &id
		}
	}
	return agent.ChatRequest{
		Message:        r.Message,
		TemplateType:   r.TemplateType,
		ProjectContext: pc,
		History:        r.ChatHistory,
	}
}

// --- Handlers ---

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "pmhelper"})
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}
	d, ok := s.domainOf(w, req.AgentType)
	if !ok {
		return
	}

	var resp agent.Response
	s.agents[d].do(func(a *agent.Agent) {
		resp = a.Chat(r.Context(), req.toAgent())
	})
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleTemplates(w http.ResponseWriter, r *http.Request) {
	agentType := r.URL.Query().Get("agent_type")
	d, ok := s.domainOf(w, agentType)
	if !ok {
		return
	}
	var types []string
	s.agents[d].do(func(a *agent.Agent) { types = a.AvailableTemplates() })
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"templates": types, "agent_type": string(d)})
}

func (s *HTTPServer) handleTemplateInfo(w http.ResponseWriter, r *http.Request) {
	d, ok := s.domainOf(w, r.URL.Query().Get("agent_type"))
	if !ok {
		return
	}
	templateType := r.PathValue("type")

	var info templates.Info
	s.agents[d].do(func(a *agent.Agent) { info = a.TemplateInfo(templateType) })
	if !info.Found() {
		httpx.Error(w, http.StatusNotFound, fmt.Sprintf("Template %s not found for %s agent", templateType, d))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, info)
}

func (s *HTTPServer) handleConversation(w http.ResponseWriter, r *http.Request) {
	d, ok := s.domainOf(w, r.URL.Query().Get("agent_type"))
	if !ok {
		return
	}
	s.writeHistory(w, d)
}

func (s *HTTPServer) handleClear(w http.ResponseWriter, r *http.Request) {
	d, ok := s.domainOf(w, r.URL.Query().Get("agent_type"))
	if !ok {
		return
	}
	s.clear(w, d)
}

// handleGenerate runs one turn on a fresh conversation.
func (s *HTTPServer) handleGenerate(d prompts.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := s.decodeChat(w, r)
		if !ok {
			return
		}
		in := req.toAgent()
		in.History = nil

		var resp agent.Response
		s.agents[d].do(func(a *agent.Agent) {
			a.ClearConversation()
			resp = a.Chat(r.Context(), in)
		})
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func (s *HTTPServer) handleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	in := req.toAgent()

	projectID, ok := in.ProjectContext.ID()
	if !ok {
		httpx.BadRequest(w, "Project ID is required for roadmap generation")
		return
	}
	prd := in.ProjectContext.Content()
	if strings.TrimSpace(prd) == "" {
		httpx.BadRequest(w, "PRD content is required for roadmap generation")
		return
	}
	existing := in.ProjectContext.Roadmap()
	if existing == nil {
		existing = []backend.Task{}
	}

	var resp agent.Response
	s.agents[prompts.DomainRoadmap].do(func(a *agent.Agent) {
		resp = a.GenerateFromPRD(r.Context(), projectID, prd, existing)
	})
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleRoadmapChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}
	var resp agent.Response
	s.agents[prompts.DomainRoadmap].do(func(a *agent.Agent) {
		resp = a.Chat(r.Context(), req.toAgent())
	})
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleRoadmapConversation(w http.ResponseWriter, _ *http.Request) {
	s.writeHistory(w, prompts.DomainRoadmap)
}

func (s *HTTPServer) handleRoadmapClear(w http.ResponseWriter, _ *http.Request) {
	s.clear(w, prompts.DomainRoadmap)
}

func (s *HTTPServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input     string `json:"input"`
		AgentType string `json:"agent_type"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	d := prompts.DomainPRD
	if req.AgentType == string(prompts.DomainSpec) {
		d = prompts.DomainSpec
	}
	httpx.WriteJSON(w, http.StatusOK, prompts.AssessInput(d, req.Input))
}

func (s *HTTPServer) handleConfig(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, s.app.Config.Public())
}

// --- Helpers ---

func (s *HTTPServer) decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		httpx.BadRequest(w, "message is required")
		return req, false
	}
	return req, true
}

// domainOf maps agent_type to an agent; empty selects the PRD agent.
func (s *HTTPServer) domainOf(w http.ResponseWriter, agentType string) (prompts.Domain, bool) {
	switch strings.ToLower(strings.TrimSpace(agentType)) {
	case "", string(prompts.DomainPRD):
		return prompts.DomainPRD, true
	case string(prompts.DomainSpec):
		return prompts.DomainSpec, true
	case string(prompts.DomainRoadmap):
		return prompts.DomainRoadmap, true
	}
	httpx.BadRequest(w, fmt.Sprintf("unknown agent_type %q (want prd, spec or roadmap)", agentType))
	return "", false
}

func (s *HTTPServer) writeHistory(w http.ResponseWriter, d prompts.Domain) {
	var msgs []conversation.Message
	s.agents[d].do(func(a *agent.Agent) { msgs = a.ConversationHistory() })
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *HTTPServer) clear(w http.ResponseWriter, d prompts.Domain) {
	s.agents[d].do(func(a *agent.Agent) { a.ClearConversation() })
	label := strings.ToUpper(string(d))
	if d == prompts.DomainRoadmap {
		label = "Roadmap"
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": label + " conversation cleared successfully"})
}

// shutdownTimeout bounds graceful shutdown of ListenAndServe.
const shutdownTimeout = 10 * time.Second

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("http shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
