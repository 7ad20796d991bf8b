package devbackend

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/HendryAvila/pmhelper/internal/httpx"
	"github.com/rs/zerolog"
)

// Server serves the persistence REST API from a Store.
type Server struct {
	store *Store
	log   zerolog.Logger
}

// NewHandler returns the REST API over store.
func NewHandler(store *Store, log zerolog.Logger) http.Handler {
	s := &Server{store: store, log: log.With().Str("component", "devbackend").Logger()}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	for _, kind := range []Kind{KindPRD, KindSpec} {
		base := "/api/projects/{id}/" + string(kind)
		mux.HandleFunc("GET "+base, s.handleGetDocument(kind))
		mux.HandleFunc("POST "+base, s.handleCreateDocument(kind))
		mux.HandleFunc("PUT "+base, s.handleUpdateDocument(kind))
	}

	mux.HandleFunc("GET /api/projects/{id}/roadmap", s.handleListTasks)
	mux.HandleFunc("POST /api/projects/{id}/roadmap", s.handleCreateTask)
	mux.HandleFunc("DELETE /api/projects/{id}/roadmap", s.handleClearTasks)
	mux.HandleFunc("POST /api/projects/{id}/roadmap/bulk", s.handleBulkCreate)
	mux.HandleFunc("GET /api/projects/{id}/roadmap/quarter/{quarter}", s.handleListTasks)
	mux.HandleFunc("GET /api/projects/{id}/roadmap/status/{status}", s.handleListTasks)

	mux.HandleFunc("GET /api/roadmap/{task_id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/roadmap/{task_id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/roadmap/{task_id}", s.handleDeleteTask)

	return httpx.Chain(mux, httpx.WithLogging(s.log))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Documents ---

func (s *Server) handleGetDocument(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := s.projectID(w, r)
		if !ok {
			return
		}
		doc, err := s.store.GetDocument(r.Context(), kind, projectID)
		if err != nil {
			s.storeError(w, err, documentNotFound(kind))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, doc)
	}
}

func (s *Server) handleCreateDocument(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := s.projectID(w, r)
		if !ok {
			return
		}
		var in DocumentInput
		if err := httpx.DecodeJSON(w, r, &in); err != nil {
			httpx.BadRequest(w, "invalid JSON body")
			return
		}
		if strings.TrimSpace(in.Content) == "" {
			httpx.BadRequest(w, "content is required")
			return
		}

		doc, err := s.store.CreateDocument(r.Context(), kind, projectID, in)
		if errors.Is(err, ErrExists) {
			httpx.Error(w, http.StatusConflict, fmt.Sprintf("%s already exists for this project", documentNoun(kind)))
			return
		}
		if err != nil {
			httpx.InternalError(w, s.log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, doc)
	}
}

func (s *Server) handleUpdateDocument(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := s.projectID(w, r)
		if !ok {
			return
		}
		var p DocumentPatch
		if err := httpx.DecodeJSON(w, r, &p); err != nil {
			httpx.BadRequest(w, "invalid JSON body")
			return
		}

		doc, err := s.store.UpdateDocument(r.Context(), kind, projectID, p)
		if err != nil {
			s.storeError(w, err, documentNotFound(kind))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, doc)
	}
}

func documentNoun(kind Kind) string {
	if kind == KindSpec {
		return "Technical specification"
	}
	return "PRD"
}

func documentNotFound(kind Kind) string {
	return documentNoun(kind) + " not found"
}

// --- Roadmap ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), projectID, TaskFilter{
		Quarter: r.PathValue("quarter"),
		Status:  r.PathValue("status"),
	})
	if err != nil {
		httpx.InternalError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}
	var t backend.Task
	if err := httpx.DecodeJSON(w, r, &t); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if err := validateTask(t); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	created, err := s.store.CreateTask(r.Context(), projectID, t)
	if err != nil {
		httpx.InternalError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		Tasks []backend.Task `json:"tasks"`
	}
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if len(body.Tasks) == 0 {
		httpx.BadRequest(w, "tasks must be a non-empty array")
		return
	}
	for _, t := range body.Tasks {
		if err := validateTask(t); err != nil {
			httpx.BadRequest(w, err.Error())
			return
		}
	}

	created, err := s.store.BulkCreateTasks(r.Context(), projectID, body.Tasks)
	if err != nil {
		httpx.InternalError(w, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleClearTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}
	if err := s.store.ClearTasks(r.Context(), projectID); err != nil {
		httpx.InternalError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "Roadmap task not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	var u backend.TaskUpdate
	if err := httpx.DecodeJSON(w, r, &u); err != nil {
		httpx.BadRequest(w, "invalid JSON body")
		return
	}
	if u.Empty() {
		httpx.BadRequest(w, "No fields to update")
		return
	}
	if err := validateUpdate(u); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	t, err := s.store.UpdateTask(r.Context(), id, u)
	if err != nil {
		s.storeError(w, err, "Roadmap task not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		s.storeError(w, err, "Roadmap task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Validation ---

func validateTask(t backend.Task) error {
	if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Quarter) == "" {
		return backend.ErrInvalidBatch
	}
	return validateEnums(&t.Priority, &t.EstimatedEffort, &t.Status)
}

func validateUpdate(u backend.TaskUpdate) error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return errors.New("title must not be empty")
	}
	if u.Quarter != nil && strings.TrimSpace(*u.Quarter) == "" {
		return errors.New("quarter must not be empty")
	}
	return validateEnums(u.Priority, u.EstimatedEffort, u.Status)
}

// validateEnums accepts nil or empty values.
func validateEnums(priority, effort, status *string) error {
	checks := []struct {
		field   string
		value   *string
		allowed []string
	}{
		{"priority", priority, backend.Priorities},
		{"estimated_effort", effort, backend.Efforts},
		{"status", status, backend.Statuses},
	}
	for _, c := range checks {
		if c.value == nil || *c.value == "" {
			continue
		}
		if !slices.Contains(c.allowed, *c.value) {
			return fmt.Errorf("%s must be one of %s", c.field, strings.Join(c.allowed, ", "))
		}
	}
	return nil
}

// --- Helpers ---

func (s *Server) projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.BadRequest(w, "project id must be a positive integer")
	}
	return id, ok
}

func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.PathID(r, "task_id")
	if !ok {
		httpx.BadRequest(w, "task id must be a positive integer")
	}
	return id, ok
}

func (s *Server) storeError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, notFound)
		return
	}
	httpx.InternalError(w, s.log, err)
}
