package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded is one request seen by a fake backend.
type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r recorded)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	rec := recorded{Method: r.Method, Path: r.URL.EscapedPath()}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.handler(w, rec)
}

func (f *fakeBackend) seen() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func newFake(t *testing.T, h func(w http.ResponseWriter, r recorded)) (*fakeBackend, *Client) {
	t.Helper()
	f := &fakeBackend{handler: h}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, New(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- Documents.Upsert ---

func TestUpsert_Updated(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "project_id": 7, "content": r.Body["content"]})
	})

	res := c.PRDs().Upsert(context.Background(), 7, UpsertInput{Content: "# PRD"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, "PRD updated successfully", res.Message)
	require.NotNil(t, res.Data)
	assert.Equal(t, "# PRD", res.Data.Content)

	reqs := f.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/api/projects/7/prd", reqs[0].Path)
	assert.Equal(t, "draft", reqs[0].Body["status"])
	assert.NotContains(t, reqs[0].Body, "title")
}

func TestUpsert_404ThenCreated(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		if r.Method == http.MethodPut {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "content": r.Body["content"], "title": r.Body["title"]})
	})

	res := c.PRDs().Upsert(context.Background(), 5, UpsertInput{Content: "body"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, "PRD created successfully", res.Message)

	reqs := f.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.Equal(t, "Product Requirements Document", reqs[1].Body["title"])
}

func TestUpsert_SpecCarriesTechnicalDetails(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 1})
	})

	res := c.Specs().Upsert(context.Background(), 2, UpsertInput{
		Content:          "spec",
		TechnicalDetails: "use postgres",
	})
	require.True(t, res.Success)
	assert.Equal(t, "Technical specification created successfully", res.Message)

	reqs := f.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/api/projects/2/spec", reqs[0].Path)
	assert.Equal(t, "use postgres", reqs[0].Body["technical_details"])
	assert.Equal(t, "Technical Specification", reqs[1].Body["title"])
	assert.Equal(t, "use postgres", reqs[1].Body["technical_details"])
}

func TestUpsert_CreateFails(t *testing.T) {
	_, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "disk full"})
	})

	res := c.PRDs().Upsert(context.Background(), 1, UpsertInput{Content: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to create PRD: 500 (disk full)", res.Error)
}

func TestUpsert_UpdateFailsWithoutCreate(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		w.WriteHeader(http.StatusBadGateway)
	})

	res := c.Specs().Upsert(context.Background(), 1, UpsertInput{Content: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to update specification: 502 (HTTP 502)", res.Error)
	assert.Len(t, f.seen(), 1, "only 404 falls through to create")
}

func TestUpsert_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(url).PRDs().Upsert(context.Background(), 1, UpsertInput{Content: "x"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Network error:")
}

func TestUpsert_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, WithTimeout(20*time.Millisecond))
	res := c.PRDs().Upsert(context.Background(), 1, UpsertInput{Content: "x"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Network error:")
}

// roundTripFunc lets a test stand in for the network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithHTTPClient_UsesInjectedTransport(t *testing.T) {
	var seen []string
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = append(seen, r.Method+" "+r.URL.String())
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"content":"via transport"}`)),
			Request:    r,
		}, nil
	})}

	c := New("http://backend.invalid", WithHTTPClient(hc))
	res := c.PRDs().Fetch(context.Background(), 5)
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Data)
	assert.Equal(t, "via transport", res.Data.Content)
	assert.Equal(t, []string{"GET http://backend.invalid/api/projects/5/prd"}, seen)
}

func TestWithHTTPClient_NilKeepsDefault(t *testing.T) {
	c := New("http://x", WithHTTPClient(nil))
	assert.NotNil(t, c.http)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}

// --- Documents.Fetch ---

func TestFetch_Found(t *testing.T) {
	_, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"content": "saved", "technical_details": "td"})
	})

	res := c.Specs().Fetch(context.Background(), 4)
	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, "saved", res.Data.Content)
	assert.Equal(t, "td", res.Data.TechnicalDetails)
}

func TestFetch_NotFoundIsSuccess(t *testing.T) {
	_, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		w.WriteHeader(http.StatusNotFound)
	})

	res := c.PRDs().Fetch(context.Background(), 4)
	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Equal(t, "No PRD found for this project", res.Message)
	assert.Empty(t, res.Error)
}

func TestFetch_ServerError(t *testing.T) {
	_, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
	})

	res := c.PRDs().Fetch(context.Background(), 4)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to get PRD: 500 (boom)", res.Error)
}

// --- Roadmap ---

func TestValidateBatch(t *testing.T) {
	assert.NoError(t, ValidateBatch([]Task{{Title: "A", Quarter: "Q1"}}))
	assert.NoError(t, ValidateBatch(nil))
	assert.ErrorIs(t, ValidateBatch([]Task{{Title: "A", Quarter: "Q1"}, {Title: "", Quarter: "Q1"}}), ErrInvalidBatch)
	assert.ErrorIs(t, ValidateBatch([]Task{{Title: "A", Quarter: "  "}}), ErrInvalidBatch)
}

func TestBulkCreate_InvalidBatchSendsNothing(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		t.Errorf("unexpected request %s %s", r.Method, r.Path)
	})

	res := c.Roadmap().BulkCreate(context.Background(), 1, []Task{
		{Title: "A", Quarter: "Q1"},
		{Title: "", Quarter: "Q1"},
	})
	assert.False(t, res.Success)
	assert.Equal(t, "Each task must have a title and quarter", res.Error)
	assert.Empty(t, f.seen())
}

func TestBulkCreate_Created(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusCreated, []map[string]any{
			{"id": 1, "title": "A", "quarter": "Q1 2025", "status": "planned"},
			{"id": 2, "title": "B", "quarter": "Q2 2025", "status": "planned"},
		})
	})

	res := c.Roadmap().BulkCreate(context.Background(), 9, []Task{
		{Title: "A", Quarter: "Q1 2025", Priority: "P0"},
		{Title: "B", Quarter: "Q2 2025"},
	})
	require.True(t, res.Success, res.Error)
	assert.Len(t, res.Tasks, 2)
	assert.Equal(t, int64(2), res.Tasks[1].ID)

	reqs := f.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/projects/9/roadmap/bulk", reqs[0].Path)
	assert.Len(t, reqs[0].Body["tasks"], 2)
}

func TestBulkCreate_ErrorBody(t *testing.T) {
	_, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid priority"})
	})

	res := c.Roadmap().BulkCreate(context.Background(), 1, []Task{{Title: "A", Quarter: "Q1"}})
	assert.False(t, res.Success)
	assert.Equal(t, "invalid priority", res.Error)
}

func TestRoadmap_ListByQuarterEscapes(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, []any{})
	})

	res := c.Roadmap().ListByQuarter(context.Background(), 3, "Q1 2025")
	require.True(t, res.Success)
	assert.Empty(t, res.Tasks)
	assert.Equal(t, "/api/projects/3/roadmap/quarter/Q1%202025", f.seen()[0].Path)
}

func TestRoadmap_TaskNotFound(t *testing.T) {
	_, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		w.WriteHeader(http.StatusNotFound)
	})
	ctx := context.Background()

	assert.Equal(t, "Roadmap task not found", c.Roadmap().Get(ctx, 1).Error)
	title := "new"
	assert.Equal(t, "Roadmap task not found", c.Roadmap().Update(ctx, 1, TaskUpdate{Title: &title}).Error)
	assert.Equal(t, "Roadmap task not found", c.Roadmap().Delete(ctx, 1).Error)
	assert.Equal(t, "HTTP 404", c.Roadmap().Clear(ctx, 1).Error)
}

func TestRoadmap_UpdateSendsOnlySetFields(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "title": "T", "quarter": "Q3", "status": "completed"})
	})

	status := "completed"
	res := c.Roadmap().Update(context.Background(), 5, TaskUpdate{Status: &status})
	require.True(t, res.Success)
	assert.Equal(t, "completed", res.Task.Status)

	body := f.seen()[0].Body
	assert.Equal(t, map[string]any{"status": "completed"}, body)
}

func TestRoadmap_DeleteAndClear(t *testing.T) {
	f, c := newFake(t, func(w http.ResponseWriter, r recorded) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	assert.True(t, c.Roadmap().Delete(ctx, 8).Success)
	assert.True(t, c.Roadmap().Clear(ctx, 2).Success)

	reqs := f.seen()
	assert.Equal(t, "/api/roadmap/8", reqs[0].Path)
	assert.Equal(t, "/api/projects/2/roadmap", reqs[1].Path)
}

func TestTaskUpdate_Empty(t *testing.T) {
	assert.True(t, TaskUpdate{}.Empty())
	q := "Q1"
	assert.False(t, TaskUpdate{Quarter: &q}.Empty())
}
