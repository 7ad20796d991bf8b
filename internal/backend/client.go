// Package backend is the HTTP client for the persistence REST API that
// stores PRDs, technical specifications and roadmap tasks.
//
// Every operation returns a result value instead of an error: transport
// faults and unexpected status codes become {Success: false, Error: ...}
// so callers can hand the message straight to the model. No call is
// retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client talks to one backend base URL. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	prds    *Documents
	specs   *Documents
	roadmap *Roadmap
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:4000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.prds = &Documents{client: c, kind: prdKind}
	c.specs = &Documents{client: c, kind: specKind}
	c.roadmap = &Roadmap{client: c}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// PRDs returns the PRD document endpoints.
func (c *Client) PRDs() *Documents { return c.prds }

// Specs returns the technical specification endpoints.
func (c *Client) Specs() *Documents { return c.specs }

// Roadmap returns the roadmap task endpoints.
func (c *Client) Roadmap() *Roadmap { return c.roadmap }

// response is a fully-read HTTP response.
type response struct {
	status int
	body   []byte
}

// do sends a JSON request and reads the whole response. Only transport
// failures are returned as errors; any status code is a valid response.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// errorText extracts {"error": "..."} from a failed response, falling back
// to "HTTP <code>".
func (r *response) errorText() string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(r.body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("HTTP %d", r.status)
}

func networkError(err error) string {
	return fmt.Sprintf("Network error: %v", err)
}
