// Package conversation keeps the ordered message history of one agent.
//
// A History is not safe for concurrent use; callers serialize turns per
// agent.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// History is an insertion-ordered list of messages.
type History struct {
	messages    []Message
	maxMessages int
	now         func() time.Time
}

// Option configures a History.
type Option func(*History)

// WithMaxMessages keeps only the n most recent messages. Zero, the
// default, keeps everything.
func WithMaxMessages(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxMessages = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// New creates an empty History.
func New(opts ...Option) *History {
	h := &History{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append adds m, filling in a missing ID, timestamp or role. It reports
// false and drops m when the role is neither user nor assistant.
func (h *History) Append(m Message) bool {
	m, ok := h.normalize(m)
	if !ok {
		return false
	}
	h.messages = append(h.messages, m)
	h.evict()
	return true
}

// ReplaceAll discards the current messages and installs msgs in order.
// Messages with a role other than user or assistant are skipped; the
// number skipped is returned.
func (h *History) ReplaceAll(msgs []Message) (skipped int) {
	h.messages = make([]Message, 0, len(msgs))
	for _, m := range msgs {
		m, ok := h.normalize(m)
		if !ok {
			skipped++
			continue
		}
		h.messages = append(h.messages, m)
	}
	h.evict()
	return skipped
}

// Snapshot returns a deep copy of the messages.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.messages))
	for i, m := range h.messages {
		out[i] = copyMessage(m)
	}
	return out
}

// Clear removes every message.
func (h *History) Clear() {
	h.messages = nil
}

// Len returns the number of messages.
func (h *History) Len() int { return len(h.messages) }

func (h *History) normalize(m Message) (Message, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(string(m.Role)))) {
	case "", RoleUser:
		m.Role = RoleUser
	case RoleAssistant:
		m.Role = RoleAssistant
	default:
		return m, false
	}
	m = copyMessage(m)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == "" {
		m.Timestamp = h.now().Format(time.RFC3339Nano)
	}
	return m, true
}

func (h *History) evict() {
	if h.maxMessages == 0 || len(h.messages) <= h.maxMessages {
		return
	}
	drop := len(h.messages) - h.maxMessages
	kept := make([]Message, h.maxMessages)
	copy(kept, h.messages[drop:])
	h.messages = kept
}

func copyMessage(m Message) Message {
	if m.Metadata != nil {
		m.Metadata = copyValue(m.Metadata).(map[string]any)
	}
	return m
}

// copyValue deep-copies the JSON-shaped values stored in metadata.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
