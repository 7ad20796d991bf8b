package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

// --- Append ---

func TestAppend_FillsDefaults(t *testing.T) {
	h := New(WithClock(fixedClock()))
	h.Append(Message{Content: "hi"})

	msgs := h.Snapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.NotEmpty(t, msgs[0].ID)
	assert.Equal(t, "2025-03-01T12:00:00Z", msgs[0].Timestamp)
}

func TestAppend_KeepsOrder(t *testing.T) {
	h := New()
	h.Append(Message{Role: RoleUser, Content: "1"})
	h.Append(Message{Role: RoleAssistant, Content: "2"})
	h.Append(Message{Role: RoleUser, Content: "3"})

	var got []string
	for _, m := range h.Snapshot() {
		got = append(got, m.Content)
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestAppend_KeepsSuppliedFields(t *testing.T) {
	h := New()
	h.Append(Message{ID: "m-1", Role: RoleAssistant, Content: "x", Timestamp: "2024-01-01T00:00:00Z"})

	m := h.Snapshot()[0]
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "2024-01-01T00:00:00Z", m.Timestamp)
}

// --- ReplaceAll ---

func TestReplaceAll_DiscardsPrior(t *testing.T) {
	h := New()
	h.Append(Message{Content: "old"})

	supplied := []Message{
		{ID: "a", Role: RoleUser, Content: "u1", Timestamp: "t1"},
		{ID: "b", Role: RoleAssistant, Content: "a1", Timestamp: "t2"},
	}
	h.ReplaceAll(supplied)
	assert.Equal(t, supplied, h.Snapshot())

	h.Append(Message{ID: "c", Content: "u2", Timestamp: "t3"})
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "u2", h.Snapshot()[2].Content)
}

func TestReplaceAll_CopiesInput(t *testing.T) {
	h := New()
	supplied := []Message{{ID: "a", Content: "u1", Timestamp: "t", Metadata: map[string]any{"k": "v"}}}
	h.ReplaceAll(supplied)

	supplied[0].Metadata["k"] = "changed"
	assert.Equal(t, "v", h.Snapshot()[0].Metadata["k"])
}

func TestReplaceAll_SkipsUnknownRoles(t *testing.T) {
	h := New()
	skipped := h.ReplaceAll([]Message{
		{Role: "system", Content: "you are a bot"},
		{Role: "User", Content: "u1"},
		{Role: "tool", Content: "{}"},
		{Role: RoleAssistant, Content: "a1"},
	})
	assert.Equal(t, 2, skipped)

	msgs := h.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "u1", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestAppend_RejectsUnknownRole(t *testing.T) {
	h := New()
	assert.False(t, h.Append(Message{Role: "system", Content: "x"}))
	assert.True(t, h.Append(Message{Content: "y"}))
	assert.Equal(t, 1, h.Len())
}

// --- Snapshot ---

func TestSnapshot_IsDeepCopy(t *testing.T) {
	h := New()
	h.Append(Message{Content: "x", Metadata: map[string]any{
		"mode":     "create",
		"sections": []string{"a", "b"},
		"nested":   map[string]any{"n": 1},
	}})

	snap := h.Snapshot()
	snap[0].Content = "mutated"
	snap[0].Metadata["mode"] = "update"
	snap[0].Metadata["sections"].([]string)[0] = "z"
	snap[0].Metadata["nested"].(map[string]any)["n"] = 2

	fresh := h.Snapshot()[0]
	assert.Equal(t, "x", fresh.Content)
	assert.Equal(t, "create", fresh.Metadata["mode"])
	assert.Equal(t, []string{"a", "b"}, fresh.Metadata["sections"])
	assert.Equal(t, 1, fresh.Metadata["nested"].(map[string]any)["n"])
}

func TestSnapshot_EmptyIsNonNil(t *testing.T) {
	assert.NotNil(t, New().Snapshot())
}

// --- Clear ---

func TestClear(t *testing.T) {
	h := New()
	h.Append(Message{Content: "x"})
	h.Clear()
	assert.Empty(t, h.Snapshot())
	assert.Zero(t, h.Len())
}

// --- WithMaxMessages ---

func TestWithMaxMessages_EvictsOldest(t *testing.T) {
	h := New(WithMaxMessages(2))
	for _, c := range []string{"1", "2", "3"} {
		h.Append(Message{Content: c})
	}
	msgs := h.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].Content)
	assert.Equal(t, "3", msgs[1].Content)
}

func TestWithMaxMessages_AppliesToReplaceAll(t *testing.T) {
	h := New(WithMaxMessages(1))
	h.ReplaceAll([]Message{{Content: "a"}, {Content: "b"}})
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "b", h.Snapshot()[0].Content)
}

func TestWithMaxMessages_ZeroIsUnbounded(t *testing.T) {
	h := New(WithMaxMessages(0))
	for i := 0; i < 100; i++ {
		h.Append(Message{Content: "x"})
	}
	assert.Equal(t, 100, h.Len())
}
