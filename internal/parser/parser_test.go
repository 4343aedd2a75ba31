package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/db"
)

func newTestParser(t *testing.T, pattern string, opts ...Option) *Parser {
	t.Helper()
	database, err := db.Open()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	p, err := NewParser(pattern, append([]Option{WithDB(database)}, opts...)...)
	require.NoError(t, err)
	return p
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestNewParser_RequiresPattern(t *testing.T) {
	_, err := NewParser("  ")
	assert.Error(t, err)
}

func TestMessages_MissingFilesMeansNoHistory(t *testing.T) {
	p := newTestParser(t, filepath.Join(t.TempDir(), "*.jsonl"))

	messages, err := p.Messages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, messages)

	stats, err := p.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
}

func TestMessages_ReadsAndOrders(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "a.jsonl"),
		`{"role":"assistant","content":"I hunt seals.","timestamp":"2025-01-01T10:00:02Z","session":"s1"}`,
		`{"role":"user","content":"hello","timestamp":"2025-01-01T10:00:00Z","session":"s1"}`,
		`{"role":"system","content":"ignored","timestamp":"2025-01-01T10:00:00Z"}`,
		`{"role":"assistant","content":"   ","timestamp":"2025-01-01T10:00:03Z"}`,
	)
	writeLines(t, filepath.Join(dir, "b.jsonl"),
		`{"role":"Assistant","content":"I live on the sea ice.","timestamp":"2025-01-01T10:00:01Z","session":"s2"}`,
	)

	p := newTestParser(t, filepath.Join(dir, "*.jsonl"))
	messages, err := p.Messages(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, conversation.RoleAssistant, messages[1].Role)
	assert.Equal(t, "I live on the sea ice.", messages[1].Content)
	assert.Equal(t, "I hunt seals.", messages[2].Content)
}

func TestMessages_SessionFilterAndListing(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "t.jsonl"),
		`{"role":"user","content":"one","timestamp":"2025-01-01T10:00:00Z","session":"beta"}`,
		`{"role":"user","content":"two","timestamp":"2025-01-01T10:00:01Z","session":"alpha"}`,
		`{"role":"assistant","content":"three","timestamp":"2025-01-01T10:00:02Z","session":"alpha"}`,
	)
	pattern := filepath.Join(dir, "*.jsonl")

	sessions, err := newTestParser(t, pattern).ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, sessions)

	p := newTestParser(t, pattern, WithSession("alpha"))
	messages, err := p.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Content)

	stats, err := p.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 1, 0, time.UTC), stats.First.UTC())
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 2, 0, time.UTC), stats.Last.UTC())
}

func TestMessages_KeepsFileOrderWithoutTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "t.jsonl"),
		`{"role":"assistant","content":"first","timestamp":"2025-01-01T10:00:05Z"}`,
		`{"role":"assistant","content":"second"}`,
		`{"role":"assistant","content":"third","timestamp":"2025-01-01T10:00:01Z"}`,
	)

	messages, err := newTestParser(t, filepath.Join(dir, "*.jsonl")).Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{messages[0].Content, messages[1].Content, messages[2].Content})
}

func TestRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history", "transcript.jsonl")
	rec := NewRecorder(path, "chat")

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, rec.Append(
		conversation.Message{Role: conversation.RoleUser, Content: "what do you eat?", Timestamp: now},
		conversation.Message{Role: conversation.RoleAssistant, Content: "Mostly seals.", Timestamp: now.Add(time.Second)},
	))
	require.NoError(t, rec.Append())
	require.NoError(t, rec.Append(
		conversation.Message{Role: conversation.RoleAssistant, Content: "Sometimes eggs.", Timestamp: now.Add(2 * time.Second)},
	))

	p := newTestParser(t, filepath.Join(dir, "history", "*.jsonl"), WithSession("chat"))
	messages, err := p.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "Mostly seals.", messages[1].Content)
	assert.True(t, now.Equal(messages[0].Timestamp))
}

func TestTranscriptEntry_ToMessage(t *testing.T) {
	msg, ok := TranscriptEntry{Role: " USER ", Content: "hi", Timestamp: "not a time"}.ToMessage()
	require.True(t, ok)
	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.True(t, msg.Timestamp.IsZero())

	_, ok = TranscriptEntry{Role: "tool", Content: "x"}.ToMessage()
	assert.False(t, ok)
}
