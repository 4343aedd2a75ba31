package parser

import (
	"strings"
	"time"

	"github.com/strrl/polar-persona/internal/conversation"
)

// TranscriptEntry is one line of a JSONL transcript file.
type TranscriptEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
	Session   string `json:"session,omitempty"`
}

// ToMessage converts the entry, rejecting unknown roles and blank content.
// A missing or unreadable timestamp yields the zero time.
func (e TranscriptEntry) ToMessage() (conversation.Message, bool) {
	role := conversation.Role(strings.ToLower(strings.TrimSpace(e.Role)))
	if !role.IsValid() || strings.TrimSpace(e.Content) == "" {
		return conversation.Message{}, false
	}

	var ts time.Time
	if e.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(e.Timestamp)); err == nil {
			ts = parsed
		}
	}

	return conversation.Message{Role: role, Content: e.Content, Timestamp: ts}, true
}

func FromMessage(msg conversation.Message, session string) TranscriptEntry {
	entry := TranscriptEntry{
		Role:    string(msg.Role),
		Content: msg.Content,
		Session: session,
	}
	if !msg.Timestamp.IsZero() {
		entry.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return entry
}

type Stats struct {
	Count int
	First time.Time
	Last  time.Time
}
