// Package conversation holds the message types shared by the history
// sources and the components that read them.
package conversation

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one immutable turn of a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Source supplies the full, ordered message history. Callers treat the
// result as read-only.
type Source interface {
	Messages(ctx context.Context) ([]Message, error)
}

// Static is a Source over a fixed slice.
type Static []Message

func (s Static) Messages(_ context.Context) ([]Message, error) {
	out := make([]Message, len(s))
	copy(out, s)
	return out, nil
}
