package ai

import (
	"context"
	"strings"

	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/responder"
	"github.com/strrl/polar-persona/internal/topics"
)

var _ responder.Generator = (*ReplyGenerator)(nil)

// ReplyGenerator produces in-character replies through the model.
type ReplyGenerator struct {
	client *Client
}

func NewReplyGenerator(client *Client) *ReplyGenerator {
	return &ReplyGenerator{client: client}
}

func (g *ReplyGenerator) GenerateReply(ctx context.Context, userText string, history []conversation.Message, lang topics.Language) (string, error) {
	content, err := g.client.Complete(ctx, BuildReplyMessages(userText, history, lang))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
