package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemini-2.5-flash"
)

var errMissingAPIKey = errors.New("OPENROUTER_API_KEY is required")

// Client is a thin chat-completions wrapper around an OpenAI compatible
// endpoint. Requests are never retried.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	)

	return &Client{
		client:      &client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.Complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	})
}

func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: param.Opt[float64]{Value: c.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
