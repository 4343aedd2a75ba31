package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/topics"
)

var _ blueprint.Translator = (*Translator)(nil)

// Translator asks the model to translate blueprint sections. It does not
// validate the shape of the result; the localizer does that.
type Translator struct {
	client *Client
	logger *log.Logger
}

func NewTranslator(client *Client, logger *log.Logger) *Translator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Translator{client: client, logger: logger}
}

func (t *Translator) Translate(ctx context.Context, sections blueprint.Sections, lang topics.Language) (blueprint.Sections, error) {
	systemPrompt, userPrompt, err := BuildTranslatePrompt(sections, lang)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("requesting translation", "language", lang, "items", sections.Total())

	content, err := t.client.Chat(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return parseSections(content)
}

func parseSections(content string) (blueprint.Sections, error) {
	jsonPayload := extractJSON(content)
	if jsonPayload == "" {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	var raw map[string][]any
	if err := json.Unmarshal([]byte(jsonPayload), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	sections := make(blueprint.Sections, len(raw))
	for key, items := range raw {
		label := topics.Label(strings.TrimSpace(key))
		converted := make([]string, 0, len(items))
		for i, item := range items {
			text, err := itemText(item)
			if err != nil {
				return nil, fmt.Errorf("section %q item %d: %w", label, i, err)
			}
			converted = append(converted, text)
		}
		sections[label] = converted
	}

	return sections, nil
}

// itemText keeps strings as they are and re-encodes other scalars the way
// the model wrote them. null stands in for a missing translation.
func itemText(item any) (string, error) {
	switch v := item.(type) {
	case nil:
		return "", fmt.Errorf("null item")
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any, []any:
		return "", fmt.Errorf("nested value instead of text")
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// extractJSON also copes with replies wrapped in markdown code fences.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}
