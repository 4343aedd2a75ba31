package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/topics"
)

// MaxHistoryMessages bounds how much prior conversation is sent along with
// a reply request.
const MaxHistoryMessages = 20

var languageNames = map[topics.Language]string{
	topics.LanguageEnglish: "English",
	topics.LanguageSpanish: "Spanish",
}

func languageName(lang topics.Language) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return string(lang)
}

func personaPrompt(lang topics.Language) string {
	return fmt.Sprintf(`You are Nanuq, an adult polar bear living on the sea ice around Svalbard.
Speak in the first person, warmly and simply, as the bear.
Only talk about your life: who you are, where you live, what you eat, what you can do,
the dangers you face, your message to humans and your hopes for the future.
If asked about anything else (math, cooking, weather reports, technology), gently steer back to your life on the ice.
Keep replies to at most three short sentences.
Always answer in %s.`, languageName(lang))
}

// BuildReplyMessages assembles the persona prompt, the most recent history
// and the new user turn.
func BuildReplyMessages(userText string, history []conversation.Message, lang topics.Language) []openai.ChatCompletionMessageParamUnion {
	if len(history) > MaxHistoryMessages {
		history = history[len(history)-MaxHistoryMessages:]
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(personaPrompt(lang)))
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case conversation.RoleUser:
			messages = append(messages, openai.UserMessage(content))
		case conversation.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(content))
		}
	}
	messages = append(messages, openai.UserMessage(userText))

	return messages
}

func BuildTranslatePrompt(sections blueprint.Sections, lang topics.Language) (string, string, error) {
	payload, err := json.Marshal(sections)
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize sections: %w", err)
	}

	systemPrompt := "You translate short texts written by a polar bear character. Return only JSON."

	userPrompt := fmt.Sprintf(`Input sections (JSON object of arrays):
%s

Rules:
- Translate every string into %s.
- Keep exactly the same keys; do not translate the keys.
- Keep the same number of items in every array, in the same order.
- Empty arrays stay empty.
- Output the JSON object only, with no commentary.
`, string(payload), languageName(lang))

	return systemPrompt, userPrompt, nil
}
