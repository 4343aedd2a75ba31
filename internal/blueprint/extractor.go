package blueprint

import (
	"github.com/samber/lo"

	"github.com/strrl/polar-persona/internal/classifier"
	"github.com/strrl/polar-persona/internal/conversation"
)

// Extractor buckets the assistant's own sentences into blueprint sections.
type Extractor struct {
	normalizer *classifier.Normalizer
	classifier *classifier.Classifier
}

func NewExtractor(normalizer *classifier.Normalizer, c *classifier.Classifier) *Extractor {
	return &Extractor{normalizer: normalizer, classifier: c}
}

// Extract builds fresh sections from the full history. Only assistant
// messages count; each section keeps at most MaxItemsPerSection distinct
// sentences in encounter order.
func (e *Extractor) Extract(messages []conversation.Message) Sections {
	sections := NewSections()

	assistant := lo.Filter(messages, func(m conversation.Message, _ int) bool {
		return m.Role == conversation.RoleAssistant
	})

	for _, msg := range assistant {
		for _, sentence := range SplitSentences(msg.Content) {
			label, ok := e.classifier.ClassifyWithin(e.normalizer.Normalize(sentence), SectionOrder)
			if !ok {
				continue
			}

			items := sections[label]
			if len(items) >= MaxItemsPerSection || lo.Contains(items, sentence) {
				continue
			}
			sections[label] = append(items, sentence)
		}
	}

	return sections
}
