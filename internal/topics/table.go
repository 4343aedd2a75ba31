package topics

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTableYAML []byte

// Table is an ordered topic list. Order is priority: when a keyword appears
// under several topics, the earlier topic wins.
type Table struct {
	topics []Topic
	index  map[Label]int
}

type tableFile struct {
	Topics []Topic `yaml:"topics"`
}

func NewTable(list []Topic) (*Table, error) {
	t := &Table{
		topics: make([]Topic, 0, len(list)),
		index:  make(map[Label]int, len(list)),
	}

	for _, topic := range list {
		if !topic.Label.IsValid() {
			return nil, fmt.Errorf("unknown topic label %q", topic.Label)
		}
		if _, dup := t.index[topic.Label]; dup {
			return nil, fmt.Errorf("topic %q declared twice", topic.Label)
		}

		keywords := make([]string, 0, len(topic.Keywords))
		for _, kw := range topic.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("topic %q has an empty keyword", topic.Label)
			}
			keywords = append(keywords, kw)
		}

		responses := make(map[Language][]string, len(topic.Responses))
		for lang, pool := range topic.Responses {
			if !lang.IsSupported() {
				return nil, fmt.Errorf("topic %q has responses for unsupported language %q", topic.Label, lang)
			}
			for _, r := range pool {
				if strings.TrimSpace(r) == "" {
					return nil, fmt.Errorf("topic %q has an empty %s response", topic.Label, lang)
				}
			}
			responses[lang] = append([]string(nil), pool...)
		}

		t.index[topic.Label] = len(t.topics)
		t.topics = append(t.topics, Topic{
			Label:     topic.Label,
			Titles:    topic.Titles,
			Keywords:  keywords,
			Responses: responses,
		})
	}

	general, ok := t.lookup(LabelGeneral)
	if !ok {
		return nil, fmt.Errorf("topic %q is required", LabelGeneral)
	}
	for _, lang := range SupportedLanguages {
		if len(general.Responses[lang]) == 0 {
			return nil, fmt.Errorf("topic %q needs at least one %s response", LabelGeneral, lang)
		}
	}

	return t, nil
}

// ParseTable decodes a YAML topic file.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topic table: %w", err)
	}
	return NewTable(file.Topics)
}

func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic table: %w", err)
	}
	return ParseTable(data)
}

// DefaultTable returns the built-in polar bear topic table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded topic table is invalid: %v", err))
	}
	return t
}

func (t *Table) lookup(label Label) (Topic, bool) {
	i, ok := t.index[label]
	if !ok {
		return Topic{}, false
	}
	return t.topics[i], true
}

func (t *Table) Order() []Label {
	order := make([]Label, len(t.topics))
	for i, topic := range t.topics {
		order[i] = topic.Label
	}
	return order
}

func (t *Table) Keywords(label Label) []string {
	topic, ok := t.lookup(label)
	if !ok {
		return nil
	}
	return append([]string(nil), topic.Keywords...)
}

func (t *Table) Responses(label Label, lang Language) []string {
	topic, ok := t.lookup(label)
	if !ok {
		return nil
	}
	return topic.Responses[lang]
}

// Title returns the display title of a label, falling back to the base
// language and finally to the label itself.
func (t *Table) Title(label Label, lang Language) string {
	topic, ok := t.lookup(label)
	if ok {
		if title := topic.Titles[lang]; title != "" {
			return title
		}
		if title := topic.Titles[BaseLanguage]; title != "" {
			return title
		}
	}
	return string(label)
}
