package topics

import "strings"

type Label string

const (
	LabelGreeting   Label = "greeting"
	LabelIdentity   Label = "identity"
	LabelHabitat    Label = "habitat"
	LabelDiet       Label = "diet"
	LabelSkills     Label = "skills"
	LabelChallenges Label = "challenges"
	LabelMessage    Label = "message"
	LabelFuture     Label = "future"
	LabelMath       Label = "math"
	LabelCooking    Label = "cooking"
	LabelWeather    Label = "weather"
	LabelTechnology Label = "technology"
	LabelGeneral    Label = "general"
)

// ValidLabels lists every known label in the default priority order.
var ValidLabels = []Label{
	LabelGreeting,
	LabelIdentity,
	LabelHabitat,
	LabelDiet,
	LabelSkills,
	LabelChallenges,
	LabelMessage,
	LabelFuture,
	LabelMath,
	LabelCooking,
	LabelWeather,
	LabelTechnology,
	LabelGeneral,
}

func (l Label) IsValid() bool {
	for _, v := range ValidLabels {
		if v == l {
			return true
		}
	}
	return false
}

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"

	BaseLanguage = LanguageEnglish
)

var SupportedLanguages = []Language{LanguageEnglish, LanguageSpanish}

func (l Language) IsSupported() bool {
	for _, v := range SupportedLanguages {
		if v == l {
			return true
		}
	}
	return false
}

// ParseLanguage accepts bare codes and regional tags ("es-MX", "en_US").
func ParseLanguage(raw string) (Language, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(raw, "-_"); i > 0 {
		raw = raw[:i]
	}
	lang := Language(raw)
	if !lang.IsSupported() {
		return "", false
	}
	return lang, true
}

// Preferred resolves a language preference, falling back to BaseLanguage
// when the value is unset or unreadable.
func Preferred(raw string) Language {
	if lang, ok := ParseLanguage(raw); ok {
		return lang
	}
	return BaseLanguage
}

// Topic binds a label to its keywords, response pools and display titles.
type Topic struct {
	Label     Label                 `yaml:"label"`
	Titles    map[Language]string   `yaml:"titles,omitempty"`
	Keywords  []string              `yaml:"keywords"`
	Responses map[Language][]string `yaml:"responses"`
}
