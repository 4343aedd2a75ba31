package classifier

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/topics"
)

// SpecialCase maps an interrogative phrase to a topic when no keyword matched.
type SpecialCase struct {
	Phrase string
	Label  topics.Label
}

// DefaultSpecialCases catch questions whose only keywords are too generic
// to list in a topic table.
var DefaultSpecialCases = []SpecialCase{
	{Phrase: "what is your", Label: topics.LabelIdentity},
	{Phrase: "what's your", Label: topics.LabelIdentity},
	{Phrase: "what are you called", Label: topics.LabelIdentity},
	{Phrase: "tell me about you", Label: topics.LabelIdentity},
	{Phrase: "cual es tu", Label: topics.LabelIdentity},
	{Phrase: "cuál es tu", Label: topics.LabelIdentity},
}

type topicKeywords struct {
	label    topics.Label
	keywords []string
}

type Classifier struct {
	topics   []topicKeywords
	specials []SpecialCase
	logger   *log.Logger
}

type Option func(*Classifier)

func WithSpecialCases(cases []SpecialCase) Option {
	return func(c *Classifier) {
		c.specials = cases
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

func New(table *topics.Table, opts ...Option) *Classifier {
	c := &Classifier{
		specials: DefaultSpecialCases,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, label := range table.Order() {
		keywords := table.Keywords(label)
		sort.SliceStable(keywords, func(i, j int) bool {
			return utf8.RuneCountInString(keywords[i]) > utf8.RuneCountInString(keywords[j])
		})
		c.topics = append(c.topics, topicKeywords{label: label, keywords: keywords})
	}

	return c
}

// Classify returns the topic of normalized text, or false when nothing
// matches.
func (c *Classifier) Classify(normalized string) (topics.Label, bool) {
	return c.classify(normalized, c.topics)
}

// ClassifyWithin runs every pass over the allowed labels only, keeping the
// table's priority order.
func (c *Classifier) ClassifyWithin(normalized string, allowed []topics.Label) (topics.Label, bool) {
	subset := lo.Filter(c.topics, func(t topicKeywords, _ int) bool {
		return lo.Contains(allowed, t.label)
	})
	return c.classify(normalized, subset)
}

func (c *Classifier) classify(normalized string, candidates []topicKeywords) (topics.Label, bool) {
	text := strings.TrimSpace(normalized)
	if text == "" || len(candidates) == 0 {
		return "", false
	}

	for _, t := range candidates {
		for _, kw := range t.keywords {
			if strings.Contains(text, kw) {
				c.logger.Debug("classified", "pass", "exact", "topic", t.label, "keyword", kw)
				return t.label, true
			}
		}
	}

	for _, sc := range c.specials {
		if !strings.Contains(text, sc.Phrase) {
			continue
		}
		if lo.ContainsBy(candidates, func(t topicKeywords) bool { return t.label == sc.Label }) {
			c.logger.Debug("classified", "pass", "special", "topic", sc.Label, "phrase", sc.Phrase)
			return sc.Label, true
		}
	}

	for _, t := range candidates {
		for _, kw := range t.keywords {
			if score := Similarity(text, kw); score >= FuzzyThreshold {
				c.logger.Debug("classified", "pass", "fuzzy", "topic", t.label, "keyword", kw, "score", score)
				return t.label, true
			}
		}
	}

	return "", false
}
