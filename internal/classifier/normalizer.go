package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

// Correction rewrites one whole-word typo or abbreviation.
type Correction struct {
	From string
	To   string
}

// DefaultCorrections covers the chat shorthand seen most often in user input.
var DefaultCorrections = []Correction{
	{From: "wat", To: "what"},
	{From: "wht", To: "what"},
	{From: "whats", To: "what is"},
	{From: "u", To: "you"},
	{From: "ur", To: "your"},
	{From: "yr", To: "your"},
	{From: "r", To: "are"},
	{From: "eet", To: "eat"},
	{From: "hw", To: "how"},
	{From: "whr", To: "where"},
	{From: "plz", To: "please"},
	{From: "thx", To: "thanks"},
	{From: "luv", To: "love"},
}

// word is a run of letters or digits in any script, so "ñu" stays one word.
var word = regexp.MustCompile(`[\p{L}\p{N}]+`)

type Normalizer struct {
	corrections map[string]string
}

// NewNormalizer indexes the correction table. A correction whose output
// contains another correction's trigger, or two corrections sharing a
// trigger, would make the result depend on application order and is
// rejected.
func NewNormalizer(corrections []Correction) (*Normalizer, error) {
	n := &Normalizer{corrections: make(map[string]string, len(corrections))}
	for _, c := range corrections {
		from := strings.ToLower(strings.TrimSpace(c.From))
		if from == "" || word.FindString(from) != from {
			return nil, fmt.Errorf("correction trigger %q must be a single word", c.From)
		}
		if _, dup := n.corrections[from]; dup {
			return nil, fmt.Errorf("correction trigger %q declared twice", from)
		}
		n.corrections[from] = strings.ToLower(c.To)
	}

	for from, to := range n.corrections {
		for _, token := range word.FindAllString(to, -1) {
			if _, ok := n.corrections[token]; ok {
				return nil, fmt.Errorf("correction %q -> %q produces trigger %q", from, to, token)
			}
		}
	}

	return n, nil
}

func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(DefaultCorrections)
	if err != nil {
		panic(fmt.Sprintf("default corrections are invalid: %v", err))
	}
	return n
}

func (n *Normalizer) Normalize(text string) string {
	return word.ReplaceAllStringFunc(strings.ToLower(text), func(w string) string {
		if to, ok := n.corrections[w]; ok {
			return to
		}
		return w
	})
}
