package blueprint

import (
	"regexp"
	"strings"
)

// A sentence runs up to and including its terminal punctuation; a trailing
// fragment without punctuation is a sentence of its own.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

func SplitSentences(text string) []string {
	var sentences []string
	for _, match := range sentenceRe.FindAllString(text, -1) {
		if s := strings.TrimSpace(match); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
