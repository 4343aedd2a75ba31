package classifier

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// FuzzyThreshold is the minimum similarity for a fuzzy keyword match.
const FuzzyThreshold = 0.6

// Similarity is 1 - distance/max(len(a), len(b)), measured in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
