package feedback

import (
	"math"
	"strings"
	"unicode"
)

// lexicalStats counts words and distinct words, case-insensitively,
// ignoring surrounding punctuation.
func lexicalStats(text string) (count, unique int, diversity float64) {
	seen := make(map[string]struct{})
	for _, f := range strings.Fields(text) {
		word := strings.ToLower(strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if word == "" {
			continue
		}
		count++
		seen[word] = struct{}{}
	}
	if count == 0 {
		return 0, 0, 0
	}
	unique = len(seen)
	return count, unique, math.Round(float64(unique)/float64(count)*100) / 100
}
