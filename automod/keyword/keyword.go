package keyword

import (
	"strings"
)

// Returns the first word from the list which appears anywhere in the text (substring match, after normalization of both sides), or empty string if none do.
//
// Empty words in the list are ignored.
func ContainsAny(text string, words []string) string {
	if text == "" || len(words) == 0 {
		return ""
	}
	norm := Normalize(text)
	for _, w := range words {
		nw := Normalize(w)
		if nw == "" {
			continue
		}
		if strings.Contains(norm, nw) {
			return w
		}
	}
	return ""
}
