package keyword

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lower-cases text and strips combining marks (so "Dámn" becomes "damn"). Punctuation and whitespace are kept, so substring matching behaves like a plain lower-case comparison.
func Normalize(text string) string {
	// transformers carry state; build a fresh chain per call
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lower := strings.ToLower(text)
	out, _, err := transform.String(normFunc, lower)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		return lower
	}
	return out
}
