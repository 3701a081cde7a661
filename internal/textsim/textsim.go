// Package textsim provides the shared tokenizer and bag-of-words cosine
// similarity used by intent classification and result ranking.
package textsim

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Normalize case-folds s for comparison (handles non-ASCII casing that
// strings.ToLower does not).
func Normalize(s string) string {
	return folder.String(s)
}

// Tokenize splits s into case-folded word tokens. Punctuation separates
// tokens except for '-' and '_', which are kept so hyphenated skill names
// ("error-handling") survive as single terms.
func Tokenize(s string) []string {
	s = Normalize(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		if r == '-' || r == '_' {
			return false
		}
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Vector returns the term-frequency vector of s.
func Vector(s string) map[string]float64 {
	out := make(map[string]float64)
	for _, tok := range Tokenize(s) {
		out[tok]++
	}
	return out
}

// Cosine computes cosine similarity between two term-frequency vectors.
// Either vector being empty yields 0.
func Cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for t, x := range a {
		na += x * x
		if y, ok := b[t]; ok {
			dot += x * y
		}
	}
	for _, y := range b {
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return dot / den
}

// Similarity is the bag-of-words cosine similarity of two texts, in [0,1].
func Similarity(a, b string) float64 {
	return Cosine(Vector(a), Vector(b))
}
