// Package match implements the validated matching engine: name similarity,
// geographic validation, confidence scoring and candidate selection.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are generic words that carry no identity signal in a venue name.
var stopwords = map[string]struct{}{
	"the": {}, "restaurant": {}, "bar": {}, "kitchen": {}, "grill": {},
	"cafe": {}, "bistro": {}, "brasserie": {}, "and": {}, "at": {},
	"of": {}, "london": {},
}

// foldDiacritics strips combining marks so "Café Rouge" and "Cafe Rouge"
// normalize identically.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a venue name, folds diacritics, strips punctuation
// to whitespace, drops stopwords and rejoins with single spaces.
// Empty input yields the empty string.
func Normalize(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Similarity returns a sequence-matching ratio in [0,1] between the
// normalized forms of a and b: 2*LCS/(len(a)+len(b)) over runes.
// Returns 0 when either side normalizes to the empty string.
// Symmetric; Similarity(x, x) == 1 for any non-empty x.
func Similarity(a, b string) float64 {
	na := []rune(Normalize(a))
	nb := []rune(Normalize(b))
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}
	lcs := longestCommonSubsequence(na, nb)
	return 2 * float64(lcs) / float64(len(na)+len(nb))
}

// longestCommonSubsequence computes LCS length with a two-row DP table.
func longestCommonSubsequence(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
