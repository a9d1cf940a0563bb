package matching

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Normalize lowercases a name and strips everything except Cyrillic
// and Latin letters and digits, collapsing runs of the rest into
// single spaces. Both line names and product names/synonyms go
// through this before any comparison.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.Is(unicode.Cyrillic, r) || unicode.Is(unicode.Latin, r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		} else {
			space = true
		}
	}
	return b.String()
}

// Similarity returns a score in [0,1] between two already-normalized
// strings: 1 minus the levenshtein distance over the longer rune
// length. Empty inputs score zero.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
