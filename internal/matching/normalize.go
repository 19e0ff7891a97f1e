package matching

import (
	"strings"
)

// stripped is the fixed punctuation and symbol class removed before any
// comparison.
const stripped = "()[]{},.!?;:'\"`@#$%^&*=+<>/\\|“”‘’"

// Normalize lowercases s, strips punctuation and symbols, turns '-' and '_'
// into spaces and collapses whitespace. It is only used for comparisons.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == '_' || r == '–' || r == '—':
			return ' '
		case strings.ContainsRune(stripped, r):
			return -1
		}
		return r
	}, strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// tokenCoverage is the fraction of title tokens that occur as substrings of
// candidate. Both arguments must already be normalized.
func tokenCoverage(title, candidate string) float64 {
	tokens := strings.Fields(title)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(candidate, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
