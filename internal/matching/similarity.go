package matching

import (
	"fmt"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

const (
	SimilaritySequence    = "sequence"
	SimilarityLevenshtein = "levenshtein"
	SimilarityJaroWinkler = "jaro-winkler"
)

// Similarity is a symmetric string similarity in [0,1]; higher means closer.
type Similarity func(a, b string) float64

// NewSimilarity returns the named similarity primitive. An empty name selects
// the sequence matcher.
func NewSimilarity(name string) (Similarity, error) {
	switch name {
	case "", SimilaritySequence:
		return SequenceRatio, nil
	case SimilarityLevenshtein:
		lev := metrics.NewLevenshtein()
		return func(a, b string) float64 {
			return strutil.Similarity(a, b, lev)
		}, nil
	case SimilarityJaroWinkler:
		jw := metrics.NewJaroWinkler()
		return func(a, b string) float64 {
			if a > b {
				a, b = b, a
			}
			return strutil.Similarity(a, b, jw)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown similarity %q", domain.ErrInvalidConfig, name)
	}
}

// SequenceRatio is the Ratcliff/Obershelp ratio (2*M/T over matching blocks)
// computed rune by rune. The pair is ordered before matching so the result
// does not depend on argument order.
func SequenceRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
