package matching

import (
	"testing"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Artist - Title (Live)":   "artist title live",
		"  Hello   World!! ":      "hello world",
		"Don't_Stop—Me":           "dont stop me",
		"[Official] \"Audio\" #1": "official audio 1",
		"AC/DC":                   "acdc",
		"":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestTokenCoverage(t *testing.T) {
	assert.Equal(t, 1.0, tokenCoverage("song x", "song x official audio"))
	assert.Equal(t, 0.5, tokenCoverage("song y", "song x"))
	assert.Zero(t, tokenCoverage("", "song x"))
}

func TestSequenceRatio(t *testing.T) {
	assert.Equal(t, 1.0, SequenceRatio("abc", "abc"))
	assert.InDelta(t, 12.0/27.0, SequenceRatio("song x", "song x official audio"), 1e-9)
	assert.Zero(t, SequenceRatio("aaa", "bbb"))

	pairs := [][2]string{
		{"song x", "song x official audio"},
		{"bohemian rhapsody", "queen bohemian rhapsody remastered"},
		{"abcd", "bcda"},
	}
	for _, p := range pairs {
		r := SequenceRatio(p[0], p[1])
		assert.Equal(t, r, SequenceRatio(p[1], p[0]), "pair %v", p)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestNewSimilarity_AlternateMetrics(t *testing.T) {
	for _, name := range []string{SimilarityLevenshtein, SimilarityJaroWinkler} {
		sim, err := NewSimilarity(name)
		require.NoError(t, err, name)
		assert.InDelta(t, 1.0, sim("song x", "song x"), 1e-9, name)
		assert.Equal(t, sim("song x", "song y"), sim("song y", "song x"), name)
	}
}

func TestBuildQueries(t *testing.T) {
	track := domain.WantedTrack{Artist: "Queen", Title: "Bohemian Rhapsody", Album: "A Night at the Opera"}

	assert.Equal(t, []string{
		"Queen Bohemian Rhapsody A Night at the Opera audio",
		"Queen Bohemian Rhapsody A Night at the Opera official audio",
		"Queen Bohemian Rhapsody audio",
	}, BuildQueries(track))
}

func TestBuildQueries_NoAlbum(t *testing.T) {
	track := domain.WantedTrack{Artist: "Queen", Title: "Bohemian Rhapsody"}

	assert.Equal(t, []string{
		"Queen Bohemian Rhapsody audio",
		"Queen Bohemian Rhapsody official audio",
	}, BuildQueries(track))
}
