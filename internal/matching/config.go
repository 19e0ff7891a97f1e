package matching

import (
	"fmt"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// ScoringConfig holds every tunable constant used by the scorer. Defaults are
// compiled in; individual fields can be overridden from a TOML file.
type ScoringConfig struct {
	WeightDuration   float64 `toml:"weight_duration"`
	WeightSimilarity float64 `toml:"weight_similarity"`
	WeightCoverage   float64 `toml:"weight_coverage"`

	BoostArtistChannel float64 `toml:"boost_artist_channel"`
	BoostTopicChannel  float64 `toml:"boost_topic_channel"`
	BoostProvidedBy    float64 `toml:"boost_provided_by"`
	BoostAudio         float64 `toml:"boost_audio"`

	// ToleranceFactor scales the target duration into the window used for
	// the duration score. GateFactor scales it into the hard rejection gate.
	ToleranceFactor     float64 `toml:"tolerance_factor"`
	GateFactor          float64 `toml:"gate_factor"`
	MinToleranceSeconds float64 `toml:"min_tolerance_seconds"`

	MinSimilarityForBoost float64 `toml:"min_similarity_for_boost"`

	Disallowed []string `toml:"disallowed"`

	// Similarity selects the string similarity primitive: "sequence",
	// "levenshtein" or "jaro-winkler".
	Similarity string `toml:"similarity"`
}

// DefaultDisallowed lists keywords that mark an upload as non-canonical audio.
// They match anywhere in the normalized title or description.
var DefaultDisallowed = []string{
	"lyric", "lyrics", "lyric video", "live", "cover", "instrumental", "karaoke",
	"remix", "clip", "scene", "ost", "trailer", "teaser", "animation",
	"gameplay", "short", "mix", "medley", "reaction", "dance", "cam",
	"performance", "piano", "guitar", "ukulele", "bass",
}

// DefaultScoringConfig returns the tuned defaults.
func DefaultScoringConfig() ScoringConfig {
	disallowed := make([]string, len(DefaultDisallowed))
	copy(disallowed, DefaultDisallowed)

	return ScoringConfig{
		WeightDuration:        0.45,
		WeightSimilarity:      0.25,
		WeightCoverage:        0.15,
		BoostArtistChannel:    0.15,
		BoostTopicChannel:     0.25,
		BoostProvidedBy:       0.20,
		BoostAudio:            0.10,
		ToleranceFactor:       0.05,
		GateFactor:            0.15,
		MinToleranceSeconds:   2,
		MinSimilarityForBoost: 0.15,
		Disallowed:            disallowed,
		Similarity:            SimilaritySequence,
	}
}

// Validate checks ranges and the weight ordering the scorer relies on:
// duration outweighs similarity, which outweighs coverage.
func (c ScoringConfig) Validate() error {
	if c.WeightDuration <= c.WeightSimilarity || c.WeightSimilarity <= c.WeightCoverage || c.WeightCoverage < 0 {
		return fmt.Errorf("%w: weights must satisfy duration > similarity > coverage >= 0", domain.ErrInvalidConfig)
	}
	if c.ToleranceFactor <= 0 || c.GateFactor <= 0 {
		return fmt.Errorf("%w: tolerance and gate factors must be positive", domain.ErrInvalidConfig)
	}
	if c.MinToleranceSeconds < 0 {
		return fmt.Errorf("%w: min_tolerance_seconds must not be negative", domain.ErrInvalidConfig)
	}
	if c.MinSimilarityForBoost < 0 || c.MinSimilarityForBoost > 1 {
		return fmt.Errorf("%w: min_similarity_for_boost must be within [0,1]", domain.ErrInvalidConfig)
	}
	if _, err := NewSimilarity(c.Similarity); err != nil {
		return err
	}
	return nil
}

func (c ScoringConfig) tolerance(target int) float64 {
	return max(c.ToleranceFactor*float64(target), c.MinToleranceSeconds)
}

func (c ScoringConfig) gate(target int) float64 {
	return max(c.GateFactor*float64(target), c.MinToleranceSeconds)
}
