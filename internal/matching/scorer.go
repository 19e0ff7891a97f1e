package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

const (
	topicSuffix    = "topic"
	providedMarker = "provided to youtube by"
	officialAudio  = "official audio"
	audioMarker    = "audio"
)

// ScoredCandidate is the feature breakdown for one candidate that survived
// filtering.
type ScoredCandidate struct {
	ID              string
	Order           int
	DurationDelta   int
	DurationScore   float64
	TitleSimilarity float64
	TokenCoverage   float64
	ChannelBoost    float64
	MetadataBoost   float64
	Score           float64
}

// Scorer filters and ranks candidates for a single track. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	cfg        ScoringConfig
	similarity Similarity
	disallowed []string
}

// NewScorer validates cfg and builds a scorer from it.
func NewScorer(cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim, err := NewSimilarity(cfg.Similarity)
	if err != nil {
		return nil, err
	}

	disallowed := make([]string, 0, len(cfg.Disallowed))
	for _, d := range cfg.Disallowed {
		if n := Normalize(d); n != "" {
			disallowed = append(disallowed, n)
		}
	}

	return &Scorer{cfg: cfg, similarity: sim, disallowed: disallowed}, nil
}

// Config returns the configuration the scorer was built with.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// Score ranks candidates against the wanted track and selects the best one.
// Candidates absent from details are skipped. Rejected candidates never
// appear in the ranked ids.
func (s *Scorer) Score(
	candidates []domain.Candidate,
	details map[string]domain.CandidateDetails,
	target int,
	artist, title string,
) domain.MatchResult {
	ranked := s.Rank(candidates, details, target, artist, title)
	if len(ranked) == 0 {
		return domain.EmptyMatch()
	}

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.ID
	}

	best := ranked[0]
	return domain.MatchResult{
		BestCandidateID: best.ID,
		RankedIDs:       ids,
		TitleSimilarity: best.TitleSimilarity,
		TokenCoverage:   best.TokenCoverage,
		DurationDelta:   best.DurationDelta,
		Score:           best.Score,
		Weak:            s.weak(best, target),
	}
}

// Rank returns the surviving candidates ordered by descending score. Ties
// keep discovery order.
func (s *Scorer) Rank(
	candidates []domain.Candidate,
	details map[string]domain.CandidateDetails,
	target int,
	artist, title string,
) []ScoredCandidate {
	normTitle := Normalize(title)
	normArtist := Normalize(artist)

	seen := make(map[string]bool, len(candidates))
	scored := make([]ScoredCandidate, 0, len(candidates))

	for order, cand := range candidates {
		if cand.ID == "" || seen[cand.ID] {
			continue
		}
		seen[cand.ID] = true

		det, ok := details[cand.ID]
		if !ok {
			continue
		}
		if det.Title == "" {
			det.Title = cand.Title
		}
		if det.Publisher == "" {
			det.Publisher = cand.Publisher
		}

		sc, ok := s.evaluate(det, target, normArtist, normTitle)
		if !ok {
			continue
		}
		sc.ID = cand.ID
		sc.Order = order
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func (s *Scorer) evaluate(det domain.CandidateDetails, target int, normArtist, normTitle string) (ScoredCandidate, bool) {
	candTitle := Normalize(det.Title)
	candDesc := Normalize(det.Description)

	if s.isDisallowed(candTitle) || s.isDisallowed(candDesc) {
		return ScoredCandidate{}, false
	}

	delta := abs(det.Duration - target)
	if target > 0 && float64(delta) > s.cfg.gate(target) {
		return ScoredCandidate{}, false
	}

	sc := ScoredCandidate{DurationDelta: delta}
	sc.DurationScore = math.Max(0, 1-float64(delta)/s.cfg.tolerance(target))
	if normTitle != "" {
		sc.TitleSimilarity = s.similarity(normTitle, candTitle)
	}
	sc.TokenCoverage = tokenCoverage(normTitle, candTitle)

	if s.titleRelated(sc) {
		publisher := Normalize(det.Publisher)
		if normArtist != "" && strings.Contains(publisher, normArtist) {
			sc.ChannelBoost += s.cfg.BoostArtistChannel
		}
		if strings.HasSuffix(publisher, topicSuffix) {
			sc.ChannelBoost += s.cfg.BoostTopicChannel
		}
	}

	lowerTitle := strings.ToLower(det.Title)
	lowerDesc := strings.ToLower(det.Description)
	if strings.Contains(lowerDesc, providedMarker) {
		sc.MetadataBoost += s.cfg.BoostProvidedBy
	}
	if strings.Contains(lowerTitle, officialAudio) || strings.Contains(lowerDesc, officialAudio) || strings.Contains(lowerTitle, audioMarker) {
		sc.MetadataBoost += s.cfg.BoostAudio
	}

	sc.Score = s.cfg.WeightDuration*sc.DurationScore +
		s.cfg.WeightSimilarity*sc.TitleSimilarity +
		s.cfg.WeightCoverage*sc.TokenCoverage +
		sc.ChannelBoost + sc.MetadataBoost
	return sc, true
}

// titleRelated gates channel boosts so an unrelated upload on a reputable
// channel cannot win on channel identity alone.
func (s *Scorer) titleRelated(sc ScoredCandidate) bool {
	return sc.TitleSimilarity >= s.cfg.MinSimilarityForBoost || sc.TokenCoverage > 0
}

func (s *Scorer) weak(best ScoredCandidate, target int) bool {
	trusted := s.titleRelated(best) && float64(best.DurationDelta) <= s.cfg.gate(target)
	return !trusted
}

// isDisallowed matches keywords as plain substrings of the normalized text,
// so plurals and inflections ("covers", "remixed") are caught too.
func (s *Scorer) isDisallowed(text string) bool {
	if text == "" {
		return false
	}
	for _, d := range s.disallowed {
		if strings.Contains(text, d) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
