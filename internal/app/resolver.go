package app

import (
	"context"
	"log/slog"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/matching"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

// Resolver turns a wanted track into a MatchResult by walking the query
// ladder against a search provider.
type Resolver struct {
	provider   ports.SearchProvider
	scorer     *matching.Scorer
	maxResults int
	logger     *slog.Logger
}

// NewResolver creates a resolver. maxResults below 1 falls back to 15.
func NewResolver(provider ports.SearchProvider, scorer *matching.Scorer, maxResults int, logger *slog.Logger) *Resolver {
	if maxResults < 1 {
		maxResults = 15
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		provider:   provider,
		scorer:     scorer,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Resolve tries each query of the ladder in order and stops at the first one
// that produces a best candidate. Provider errors count as zero candidates
// for that query. When the ladder is exhausted, or ctx is done before the
// next query, an empty, weak result is returned.
func (r *Resolver) Resolve(ctx context.Context, track domain.WantedTrack) domain.MatchResult {
	for _, query := range matching.BuildQueries(track) {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("resolution stopped", "track", track.Label(), "error", err)
			return domain.EmptyMatch()
		}
		result, ok := r.tryQuery(ctx, track, query)
		if ok {
			result.Query = query
			return result
		}
	}
	r.logger.Info("no candidate found", "track", track.Label())
	return domain.EmptyMatch()
}

func (r *Resolver) tryQuery(ctx context.Context, track domain.WantedTrack, query string) (domain.MatchResult, bool) {
	candidates, err := r.provider.Search(ctx, query, r.maxResults)
	if err != nil {
		r.logger.Warn("search failed", "track", track.Label(), "query", query, "error", err)
		return domain.MatchResult{}, false
	}
	if len(candidates) == 0 {
		r.logger.Debug("no search results", "track", track.Label(), "query", query)
		return domain.MatchResult{}, false
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	details, err := r.provider.Enrich(ctx, ids)
	if err != nil {
		r.logger.Warn("enrich failed", "track", track.Label(), "query", query, "error", err)
		return domain.MatchResult{}, false
	}

	result := r.scorer.Score(candidates, details, track.Duration, track.Artist, track.Title)
	if !result.Found() {
		r.logger.Debug("all candidates filtered", "track", track.Label(), "query", query, "candidates", len(candidates))
		return domain.MatchResult{}, false
	}

	r.logger.Info("candidate selected",
		"track", track.Label(),
		"query", query,
		"candidate", result.BestCandidateID,
		"score", result.Score,
		"weak", result.Weak,
	)
	return result, true
}
