package ports

import (
	"context"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// SearchProvider is the driven port for the external catalog. Any provider
// that satisfies this contract can back the resolver.
type SearchProvider interface {
	// Search returns up to maxResults raw candidates for query. Duration and
	// description are left empty. Zero matches is an empty slice, not an
	// error; transport and auth failures wrap domain.ErrProviderUnavailable.
	Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, error)

	// Enrich fetches details for ids in a single batched call. Ids missing
	// from the response are absent from the returned map.
	Enrich(ctx context.Context, ids []string) (map[string]domain.CandidateDetails, error)

	// Locate turns a candidate id into a fetchable locator.
	Locate(id string) string
}

// Materializer fetches a reference and transcodes it to the target audio
// container at destination.
type Materializer interface {
	Materialize(ctx context.Context, reference string, destination string) error
	Name() string
}

// TrackSource lists wanted tracks from an external catalog reference such as
// an album URL.
type TrackSource interface {
	ListTracks(ctx context.Context, ref string) ([]domain.WantedTrack, error)
	Name() string
}

// PostProcessor consumes a successfully materialized track, for example to
// write audio tags.
type PostProcessor interface {
	Process(ctx context.Context, outcome domain.RetrievalOutcome) error
}

// OutcomeStore persists batch runs for later diagnosis.
type OutcomeStore interface {
	SaveRun(ctx context.Context, result *domain.BatchResult) error
	GetRun(ctx context.Context, runID string) (*domain.BatchResult, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}

// BatchService is the driving port for the resolve and retrieve use cases.
type BatchService interface {
	// RunBatch resolves and retrieves every track, returning one outcome per
	// input track. Per-track failures are reported in the outcomes.
	RunBatch(ctx context.Context, tracks []domain.WantedTrack, workers int) (*domain.BatchResult, error)

	// SelectBatch resolves every track without retrieving anything.
	SelectBatch(ctx context.Context, tracks []domain.WantedTrack, workers int) ([]domain.Selection, error)

	// ListTracks loads wanted tracks from a named source.
	ListTracks(ctx context.Context, source string, ref string) ([]domain.WantedTrack, error)

	// GetRun returns a previously persisted run.
	GetRun(ctx context.Context, runID string) (*domain.BatchResult, error)

	// ListRuns returns up to limit stored runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
