package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/naming"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

// Locator turns a candidate id into something a materializer can fetch.
type Locator interface {
	Locate(id string) string
}

// Executor materializes a resolved track, walking the ranked candidates and
// then the fallback reference until one attempt succeeds. Attempts are
// strictly sequential.
type Executor struct {
	materializer ports.Materializer
	locator      Locator
	outputDir    string
	format       string
	post         []ports.PostProcessor
	logger       *slog.Logger
}

// NewExecutor creates an executor writing files named by the naming package
// under outputDir with the given audio format extension.
func NewExecutor(
	materializer ports.Materializer,
	locator Locator,
	outputDir, format string,
	logger *slog.Logger,
	post ...ports.PostProcessor,
) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		materializer: materializer,
		locator:      locator,
		outputDir:    outputDir,
		format:       format,
		post:         post,
		logger:       logger,
	}
}

type reference struct {
	label   string // recorded in the attempt log
	locator string // handed to the materializer
}

// Retrieve attempts every reference for track in order and returns the
// terminal outcome. It never returns an error; failures are recorded in the
// outcome. Once ctx is done no further attempt is started.
func (e *Executor) Retrieve(ctx context.Context, track domain.WantedTrack, match *domain.MatchResult) domain.RetrievalOutcome {
	weak := e.isWeak(track, match)
	destination := naming.Path(e.outputDir, track, weak, e.format)

	outcome := domain.RetrievalOutcome{
		Track:    track,
		Match:    match,
		Attempts: []domain.Attempt{},
	}

	refs := e.references(track, match)
	if len(refs) == 0 {
		outcome.Status = domain.StatusFailed
		outcome.Error = domain.ErrNoReferences.Error()
		e.logger.Warn("nothing to retrieve", "track", track.Label())
		return outcome
	}

	var lastErr error
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			outcome.Status = domain.StatusFailed
			outcome.Error = fmt.Errorf("%w: %v", domain.ErrBatchDeadline, err).Error()
			e.logger.Warn("stopping before next attempt", "track", track.Label(), "attempts", len(outcome.Attempts), "error", err)
			return outcome
		}
		e.logger.Debug("materializing",
			"track", track.Label(),
			"reference", ref.label,
			"attempt", i+1,
			"of", len(refs),
		)
		// An attempt that has started runs to completion even if the batch
		// deadline passes meanwhile.
		err := e.materializer.Materialize(context.WithoutCancel(ctx), ref.locator, destination)
		if err != nil {
			lastErr = err
			outcome.Attempts = append(outcome.Attempts, domain.Attempt{Reference: ref.label, Error: err.Error()})
			e.logger.Warn("attempt failed", "track", track.Label(), "reference", ref.label, "error", err)
			continue
		}

		outcome.Attempts = append(outcome.Attempts, domain.Attempt{Reference: ref.label, Success: true})
		outcome.SourceUsed = ref.label
		outcome.OutputPath = destination
		outcome.Status = domain.StatusResolved
		if weak {
			outcome.Status = domain.StatusResolvedWeak
		}
		e.postProcess(context.WithoutCancel(ctx), &outcome)
		return outcome
	}

	outcome.Status = domain.StatusFailed
	outcome.Error = fmt.Errorf("%w: last error: %v", domain.ErrAllReferencesExhausted, lastErr).Error()
	e.logger.Error("all references failed", "track", track.Label(), "attempts", len(outcome.Attempts))
	return outcome
}

// references lists attempt order: a preferred reference replaces the ranked
// candidates; the fallback reference always comes last and only once.
func (e *Executor) references(track domain.WantedTrack, match *domain.MatchResult) []reference {
	var refs []reference
	seen := make(map[string]bool)
	add := func(label, locator string) {
		if locator == "" || seen[locator] {
			return
		}
		seen[locator] = true
		refs = append(refs, reference{label: label, locator: locator})
	}

	switch {
	case track.PreferredReference != "":
		add(track.PreferredReference, track.PreferredReference)
	case match != nil && match.Found():
		add(match.BestCandidateID, e.locator.Locate(match.BestCandidateID))
		for _, id := range match.RankedIDs {
			if id != match.BestCandidateID {
				add(id, e.locator.Locate(id))
			}
		}
	}

	add(track.FallbackReference, track.FallbackReference)
	return refs
}

func (e *Executor) isWeak(track domain.WantedTrack, match *domain.MatchResult) bool {
	if track.PreferredReference != "" {
		return track.PreferredWeak
	}
	return match == nil || match.Weak
}

func (e *Executor) postProcess(ctx context.Context, outcome *domain.RetrievalOutcome) {
	for _, p := range e.post {
		if err := p.Process(ctx, *outcome); err != nil {
			outcome.Warnings = append(outcome.Warnings, err.Error())
			e.logger.Warn("post-processing failed", "track", outcome.Track.Label(), "error", err)
		}
	}
}
