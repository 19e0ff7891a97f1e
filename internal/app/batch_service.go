package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jpp0ca/TrackFetch/internal/adapters"
	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

var _ ports.BatchService = (*Service)(nil)

// Service implements ports.BatchService using a worker pool pattern. Each
// worker runs the full resolve then retrieve pipeline for one track before
// taking the next.
type Service struct {
	resolver *Resolver
	executor *Executor
	locator  Locator
	sources  *adapters.SourceRegistry
	store    ports.OutcomeStore
	workers  int
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithStore persists every batch result.
func WithStore(store ports.OutcomeStore) Option {
	return func(s *Service) { s.store = store }
}

// WithSources enables ListTracks.
func WithSources(sources *adapters.SourceRegistry) Option {
	return func(s *Service) { s.sources = sources }
}

// WithBatchTimeout bounds the batch. Tracks not yet started are abandoned
// and running tracks stop before their next query or attempt; an attempt
// already in flight is allowed to finish.
func WithBatchTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new batch service. workers is the default pool size
// used when a call does not specify one.
func NewService(resolver *Resolver, executor *Executor, locator Locator, workers int, opts ...Option) *Service {
	if workers < 1 {
		workers = 1
	}
	s := &Service{
		resolver: resolver,
		executor: executor,
		locator:  locator,
		workers:  workers,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListTracks(ctx context.Context, source string, ref string) ([]domain.WantedTrack, error) {
	if s.sources == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, source)
	}
	src, err := s.sources.Get(source)
	if err != nil {
		return nil, err
	}
	return src.ListTracks(ctx, ref)
}

func (s *Service) GetRun(ctx context.Context, runID string) (*domain.BatchResult, error) {
	if s.store == nil {
		return nil, domain.ErrNoStore
	}
	return s.store.GetRun(ctx, runID)
}

// ListRuns returns the most recent stored runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if s.store == nil {
		return nil, domain.ErrNoStore
	}
	return s.store.ListRuns(ctx, limit)
}

// RunBatch resolves and retrieves every track and returns one outcome per
// input track, in input order. A failing track never affects its siblings.
func (s *Service) RunBatch(ctx context.Context, tracks []domain.WantedTrack, workers int) (*domain.BatchResult, error) {
	run := newRunLog(s.logger, len(tracks), s.now())
	logger := run.Logger()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	logger.Info("batch started", "tracks", len(tracks), "workers", s.poolSize(workers))

	runParallel(ctx, logger, s.poolSize(workers), tracks,
		func(ctx context.Context, workerID, index int, track domain.WantedTrack) {
			run.Record(index, s.process(ctx, logger.With("worker", workerID), track))
		},
		func(index int, track domain.WantedTrack, err error) {
			logger.Warn("track not completed", "track", track.Label(), "error", err)
			run.Record(index, domain.RetrievalOutcome{
				Track:    track,
				Status:   domain.StatusFailed,
				Attempts: []domain.Attempt{},
				Error:    err.Error(),
			})
		},
	)

	result := run.Result(s.now())
	logger.Info("batch complete",
		"resolved", result.Resolved,
		"resolved_weak", result.ResolvedWeak,
		"failed", result.Failed,
	)

	if s.store != nil {
		// The batch outcome stands even when it cannot be persisted.
		if err := s.store.SaveRun(context.WithoutCancel(ctx), result); err != nil {
			logger.Error("failed to persist run", "error", err)
		}
	}
	return result, nil
}

// process runs the pipeline for one track.
func (s *Service) process(ctx context.Context, logger *slog.Logger, track domain.WantedTrack) domain.RetrievalOutcome {
	if track.Duration <= 0 {
		logger.Warn("track has no duration, skipping", "track", track.Label())
		return domain.RetrievalOutcome{
			Track:    track,
			Status:   domain.StatusFailed,
			Attempts: []domain.Attempt{},
			Error:    domain.ErrUnresolvableTrack.Error(),
		}
	}

	var match *domain.MatchResult
	if track.PreferredReference == "" {
		m := s.resolver.Resolve(ctx, track)
		match = &m
	}
	outcome := s.executor.Retrieve(ctx, track, match)
	logger.Info("track finished", "track", track.Label(), "status", outcome.Status, "source", outcome.SourceUsed)
	return outcome
}

// SelectBatch resolves every track without retrieving anything.
func (s *Service) SelectBatch(ctx context.Context, tracks []domain.WantedTrack, workers int) ([]domain.Selection, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var mu sync.Mutex
	selections := make([]domain.Selection, len(tracks))
	set := func(index int, sel domain.Selection) {
		sel.Index = index
		mu.Lock()
		selections[index] = sel
		mu.Unlock()
	}

	runParallel(ctx, s.logger, s.poolSize(workers), tracks,
		func(ctx context.Context, _ int, index int, track domain.WantedTrack) {
			set(index, s.selectOne(ctx, track))
		},
		func(index int, track domain.WantedTrack, err error) {
			set(index, domain.Selection{Track: track, Match: domain.EmptyMatch(), Error: err.Error()})
		},
	)
	return selections, nil
}

func (s *Service) selectOne(ctx context.Context, track domain.WantedTrack) domain.Selection {
	if track.Duration <= 0 {
		return domain.Selection{Track: track, Match: domain.EmptyMatch(), Error: domain.ErrUnresolvableTrack.Error()}
	}
	match := s.resolver.Resolve(ctx, track)
	sel := domain.Selection{Track: track, Match: match}
	switch {
	case match.Found():
		sel.SelectedURL = s.locator.Locate(match.BestCandidateID)
	case ctx.Err() != nil:
		sel.Error = fmt.Errorf("%w: %v", domain.ErrBatchDeadline, ctx.Err()).Error()
	}
	return sel
}

// MaxWorkers caps the pool size of a single batch.
const MaxWorkers = 32

func (s *Service) poolSize(requested int) int {
	if requested < 1 {
		requested = s.workers
	}
	return min(requested, MaxWorkers)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// runParallel feeds items to a fixed pool of workers. Items picked up after
// ctx is done are handed to fail with ErrBatchAbandoned instead of work.
// A panic inside work is recovered and reported to fail for that item only;
// the worker keeps draining the queue.
func runParallel[T any](
	ctx context.Context,
	logger *slog.Logger,
	workers int,
	items []T,
	work func(ctx context.Context, workerID, index int, item T),
	fail func(index int, item T, err error),
) {
	type indexed struct {
		index int
		item  T
	}

	itemCh := make(chan indexed, len(items))
	for i, item := range items {
		itemCh <- indexed{index: i, item: item}
	}
	close(itemCh)

	safeWork := func(workerID int, it indexed) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("recovered panic in worker",
					"worker", workerID,
					"index", it.index,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				fail(it.index, it.item, fmt.Errorf("%w: %v", domain.ErrTrackPanicked, r))
			}
		}()
		work(ctx, workerID, it.index, it.item)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for it := range itemCh {
				select {
				case <-ctx.Done():
					fail(it.index, it.item, domain.ErrBatchAbandoned)
					continue
				default:
				}
				safeWork(workerID, it)
			}
		}(i)
	}
	wg.Wait()
}
