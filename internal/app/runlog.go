package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// RunLog accumulates the outcomes of one batch run. Each run owns its own
// RunLog; nothing is shared between runs.
type RunLog struct {
	mu       sync.Mutex
	runID    string
	started  time.Time
	logger   *slog.Logger
	outcomes []domain.RetrievalOutcome
}

func newRunLog(logger *slog.Logger, total int, now time.Time) *RunLog {
	id := uuid.NewString()
	return &RunLog{
		runID:    id,
		started:  now,
		logger:   logger.With("run_id", id),
		outcomes: make([]domain.RetrievalOutcome, total),
	}
}

// ID returns the run identifier.
func (l *RunLog) ID() string { return l.runID }

// Logger returns a logger tagged with the run id.
func (l *RunLog) Logger() *slog.Logger { return l.logger }

// Record stores the outcome for the track at index.
func (l *RunLog) Record(index int, outcome domain.RetrievalOutcome) {
	outcome.Index = index
	l.mu.Lock()
	l.outcomes[index] = outcome
	l.mu.Unlock()
}

// Result builds the batch summary.
func (l *RunLog) Result(finished time.Time) *domain.BatchResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := &domain.BatchResult{
		RunID:      l.runID,
		StartedAt:  l.started,
		FinishedAt: finished,
		Total:      len(l.outcomes),
		Outcomes:   make([]domain.RetrievalOutcome, len(l.outcomes)),
	}
	copy(res.Outcomes, l.outcomes)

	for _, o := range res.Outcomes {
		switch o.Status {
		case domain.StatusResolved:
			res.Resolved++
		case domain.StatusResolvedWeak:
			res.ResolvedWeak++
		default:
			res.Failed++
		}
		if n := len(o.Attempts); n > 1 {
			res.Retries += n - 1
		}
	}
	return res
}
