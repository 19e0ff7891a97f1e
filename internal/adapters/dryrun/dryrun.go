package dryrun

import (
	"context"
	"log/slog"
	"sync"
)

// Plan is one materialization that would have happened.
type Plan struct {
	Reference   string
	Destination string
}

// Materializer records what would be fetched without touching the network
// or the filesystem. Every call succeeds.
type Materializer struct {
	logger *slog.Logger

	mu    sync.Mutex
	plans []Plan
}

// New creates a dry-run materializer.
func New(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Materializer{logger: logger}
}

func (m *Materializer) Name() string {
	return "dryrun"
}

func (m *Materializer) Materialize(_ context.Context, reference, destination string) error {
	m.mu.Lock()
	m.plans = append(m.plans, Plan{Reference: reference, Destination: destination})
	m.mu.Unlock()

	m.logger.Info("dry run: would save", "reference", reference, "destination", destination)
	return nil
}

// Plans returns the recorded materializations in call order.
func (m *Materializer) Plans() []Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Plan, len(m.plans))
	copy(out, m.plans)
	return out
}
