package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// -- Mock search provider ----------------------------------------------------

type mockSearch struct {
	mu sync.Mutex

	// byTitle maps a track title to the candidate returned for any query
	// containing that title.
	byTitle map[string]domain.Candidate
	// failing makes any query containing the key return ErrProviderUnavailable.
	failing []string
	// emptyQueries return zero results.
	emptyQueries map[string]bool

	searchCalls int
	enrichCalls int
	queries     []string
}

func newMockSearch() *mockSearch {
	return &mockSearch{
		byTitle:      make(map[string]domain.Candidate),
		emptyQueries: make(map[string]bool),
	}
}

// add registers a well matching candidate for track.
func (m *mockSearch) add(track domain.WantedTrack, id string) {
	m.byTitle[track.Title] = domain.Candidate{
		ID:        id,
		Title:     track.Title,
		Publisher: track.Artist + " - Topic",
		Duration:  track.Duration,
	}
}

func (m *mockSearch) Search(_ context.Context, query string, _ int) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.queries = append(m.queries, query)

	for _, f := range m.failing {
		if strings.Contains(query, f) {
			return nil, fmt.Errorf("%w: quota exceeded", domain.ErrProviderUnavailable)
		}
	}
	if m.emptyQueries[query] {
		return []domain.Candidate{}, nil
	}

	var out []domain.Candidate
	for title, c := range m.byTitle {
		if strings.Contains(query, title) {
			out = append(out, domain.Candidate{ID: c.ID, Title: c.Title, Publisher: c.Publisher})
		}
	}
	return out, nil
}

func (m *mockSearch) Enrich(_ context.Context, ids []string) (map[string]domain.CandidateDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrichCalls++

	details := make(map[string]domain.CandidateDetails)
	for _, c := range m.byTitle {
		for _, id := range ids {
			if c.ID == id {
				details[id] = domain.CandidateDetails{Title: c.Title, Publisher: c.Publisher, Duration: c.Duration}
			}
		}
	}
	return details, nil
}

func (m *mockSearch) Locate(id string) string {
	return "https://video.test/" + id
}

func (m *mockSearch) calls() (search, enrich int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls, m.enrichCalls
}

// -- Mock materializer -------------------------------------------------------

type mockMaterializer struct {
	mu      sync.Mutex
	failing map[string]bool
	// panicking references make Materialize panic.
	panicking map[string]bool
	// delay is slept before every attempt, regardless of ctx.
	delay time.Duration
	// onCall runs at the end of every attempt.
	onCall func(reference string)

	calls   []string
	dests   []string
	ctxErrs []error
}

func newMockMaterializer(failing ...string) *mockMaterializer {
	m := &mockMaterializer{failing: make(map[string]bool), panicking: make(map[string]bool)}
	for _, f := range failing {
		m.failing[f] = true
	}
	return m
}

func (m *mockMaterializer) Name() string { return "mock" }

func (m *mockMaterializer) Materialize(ctx context.Context, reference, destination string) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, reference)
	m.dests = append(m.dests, destination)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	if m.onCall != nil {
		m.onCall(reference)
	}
	if m.panicking[reference] {
		panic("decoder crashed on " + reference)
	}
	if m.failing[reference] {
		return fmt.Errorf("%w: video unavailable", domain.ErrProviderUnavailable)
	}
	return nil
}

func (m *mockMaterializer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockMaterializer) contextErrors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.ctxErrs...)
}

// -- Mock post processor -----------------------------------------------------

type mockPost struct {
	mu   sync.Mutex
	err  error
	seen []domain.RetrievalOutcome
}

func (m *mockPost) Process(_ context.Context, outcome domain.RetrievalOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, outcome)
	return m.err
}

// -- Mock store --------------------------------------------------------------

type mockStore struct {
	mu   sync.Mutex
	runs map[string]*domain.BatchResult
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{runs: make(map[string]*domain.BatchResult)}
}

func (m *mockStore) SaveRun(_ context.Context, result *domain.BatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs[result.RunID] = result
	return nil
}

func (m *mockStore) GetRun(_ context.Context, runID string) (*domain.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return run, nil
}

func (m *mockStore) ListRuns(_ context.Context, _ int) ([]domain.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.Summary())
	}
	return out, nil
}

// -- Mock track source -------------------------------------------------------

type mockSource struct {
	name   string
	tracks []domain.WantedTrack
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) ListTracks(_ context.Context, _ string) ([]domain.WantedTrack, error) {
	return m.tracks, nil
}
