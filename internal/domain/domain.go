package domain

import "time"

// WantedTrack is the input unit of a batch: a symbolic reference to a track
// that should be resolved against the search provider and then fetched.
type WantedTrack struct {
	Title    string `json:"title" binding:"required"`
	Artist   string `json:"artist" binding:"required"`
	Album    string `json:"album,omitempty"`
	Year     string `json:"year,omitempty"`
	Duration int    `json:"duration_seconds"`

	// SequenceIndex is the track number within the album (0 when unknown).
	SequenceIndex int `json:"sequence_index,omitempty"`

	// FallbackReference is a previously known direct media locator, used only
	// after every ranked candidate has failed to materialize.
	FallbackReference string `json:"fallback_reference,omitempty"`

	// PreferredReference is a reference chosen ahead of time (for example by
	// an earlier select run). When set, resolution is skipped.
	PreferredReference string `json:"preferred_reference,omitempty"`
	PreferredWeak      bool   `json:"preferred_weak,omitempty"`
}

// Label is a short human readable identifier used in logs.
func (t WantedTrack) Label() string {
	return t.Artist + " - " + t.Title
}

// Candidate is one item returned by the search provider for a query. Duration
// and Description are zero until the candidate has been enriched.
type Candidate struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Duration    int    `json:"duration_seconds"`
	Description string `json:"description,omitempty"`
}

// CandidateDetails is the enriched metadata for a single candidate id.
type CandidateDetails struct {
	Title       string
	Publisher   string
	Duration    int
	Description string
}

// MatchResult is the outcome of scoring a set of candidates for one track.
type MatchResult struct {
	BestCandidateID string   `json:"best_candidate_id,omitempty"`
	RankedIDs       []string `json:"ranked_candidate_ids"`
	TitleSimilarity float64  `json:"title_similarity"`
	TokenCoverage   float64  `json:"token_coverage"`
	DurationDelta   int      `json:"duration_delta_seconds"`
	Score           float64  `json:"composite_score"`
	Weak            bool     `json:"is_weak_match"`
	Query           string   `json:"query,omitempty"`
}

// EmptyMatch is the result for a track with no surviving candidates.
func EmptyMatch() MatchResult {
	return MatchResult{RankedIDs: []string{}, Weak: true}
}

// Found reports whether a best candidate was selected.
func (m MatchResult) Found() bool {
	return m.BestCandidateID != ""
}

// OutcomeStatus is the terminal state of a track within a batch.
type OutcomeStatus string

const (
	StatusResolved     OutcomeStatus = "resolved"
	StatusResolvedWeak OutcomeStatus = "resolved_weak"
	StatusFailed       OutcomeStatus = "failed"
)

// Attempt records a single materialization attempt.
type Attempt struct {
	Reference string `json:"reference"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// RetrievalOutcome is the terminal per-track result of a batch run.
type RetrievalOutcome struct {
	Index      int           `json:"index"`
	Track      WantedTrack   `json:"track"`
	Status     OutcomeStatus `json:"status"`
	SourceUsed string        `json:"source_used,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	Match      *MatchResult  `json:"match,omitempty"`
	Attempts   []Attempt     `json:"attempts"`
	Error      string        `json:"error,omitempty"`

	// Warnings holds post-processing failures. They never change Status.
	Warnings []string `json:"warnings,omitempty"`
}

// NeedsReview reports whether the artifact must be flagged for manual review.
func (o RetrievalOutcome) NeedsReview() bool {
	return o.Status == StatusResolvedWeak
}

// Selection is the output of a resolve-only pass over a track.
type Selection struct {
	Index       int         `json:"index"`
	Track       WantedTrack `json:"track"`
	Match       MatchResult `json:"match"`
	SelectedURL string      `json:"selected_url,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Flagged reports whether the selection needs manual review.
func (s Selection) Flagged() bool {
	return s.Match.Weak || s.SelectedURL == ""
}

// BatchRequest describes a batch to run through the HTTP API. Either Tracks
// or Source+Reference must be supplied.
type BatchRequest struct {
	Tracks    []WantedTrack `json:"tracks,omitempty" binding:"omitempty,dive"`
	Source    string        `json:"source,omitempty"`
	Reference string        `json:"reference,omitempty"`
	Workers   int           `json:"workers,omitempty" binding:"omitempty,min=1,max=32"`
}

// BatchResult summarizes a complete batch run.
type BatchResult struct {
	RunID        string             `json:"run_id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Total        int                `json:"total"`
	Resolved     int                `json:"resolved"`
	ResolvedWeak int                `json:"resolved_weak"`
	Failed       int                `json:"failed"`
	Retries      int                `json:"retries"`
	Outcomes     []RetrievalOutcome `json:"outcomes"`
}

// Summary drops the outcomes.
func (b *BatchResult) Summary() RunSummary {
	return RunSummary{
		RunID:        b.RunID,
		StartedAt:    b.StartedAt,
		FinishedAt:   b.FinishedAt,
		Total:        b.Total,
		Resolved:     b.Resolved,
		ResolvedWeak: b.ResolvedWeak,
		Failed:       b.Failed,
		Retries:      b.Retries,
	}
}

// RunSummary is a stored batch run without its outcomes.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Total        int       `json:"total"`
	Resolved     int       `json:"resolved"`
	ResolvedWeak int       `json:"resolved_weak"`
	Failed       int       `json:"failed"`
	Retries      int       `json:"retries"`
}
