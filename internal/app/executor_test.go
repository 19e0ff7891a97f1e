package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(mat *mockMaterializer, post ...ports.PostProcessor) *Executor {
	return NewExecutor(mat, newMockSearch(), "/out", "mp3", nil, post...)
}

var fallbackTrack = domain.WantedTrack{
	Artist: "Artist", Title: "Song", Duration: 180, SequenceIndex: 2,
	FallbackReference: "https://preview.test/F.m4a",
}

func TestRetrieve_FallsBackToNextRankedCandidate(t *testing.T) {
	mat := newMockMaterializer("https://video.test/A")
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A", "B"}}

	outcome := newTestExecutor(mat).Retrieve(context.Background(), fallbackTrack, match)

	assert.Equal(t, domain.StatusResolved, outcome.Status)
	assert.Equal(t, "B", outcome.SourceUsed)
	require.Len(t, outcome.Attempts, 2)
	assert.Equal(t, "A", outcome.Attempts[0].Reference)
	assert.False(t, outcome.Attempts[0].Success)
	assert.Contains(t, outcome.Attempts[0].Error, "video unavailable")
	assert.Equal(t, domain.Attempt{Reference: "B", Success: true}, outcome.Attempts[1])
	assert.Equal(t, []string{"https://video.test/A", "https://video.test/B"}, mat.calls, "fallback must not be attempted")
	assert.Equal(t, filepath.Join("/out", "02 - Artist - Song.mp3"), outcome.OutputPath)
}

func TestRetrieve_BestCandidateAttemptedFirst(t *testing.T) {
	mat := newMockMaterializer()
	match := &domain.MatchResult{BestCandidateID: "B", RankedIDs: []string{"A", "B", "C"}}

	outcome := newTestExecutor(mat).Retrieve(context.Background(), fallbackTrack, match)

	assert.Equal(t, "B", outcome.SourceUsed)
	assert.Equal(t, []string{"https://video.test/B"}, mat.calls)
}

func TestRetrieve_UsesFallbackReferenceLast(t *testing.T) {
	mat := newMockMaterializer("https://video.test/A", "https://video.test/B")
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A", "B"}}

	outcome := newTestExecutor(mat).Retrieve(context.Background(), fallbackTrack, match)

	assert.Equal(t, domain.StatusResolved, outcome.Status)
	assert.Equal(t, fallbackTrack.FallbackReference, outcome.SourceUsed)
	assert.Len(t, outcome.Attempts, 3)
}

func TestRetrieve_AllReferencesExhausted(t *testing.T) {
	mat := newMockMaterializer("https://video.test/A", fallbackTrack.FallbackReference)
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A"}}

	outcome := newTestExecutor(mat).Retrieve(context.Background(), fallbackTrack, match)

	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Empty(t, outcome.SourceUsed)
	assert.Empty(t, outcome.OutputPath)
	assert.Len(t, outcome.Attempts, 2)
	assert.Contains(t, outcome.Error, domain.ErrAllReferencesExhausted.Error())
}

func TestRetrieve_NoReferences(t *testing.T) {
	mat := newMockMaterializer()
	track := domain.WantedTrack{Artist: "A", Title: "B", Duration: 100}
	empty := domain.EmptyMatch()

	outcome := newTestExecutor(mat).Retrieve(context.Background(), track, &empty)

	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Empty(t, outcome.Attempts)
	assert.Equal(t, domain.ErrNoReferences.Error(), outcome.Error)
	assert.Zero(t, mat.callCount())
}

func TestRetrieve_WeakMatchGetsReviewPrefix(t *testing.T) {
	mat := newMockMaterializer()
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A"}, Weak: true}

	outcome := newTestExecutor(mat).Retrieve(context.Background(), fallbackTrack, match)

	assert.Equal(t, domain.StatusResolvedWeak, outcome.Status)
	assert.True(t, outcome.NeedsReview())
	assert.Equal(t, filepath.Join("/out", "CHECK_02 - Artist - Song.mp3"), outcome.OutputPath)
	assert.Equal(t, outcome.OutputPath, mat.dests[0])
}

func TestRetrieve_FallbackOnlyIsWeak(t *testing.T) {
	mat := newMockMaterializer()
	empty := domain.EmptyMatch()

	outcome := newTestExecutor(mat).Retrieve(context.Background(), fallbackTrack, &empty)

	assert.Equal(t, domain.StatusResolvedWeak, outcome.Status)
	assert.Equal(t, fallbackTrack.FallbackReference, outcome.SourceUsed)
}

func TestRetrieve_PreferredReference(t *testing.T) {
	mat := newMockMaterializer()
	track := fallbackTrack
	track.PreferredReference = "https://video.test/chosen"

	outcome := newTestExecutor(mat).Retrieve(context.Background(), track, nil)

	assert.Equal(t, domain.StatusResolved, outcome.Status)
	assert.Equal(t, "https://video.test/chosen", outcome.SourceUsed)
	assert.Nil(t, outcome.Match)

	track.PreferredWeak = true
	outcome = newTestExecutor(newMockMaterializer()).Retrieve(context.Background(), track, nil)
	assert.Equal(t, domain.StatusResolvedWeak, outcome.Status)
}

func TestRetrieve_PostProcessErrorDoesNotChangeStatus(t *testing.T) {
	mat := newMockMaterializer()
	post := &mockPost{err: errors.New("tag write failed")}
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A"}}

	outcome := newTestExecutor(mat, post).Retrieve(context.Background(), fallbackTrack, match)

	assert.Equal(t, domain.StatusResolved, outcome.Status)
	assert.Equal(t, []string{"tag write failed"}, outcome.Warnings)
	require.Len(t, post.seen, 1)
	assert.Equal(t, "A", post.seen[0].SourceUsed)
}

func TestRetrieve_PostProcessNotRunOnFailure(t *testing.T) {
	mat := newMockMaterializer("https://video.test/A")
	post := &mockPost{}
	track := domain.WantedTrack{Artist: "A", Title: "B", Duration: 100}
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A"}}

	outcome := newTestExecutor(mat, post).Retrieve(context.Background(), track, match)

	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Empty(t, post.seen)
}

func TestRetrieve_StopsBeforeNextAttemptWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mat := newMockMaterializer("https://video.test/A")
	mat.onCall = func(string) { cancel() }
	match := &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A", "B"}}

	outcome := newTestExecutor(mat).Retrieve(ctx, fallbackTrack, match)

	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Error, domain.ErrBatchDeadline.Error())
	require.Len(t, outcome.Attempts, 1)
	assert.Equal(t, "A", outcome.Attempts[0].Reference)
	assert.Equal(t, []string{"https://video.test/A"}, mat.calls, "B and the fallback must not start")
	assert.Equal(t, []error{nil}, mat.contextErrors(), "in-flight attempt runs detached")
}

func TestRetrieve_DoneContextStartsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mat := newMockMaterializer()

	outcome := newTestExecutor(mat).Retrieve(ctx, fallbackTrack, &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A"}})

	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.Empty(t, outcome.Attempts)
	assert.Zero(t, mat.callCount())
}

func TestRetrieve_SuccessBeforeDeadlineIsKept(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mat := newMockMaterializer()
	mat.onCall = func(string) { cancel() }
	post := &mockPost{}

	outcome := newTestExecutor(mat, post).Retrieve(ctx, fallbackTrack, &domain.MatchResult{BestCandidateID: "A", RankedIDs: []string{"A"}})

	assert.Equal(t, domain.StatusResolved, outcome.Status)
	assert.Len(t, post.seen, 1, "post-processing still runs for a finished transfer")
}
