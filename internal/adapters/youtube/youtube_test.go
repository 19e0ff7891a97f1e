package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Helpers -----------------------------------------------------------------

const searchBody = `{
  "items": [
    {"id": {"videoId": "vid1"}, "snippet": {"title": "Song X", "channelTitle": "Random Guy"}},
    {"id": {"channelId": "chan"}, "snippet": {"title": "A channel", "channelTitle": "Chan"}},
    {"id": {"videoId": "vid2"}, "snippet": {"title": "Song X (Official Audio)", "channelTitle": "Artist - Topic"}}
  ]
}`

const videosBody = `{
  "items": [
    {"id": "vid1", "snippet": {"title": "Song X", "channelTitle": "Random Guy", "description": ""},
     "contentDetails": {"duration": "PT3M"}},
    {"id": "vid2", "snippet": {"title": "Song X (Official Audio)", "channelTitle": "Artist - Topic",
     "description": "Provided to YouTube by Label"}, "contentDetails": {"duration": "PT3M2S"}}
  ]
}`

func newServer(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProvider(srv.Client(), "test-key", WithBaseURL(srv.URL))
}

// -- Tests -------------------------------------------------------------------

func TestSearch_ReturnsVideoCandidates(t *testing.T) {
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Artist Song X audio", r.URL.Query().Get("q"))
		assert.Equal(t, "15", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(searchBody))
	})

	cands, err := p.Search(context.Background(), "Artist Song X audio", 15)

	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "vid1", cands[0].ID)
	assert.Equal(t, "Artist - Topic", cands[1].Publisher)
	assert.Zero(t, cands[1].Duration)
}

func TestSearch_EmptyIsNotAnError(t *testing.T) {
	p := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	cands, err := p.Search(context.Background(), "nothing", 15)

	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestSearch_HTTPErrorIsProviderUnavailable(t *testing.T) {
	p := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "quotaExceeded"}`))
	})

	_, err := p.Search(context.Background(), "q", 15)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "403")
}

func TestEnrich_SingleBatchedCall(t *testing.T) {
	var calls atomic.Int32
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "vid1,vid2,gone", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(videosBody))
	})

	details, err := p.Enrich(context.Background(), []string{"vid1", "vid2", "gone"})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, details, 2)
	assert.Equal(t, 180, details["vid1"].Duration)
	assert.Equal(t, 182, details["vid2"].Duration)
	assert.Contains(t, details["vid2"].Description, "Provided to YouTube")
	_, ok := details["gone"]
	assert.False(t, ok)
}

func TestListTracks_SingleVideo(t *testing.T) {
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abcdefghijk", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"items": [{"id": "abcdefghijk",
			"snippet": {"title": "Queen - Bohemian Rhapsody (Official Video)", "channelTitle": "Queen Official"},
			"contentDetails": {"duration": "PT5M55S"}}]}`))
	})

	tracks, err := p.ListTracks(context.Background(), "https://www.youtube.com/watch?v=abcdefghijk&list=x")

	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Bohemian Rhapsody", tracks[0].Title)
	assert.Equal(t, "Queen", tracks[0].Artist)
	assert.Equal(t, 355, tracks[0].Duration)
	assert.Equal(t, "https://www.youtube.com/watch?v=abcdefghijk", tracks[0].FallbackReference)
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"PT3M12S":  192,
		"PT1H2M3S": 3723,
		"PT45S":    45,
		"PT4M":     240,
		"P1DT1S":   86401,
		"":         0,
		"3:12":     0,
		"PTXM":     0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDuration(in), "input %q", in)
	}
}

func TestVideoID(t *testing.T) {
	assert.Equal(t, "abcdefghijk", VideoID("https://www.youtube.com/watch?v=abcdefghijk"))
	assert.Equal(t, "abcdefghijk", VideoID("https://youtu.be/abcdefghijk"))
	assert.Equal(t, "abcdefghijk", VideoID("https://www.youtube.com/shorts/abcdefghijk"))
	assert.Equal(t, "abcdefghijk", VideoID("abcdefghijk"))
	assert.Empty(t, VideoID("https://example.com/clip.m4a"))
}

func TestLocate(t *testing.T) {
	p := NewProvider(nil, "k")
	assert.True(t, strings.HasSuffix(p.Locate("vid1"), "watch?v=vid1"))
}
