package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTracks_AlbumWithPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/albums/alb1":
			fmt.Fprintf(w, `{
				"name": "A Night at the Opera", "release_date": "1975-11-21",
				"artists": [{"name": "Queen"}],
				"tracks": {"items": [
					{"id": "t1", "name": "Death on Two Legs", "artists": [{"name": "Queen"}],
					 "duration_ms": 223000, "track_number": 1, "preview_url": "https://p.scdn.co/1"}
				], "next": "%s/albums/alb1/tracks?offset=1"}
			}`, srv.URL)
		case "/albums/alb1/tracks":
			_, _ = w.Write([]byte(`{"items": [
				{"id": "t2", "name": "Bohemian Rhapsody", "artists": [{"name": "Queen"}, {"name": "Guest"}],
				 "duration_ms": 354500, "track_number": 11, "preview_url": null}
			], "next": null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewProvider(srv.Client()).WithBaseURL(srv.URL)
	tracks, err := p.ListTracks(context.Background(), "https://open.spotify.com/album/alb1?si=abc")

	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, domain.WantedTrack{
		Title: "Death on Two Legs", Artist: "Queen", Album: "A Night at the Opera", Year: "1975",
		Duration: 223, SequenceIndex: 1, FallbackReference: "https://p.scdn.co/1",
	}, tracks[0])
	assert.Equal(t, 355, tracks[1].Duration)
	assert.Equal(t, "A Night at the Opera", tracks[1].Album)
	assert.Empty(t, tracks[1].FallbackReference)
}

func TestListTracks_PlaylistSkipsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playlists/pl1/tracks", r.URL.Path)
		_, _ = w.Write([]byte(`{"items": [
			{"track": {"id": "t1", "name": "Song", "artists": [{"name": "A"}], "album": {"name": "Alb", "release_date": "2001"},
			 "duration_ms": 180000, "track_number": 3}},
			{"track": null},
			{"track": {"id": "", "name": "Local file"}}
		], "next": ""}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.Client()).WithBaseURL(srv.URL)
	tracks, err := p.ListTracks(context.Background(), "spotify:playlist:pl1")

	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Alb", tracks[0].Album)
	assert.Equal(t, 180, tracks[0].Duration)
}

func TestListTracks_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewProvider(srv.Client()).WithBaseURL(srv.URL)
	_, err := p.ListTracks(context.Background(), "spotify:album:x")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestParseRef(t *testing.T) {
	kind, id, err := parseRef("https://open.spotify.com/intl-de/album/abc123")
	require.NoError(t, err)
	assert.Equal(t, "album", kind)
	assert.Equal(t, "abc123", id)

	_, _, err = parseRef("https://example.com/album/abc")
	assert.Error(t, err)

	_, _, err = parseRef("spotify:album:")
	assert.Error(t, err)
}
