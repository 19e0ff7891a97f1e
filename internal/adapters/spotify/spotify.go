package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	tokenURL       = "https://accounts.spotify.com/api/token"
	maxPerPage     = 50
)

// Provider implements ports.TrackSource for Spotify albums and playlists
// using the Web API. The HTTP client is expected to carry authentication,
// see NewClientCredentials.
type Provider struct {
	client  *http.Client
	baseURL string
}

// NewClientCredentials returns an HTTP client that authenticates with the
// client-credentials flow.
func NewClientCredentials(ctx context.Context, clientID, clientSecret string) *http.Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return cfg.Client(ctx)
}

// NewProvider creates a new Spotify provider with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewProvider(client *http.Client) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{client: client, baseURL: defaultBaseURL}
}

// WithBaseURL returns a copy of p that talks to base instead of the public API.
func (p *Provider) WithBaseURL(base string) *Provider {
	cp := *p
	cp.baseURL = strings.TrimRight(base, "/")
	return &cp
}

func (p *Provider) Name() string {
	return "spotify"
}

// -- API response types (internal) ------------------------------------------

type albumResponse struct {
	Name        string       `json:"name"`
	ReleaseDate string       `json:"release_date"`
	Artists     []artistData `json:"artists"`
	Tracks      tracksPage   `json:"tracks"`
}

type tracksPage struct {
	Items []trackData `json:"items"`
	Next  string      `json:"next"`
}

type playlistTracksResponse struct {
	Items []struct {
		Track *trackData `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type trackData struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Artists     []artistData `json:"artists"`
	Album       albumData    `json:"album"`
	DurationMS  int          `json:"duration_ms"`
	TrackNumber int          `json:"track_number"`
	PreviewURL  string       `json:"preview_url"`
}

type artistData struct {
	Name string `json:"name"`
}

type albumData struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// -- TrackSource implementation ----------------------------------------------

// ListTracks accepts an album or playlist URL or URI.
func (p *Provider) ListTracks(ctx context.Context, ref string) ([]domain.WantedTrack, error) {
	kind, id, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "album":
		return p.albumTracks(ctx, id)
	case "playlist":
		return p.playlistTracks(ctx, id)
	default:
		return nil, fmt.Errorf("spotify: unsupported reference kind %q", kind)
	}
}

func (p *Provider) albumTracks(ctx context.Context, albumID string) ([]domain.WantedTrack, error) {
	body, err := p.doGet(ctx, fmt.Sprintf("%s/albums/%s", p.baseURL, albumID))
	if err != nil {
		return nil, fmt.Errorf("spotify: failed to get album: %w", err)
	}

	var album albumResponse
	if err := json.Unmarshal(body, &album); err != nil {
		return nil, fmt.Errorf("spotify: failed to parse album response: %w", err)
	}

	albumInfo := albumData{Name: album.Name, ReleaseDate: album.ReleaseDate}
	var tracks []domain.WantedTrack
	page := album.Tracks
	for {
		for _, item := range page.Items {
			item.Album = albumInfo
			tracks = append(tracks, toWantedTrack(item))
		}
		if page.Next == "" {
			break
		}
		body, err := p.doGet(ctx, page.Next)
		if err != nil {
			return nil, fmt.Errorf("spotify: failed to get album tracks: %w", err)
		}
		page = tracksPage{}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("spotify: failed to parse album tracks: %w", err)
		}
	}

	return tracks, nil
}

func (p *Provider) playlistTracks(ctx context.Context, playlistID string) ([]domain.WantedTrack, error) {
	var tracks []domain.WantedTrack
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d", p.baseURL, playlistID, maxPerPage)

	for endpoint != "" {
		body, err := p.doGet(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("spotify: failed to get playlist tracks: %w", err)
		}

		var resp playlistTracksResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("spotify: failed to parse tracks response: %w", err)
		}

		for _, item := range resp.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue // skip local or unavailable tracks
			}
			tracks = append(tracks, toWantedTrack(*item.Track))
		}

		endpoint = resp.Next
	}

	return tracks, nil
}

// -- HTTP helpers ------------------------------------------------------------

func (p *Provider) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: spotify API returned status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	return body, nil
}

// -- Helpers -----------------------------------------------------------------

// parseRef accepts https://open.spotify.com/{kind}/{id} URLs and
// spotify:{kind}:{id} URIs.
func parseRef(ref string) (kind, id string, err error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "spotify:") {
		parts := strings.Split(ref, ":")
		if len(parts) == 3 && parts[2] != "" {
			return parts[1], parts[2], nil
		}
		return "", "", fmt.Errorf("spotify: malformed uri %q", ref)
	}

	u, err := url.Parse(ref)
	if err != nil || !strings.Contains(u.Host, "spotify.com") {
		return "", "", fmt.Errorf("spotify: not a spotify reference: %q", ref)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	// open.spotify.com/intl-de/album/{id}
	if len(segments) >= 3 && strings.HasPrefix(segments[0], "intl-") {
		segments = segments[1:]
	}
	if len(segments) < 2 || segments[1] == "" {
		return "", "", fmt.Errorf("spotify: malformed url %q", ref)
	}
	return segments[0], segments[1], nil
}

func toWantedTrack(t trackData) domain.WantedTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	artist := ""
	if len(artists) > 0 {
		artist = artists[0]
	}

	year := t.Album.ReleaseDate
	if len(year) > 4 {
		year = year[:4]
	}

	return domain.WantedTrack{
		Title:             t.Name,
		Artist:            artist,
		Album:             t.Album.Name,
		Year:              year,
		Duration:          (t.DurationMS + 500) / 1000,
		SequenceIndex:     t.TrackNumber,
		FallbackReference: t.PreviewURL,
	}
}
