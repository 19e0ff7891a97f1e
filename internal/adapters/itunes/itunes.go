package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

const defaultBaseURL = "https://itunes.apple.com"

// Provider implements ports.TrackSource for Apple Music albums using the
// public iTunes lookup API. No authentication is needed.
type Provider struct {
	client  *http.Client
	baseURL string
}

// NewProvider creates a new iTunes provider with the given HTTP client.
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
	return "itunes"
}

// -- API response types (internal) ------------------------------------------

type lookupResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []lookupResult `json:"results"`
}

type lookupResult struct {
	WrapperType     string `json:"wrapperType"`
	CollectionName  string `json:"collectionName"`
	ArtistName      string `json:"artistName"`
	TrackName       string `json:"trackName"`
	TrackTimeMillis int    `json:"trackTimeMillis"`
	TrackNumber     int    `json:"trackNumber"`
	DiscNumber      int    `json:"discNumber"`
	PreviewURL      string `json:"previewUrl"`
	ReleaseDate     string `json:"releaseDate"`
}

// -- TrackSource implementation ----------------------------------------------

// ListTracks accepts an Apple Music album URL or a bare numeric album id.
// Tracks are ordered by disc then track number and numbered sequentially
// across discs.
func (p *Provider) ListTracks(ctx context.Context, ref string) ([]domain.WantedTrack, error) {
	albumID := AlbumID(ref)
	if albumID == "" {
		return nil, fmt.Errorf("itunes: could not extract album id from %q", ref)
	}

	params := url.Values{}
	params.Set("id", albumID)
	params.Set("entity", "song")

	body, err := p.doGet(ctx, p.baseURL+"/lookup?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("itunes: lookup failed: %w", err)
	}

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("itunes: failed to parse lookup response: %w", err)
	}
	if len(resp.Results) < 2 {
		return nil, fmt.Errorf("itunes: no tracks found for album %s", albumID)
	}

	album := resp.Results[0]
	var songs []lookupResult
	for _, r := range resp.Results[1:] {
		if r.WrapperType != "track" || r.TrackName == "" {
			continue
		}
		if r.DiscNumber == 0 {
			r.DiscNumber = 1
		}
		songs = append(songs, r)
	}
	sort.SliceStable(songs, func(i, j int) bool {
		if songs[i].DiscNumber != songs[j].DiscNumber {
			return songs[i].DiscNumber < songs[j].DiscNumber
		}
		return songs[i].TrackNumber < songs[j].TrackNumber
	})

	year := album.ReleaseDate
	if len(year) > 4 {
		year = year[:4]
	}

	tracks := make([]domain.WantedTrack, 0, len(songs))
	for i, s := range songs {
		tracks = append(tracks, domain.WantedTrack{
			Title:             s.TrackName,
			Artist:            album.ArtistName,
			Album:             album.CollectionName,
			Year:              year,
			Duration:          s.TrackTimeMillis / 1000,
			SequenceIndex:     i + 1,
			FallbackReference: s.PreviewURL,
		})
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
		return nil, fmt.Errorf("%w: itunes API returned status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	return body, nil
}

// -- Helpers -----------------------------------------------------------------

var albumIDPattern = regexp.MustCompile(`/album/(?:[^/]+/)?(\d+)`)

// AlbumID extracts the numeric album id from an Apple Music URL such as
// https://music.apple.com/us/album/a-night-at-the-opera/1440650428.
func AlbumID(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.Trim(ref, "0123456789") == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if m := albumIDPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}
