package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	watchURL       = "https://www.youtube.com/watch?v="
	maxIDsPerCall  = 50
)

// Provider implements ports.SearchProvider and ports.TrackSource for YouTube
// using the Data API v3. A single Provider is shared by all workers; its
// limiter serializes outbound calls.
type Provider struct {
	client  *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at a different API root (used by tests).
func WithBaseURL(base string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(base, "/") }
}

// WithRateLimit caps outbound calls to perSecond with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(p *Provider) {
		if perSecond <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewProvider creates a new YouTube provider with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewProvider(client *http.Client, apiKey string, opts ...Option) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Provider{
		client:  client,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "youtube"
}

// Locate returns the watch URL for a video id.
func (p *Provider) Locate(id string) string {
	return watchURL + id
}

// -- API response types (internal) ------------------------------------------

type searchListResponse struct {
	Items []searchResult `json:"items"`
}

type searchResult struct {
	ID      searchResultID `json:"id"`
	Snippet videoSnippet   `json:"snippet"`
}

type searchResultID struct {
	VideoID string `json:"videoId"`
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID             string       `json:"id"`
	Snippet        videoSnippet `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type videoSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
}

// -- SearchProvider implementation -------------------------------------------

func (p *Provider) Search(ctx context.Context, query string, maxResults int) ([]domain.Candidate, error) {
	if maxResults <= 0 {
		maxResults = 15
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))

	body, err := p.doGet(ctx, "/search", params)
	if err != nil {
		return nil, fmt.Errorf("youtube: search failed: %w", err)
	}

	var resp searchListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube: failed to parse search response: %w: %v", domain.ErrProviderUnavailable, err)
	}

	candidates := make([]domain.Candidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ID:        item.ID.VideoID,
			Title:     item.Snippet.Title,
			Publisher: item.Snippet.ChannelTitle,
		})
		if len(candidates) == maxResults {
			break
		}
	}
	return candidates, nil
}

func (p *Provider) Enrich(ctx context.Context, ids []string) (map[string]domain.CandidateDetails, error) {
	details := make(map[string]domain.CandidateDetails, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerCall {
		end := min(start+maxIDsPerCall, len(ids))

		videos, err := p.videos(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, v := range videos {
			details[v.ID] = domain.CandidateDetails{
				Title:       v.Snippet.Title,
				Publisher:   v.Snippet.ChannelTitle,
				Duration:    ParseDuration(v.ContentDetails.Duration),
				Description: v.Snippet.Description,
			}
		}
	}
	return details, nil
}

func (p *Provider) videos(ctx context.Context, ids []string) ([]videoResource, error) {
	params := url.Values{}
	params.Set("part", "contentDetails,snippet")
	params.Set("id", strings.Join(ids, ","))

	body, err := p.doGet(ctx, "/videos", params)
	if err != nil {
		return nil, fmt.Errorf("youtube: video details failed: %w", err)
	}

	var resp videoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube: failed to parse video details: %w: %v", domain.ErrProviderUnavailable, err)
	}
	return resp.Items, nil
}

// -- TrackSource implementation ----------------------------------------------

// ListTracks turns a single video URL into one wanted track. The video title
// is split into artist and title where possible; the album is the title.
func (p *Provider) ListTracks(ctx context.Context, ref string) ([]domain.WantedTrack, error) {
	id := VideoID(ref)
	if id == "" {
		return nil, fmt.Errorf("youtube: cannot find a video id in %q", ref)
	}

	videos, err := p.videos(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("youtube: video %s not found", id)
	}

	v := videos[0]
	title, artist := parseVideoTitle(v.Snippet.Title)
	if title == "" {
		title = v.Snippet.Title
	}
	if artist == "" {
		artist = strings.TrimSuffix(v.Snippet.ChannelTitle, " - Topic")
	}

	return []domain.WantedTrack{{
		Title:             title,
		Artist:            artist,
		Album:             title,
		Duration:          ParseDuration(v.ContentDetails.Duration),
		FallbackReference: p.Locate(id),
	}}, nil
}

// -- HTTP helpers ------------------------------------------------------------

func (p *Provider) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	params.Set("key", p.apiKey)
	endpoint := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: youtube API returned status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	return body, nil
}

// -- Helpers -----------------------------------------------------------------

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts an ISO 8601 duration such as PT3M12S to whole
// seconds. Malformed or empty input yields 0.
func ParseDuration(s string) int {
	m := isoDuration.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}

// VideoID extracts a video id from a watch URL, a youtu.be short link or a
// bare id.
func VideoID(ref string) string {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		if len(ref) == 11 && !strings.ContainsAny(ref, "/?&=") {
			return ref
		}
		return ""
	}
	if !strings.Contains(u.Host, "youtu") {
		return ""
	}
	if strings.Contains(u.Host, "youtu.be") {
		return strings.Trim(u.Path, "/")
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
		return strings.Trim(rest, "/")
	}
	return ""
}

// parseVideoTitle attempts to split a YouTube video title into track name and
// artist. Common formats: "Artist - Track", "Artist - Track (Official Video)".
func parseVideoTitle(title string) (name, artist string) {
	suffixes := []string{
		"(Official Video)", "(Official Music Video)", "(Official Audio)",
		"(Lyric Video)", "(Lyrics)", "(Audio)", "[Official Video]",
		"[Official Music Video]", "[Official Audio]", "(HD)", "(HQ)",
	}
	cleaned := title
	for _, suffix := range suffixes {
		cleaned = strings.TrimSpace(strings.Replace(cleaned, suffix, "", 1))
	}

	parts := strings.SplitN(cleaned, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	}

	return cleaned, ""
}
