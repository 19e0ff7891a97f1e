// Package wiki reads album track listings from Wikipedia article pages.
package wiki

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/tracklist"
)

const defaultBaseURL = "https://en.wikipedia.org"

// Provider implements ports.TrackSource for Wikipedia album articles. The
// first table whose headers include "title" and "length" is taken as the
// track listing; album, artist and year come from the page heading and the
// infobox.
type Provider struct {
	client  *http.Client
	baseURL string
}

// NewProvider creates a Wikipedia provider with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewProvider(client *http.Client) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{client: client, baseURL: defaultBaseURL}
}

// WithBaseURL returns a copy of p that resolves bare article titles against
// base instead of English Wikipedia.
func (p *Provider) WithBaseURL(base string) *Provider {
	cp := *p
	cp.baseURL = strings.TrimRight(base, "/")
	return &cp
}

func (p *Provider) Name() string {
	return "wikipedia"
}

// ListTracks accepts an article URL or a bare article title such as
// "A_Night_at_the_Opera_(Queen_album)".
func (p *Provider) ListTracks(ctx context.Context, ref string) ([]domain.WantedTrack, error) {
	pageURL, err := p.ArticleURL(ref)
	if err != nil {
		return nil, err
	}

	doc, err := p.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	tracks, err := parseAlbum(doc)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: %s: %w", pageURL, err)
	}
	return tracks, nil
}

// ArticleURL turns ref into an article URL without query or fragment.
func (p *Provider) ArticleURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("wikipedia: empty article reference")
	}
	if !strings.Contains(ref, "://") {
		return p.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(ref, " ", "_")), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("wikipedia: invalid article URL %q: %w", ref, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("wikipedia: unsupported URL scheme %q", u.Scheme)
	}
	u.RawQuery, u.Fragment, u.RawFragment = "", "", ""
	return u.String(), nil
}

func (p *Provider) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "trackfetch (album track listing reader)")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: wikipedia returned status %d for %s", domain.ErrProviderUnavailable, resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: parse page: %w", err)
	}
	return doc, nil
}

// -- Page parsing ------------------------------------------------------------

var (
	parenthetical = regexp.MustCompile(`\s*\(.*?\)\s*`)
	artistPattern = regexp.MustCompile(`(?i)\bby\s+(.+)`)
	yearPattern   = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	lengthPattern = regexp.MustCompile(`\d+:\d{2}`)
	nonDigits     = regexp.MustCompile(`\D`)
)

func parseAlbum(doc *goquery.Document) ([]domain.WantedTrack, error) {
	doc.Find("sup.reference, .mw-editsection, style").Remove()

	table := findTracklist(doc)
	if table == nil {
		return nil, fmt.Errorf("no track listing table found")
	}

	album := cleanAlbumTitle(text(doc.Find("h1").First()))
	infobox := doc.Find("table.infobox").First()
	artist := infoboxArtist(infobox)
	if artist == "" {
		return nil, fmt.Errorf("could not determine the album artist")
	}
	year := infoboxYear(infobox)

	rows := table.Find("tr")
	if nested := table.Find("table").First(); nested.Length() > 0 {
		rows = nested.Find("tr")
	}

	var tracks []domain.WantedTrack
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		th := row.ChildrenFiltered("th").First()
		tds := row.ChildrenFiltered("td")
		if th.Length() == 0 || tds.Length() < 2 {
			return
		}
		number, err := strconv.Atoi(nonDigits.ReplaceAllString(text(th), ""))
		if err != nil {
			return
		}

		title := parenthetical.ReplaceAllString(text(tds.First()), " ")
		title = strings.Trim(strings.Join(strings.Fields(title), " "), "\"“” ")
		if title == "" {
			return
		}

		tracks = append(tracks, domain.WantedTrack{
			Title:         title,
			Artist:        artist,
			Album:         album,
			Year:          year,
			Duration:      tracklist.ParseDuration(lengthPattern.FindString(text(tds.Last()))),
			SequenceIndex: number,
		})
	})

	if len(tracks) == 0 {
		return nil, fmt.Errorf("track listing table has no track rows")
	}
	return tracks, nil
}

// findTracklist returns the first table whose header cells include both
// "title" and "length".
func findTracklist(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := make(map[string]bool)
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers[strings.ToLower(text(th))] = true
		})
		if headers["title"] && headers["length"] {
			found = table
			return false
		}
		return true
	})
	return found
}

func infoboxArtist(infobox *goquery.Selection) string {
	var artist string
	infobox.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if m := artistPattern.FindStringSubmatch(rowText(row)); m != nil {
			artist = strings.TrimSpace(m[1])
			return false
		}
		return true
	})
	return artist
}

func infoboxYear(infobox *goquery.Selection) string {
	var year string
	infobox.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		t := rowText(row)
		if !strings.Contains(t, "Released") {
			return true
		}
		year = yearPattern.FindString(t)
		return year == ""
	})
	return year
}

// rowText joins the cells of an infobox row with spaces, so a label cell
// never runs into its value.
func rowText(row *goquery.Selection) string {
	var cells []string
	row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, text(cell))
	})
	return strings.Join(cells, " ")
}

// cleanAlbumTitle drops descriptors such as "(album)" from a page heading.
func cleanAlbumTitle(raw string) string {
	return strings.Join(strings.Fields(parenthetical.ReplaceAllString(raw, " ")), " ")
}

// text returns the visible text of s with line breaks turned into spaces
// and runs of whitespace collapsed.
func text(s *goquery.Selection) string {
	c := s.Clone()
	c.Find("br").ReplaceWithHtml(" ")
	return strings.Join(strings.Fields(c.Text()), " ")
}
