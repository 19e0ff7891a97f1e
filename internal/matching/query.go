package matching

import (
	"strings"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// BuildQueries returns the search ladder for t, most specific first. Album
// qualified queries come first to disambiguate common titles; the last query
// drops the album for recall. Queries that collapse to the same string (for
// example when the album is empty) appear once.
func BuildQueries(t domain.WantedTrack) []string {
	ladder := []string{
		join(t.Artist, t.Title, t.Album, "audio"),
		join(t.Artist, t.Title, t.Album, "official audio"),
		join(t.Artist, t.Title, "audio"),
	}

	seen := make(map[string]bool, len(ladder))
	queries := make([]string, 0, len(ladder))
	for _, q := range ladder {
		if seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

func join(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
