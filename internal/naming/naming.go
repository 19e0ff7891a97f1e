// Package naming builds output file names for retrieved tracks.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gosimple/slug"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// ReviewPrefix marks files whose match needs a manual check.
const ReviewPrefix = "CHECK_"

// FileName returns "NN - Artist - Title.ext" when the sequence index is known
// and "Artist - Title.ext" otherwise. review adds ReviewPrefix.
func FileName(t domain.WantedTrack, review bool, ext string) string {
	parts := make([]string, 0, 3)
	if t.SequenceIndex > 0 {
		parts = append(parts, fmt.Sprintf("%02d", t.SequenceIndex))
	}
	if artist := Legalize(t.Artist); artist != "" {
		parts = append(parts, artist)
	}
	title := Legalize(t.Title)
	if title == "" {
		title = "untitled"
	}
	parts = append(parts, title)

	name := strings.Join(parts, " - ")
	if review {
		name = ReviewPrefix + name
	}
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return name
}

// Path joins dir and FileName.
func Path(dir string, t domain.WantedTrack, review bool, ext string) string {
	return filepath.Join(dir, FileName(t, review, ext))
}

// Legalize drops every rune that is not a letter, digit, space or one of
// "-_()." and collapses runs of whitespace.
func Legalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune("-_().", r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StagingPath returns a hidden, slugged sibling of destination used while a
// download is in progress.
func StagingPath(destination, ext string) string {
	dir, base := filepath.Split(destination)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := slug.Make(stem)
	if name == "" {
		name = "track"
	}
	return filepath.Join(dir, "."+name+".partial."+strings.TrimPrefix(ext, "."))
}

// IsReview reports whether a file name carries the review prefix.
func IsReview(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ReviewPrefix)
}
