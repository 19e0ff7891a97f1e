// Package tracklist reads and writes album track lists stored as CSV.
//
// The canonical columns are listed in Columns. Unknown columns are kept as
// they are so that a sheet survives a select or download pass unchanged
// apart from the columns those passes own.
package tracklist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// Canonical column names.
const (
	ColTrackNumber   = "track_number"
	ColTitle         = "track_title"
	ColArtist        = "artist_name"
	ColAlbum         = "album_name"
	ColYear          = "album_year"
	ColDuration      = "track_duration"
	ColWikipediaURL  = "wikipedia_album_url"
	ColPreferredClip = "preferred_clip_url"
	ColDownloaded    = "downloaded_locally"
	ColSelectedURL   = "selected_url"
	ColSelectionFlag = "selection_flag"
)

// Columns is the default header order for new sheets.
var Columns = []string{
	ColTrackNumber, ColTitle, ColArtist, ColAlbum, ColYear, ColDuration,
	ColWikipediaURL, ColPreferredClip, ColDownloaded, ColSelectedURL, ColSelectionFlag,
}

// headerAliases maps alternative spellings onto canonical columns.
var headerAliases = map[string]string{
	"track":       ColTitle,
	"title":       ColTitle,
	"name":        ColTitle,
	"artist":      ColArtist,
	"album":       ColAlbum,
	"year":        ColYear,
	"duration":    ColDuration,
	"number":      ColTrackNumber,
	"fallback":    ColPreferredClip,
	"preview_url": ColPreferredClip,
}

// Sheet is an in-memory track list. Rows are keyed by column name.
type Sheet struct {
	Header []string
	Rows   []map[string]string
}

// Read parses a CSV track list.
func Read(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rawHeaders, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("tracklist: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("tracklist: read header: %w", err)
	}

	header := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		header[i] = canonical(h)
	}

	sheet := &Sheet{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tracklist: read row %d: %w", len(sheet.Rows)+1, err)
		}

		row := make(map[string]string, len(header))
		empty := true
		for i, v := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// ReadFile reads the track list at path.
func ReadFile(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write encodes the sheet as CSV. Canonical columns missing from the header
// are appended.
func (s *Sheet) Write(w io.Writer) error {
	s.ensureColumns()

	writer := csv.NewWriter(w)
	if err := writer.Write(s.Header); err != nil {
		return err
	}
	record := make([]string, len(s.Header))
	for _, row := range s.Rows {
		for i, col := range s.Header {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the sheet to path through a temporary file in the same
// directory.
func (s *Sheet) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tracklist-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := s.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Tracks maps every row to a WantedTrack. A row with a selected_url carries
// it as the preferred reference; selection_flag marks it weak.
func (s *Sheet) Tracks() []domain.WantedTrack {
	tracks := make([]domain.WantedTrack, len(s.Rows))
	for i, row := range s.Rows {
		tracks[i] = domain.WantedTrack{
			Title:              strings.TrimSpace(row[ColTitle]),
			Artist:             strings.TrimSpace(row[ColArtist]),
			Album:              strings.TrimSpace(row[ColAlbum]),
			Year:               strings.TrimSpace(row[ColYear]),
			Duration:           ParseDuration(row[ColDuration]),
			SequenceIndex:      parseTrackNumber(row[ColTrackNumber]),
			FallbackReference:  strings.TrimSpace(row[ColPreferredClip]),
			PreferredReference: strings.TrimSpace(row[ColSelectedURL]),
			PreferredWeak:      parseBool(row[ColSelectionFlag]),
		}
	}
	return tracks
}

// FromTracks builds a new sheet with the canonical header.
func FromTracks(tracks []domain.WantedTrack) *Sheet {
	sheet := &Sheet{Header: append([]string(nil), Columns...)}
	for _, t := range tracks {
		row := map[string]string{
			ColTitle:         t.Title,
			ColArtist:        t.Artist,
			ColAlbum:         t.Album,
			ColYear:          t.Year,
			ColDuration:      FormatDuration(t.Duration),
			ColPreferredClip: t.FallbackReference,
			ColDownloaded:    "false",
			ColSelectedURL:   t.PreferredReference,
			ColSelectionFlag: "",
		}
		if t.SequenceIndex > 0 {
			row[ColTrackNumber] = strconv.Itoa(t.SequenceIndex)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// ApplySelections writes selected_url and selection_flag for each selection.
func (s *Sheet) ApplySelections(selections []domain.Selection) {
	for _, sel := range selections {
		if sel.Index < 0 || sel.Index >= len(s.Rows) {
			continue
		}
		row := s.Rows[sel.Index]
		row[ColSelectedURL] = sel.SelectedURL
		row[ColSelectionFlag] = strconv.FormatBool(sel.Flagged())
	}
}

// ApplyOutcomes marks rows whose track was written to disk.
func (s *Sheet) ApplyOutcomes(outcomes []domain.RetrievalOutcome) {
	for _, o := range outcomes {
		if o.Index < 0 || o.Index >= len(s.Rows) {
			continue
		}
		downloaded := o.Status == domain.StatusResolved || o.Status == domain.StatusResolvedWeak
		s.Rows[o.Index][ColDownloaded] = strconv.FormatBool(downloaded)
	}
}

func (s *Sheet) ensureColumns() {
	present := make(map[string]bool, len(s.Header))
	for _, h := range s.Header {
		present[h] = true
	}
	for _, col := range Columns {
		if !present[col] {
			s.Header = append(s.Header, col)
		}
	}
}

// ParseDuration accepts "M:SS", "H:MM:SS" or a plain number of seconds.
// Anything else, including an empty string, is 0.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if !strings.Contains(s, ":") {
		return wholeNumber(s)
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > math.MaxInt32 {
			return 0
		}
		total = total*60 + n
		if total > math.MaxInt32 {
			return 0
		}
	}
	return total
}

// wholeNumber truncates a decimal string to an int. NaN, infinities,
// negatives and values beyond int32 are 0.
func wholeNumber(s string) int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// FormatDuration renders seconds as "M:SS". Zero renders as an empty string.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func canonical(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	if c, ok := headerAliases[h]; ok {
		return c
	}
	return h
}

// parseTrackNumber accepts "3", "3.0" and "3/12".
func parseTrackNumber(s string) int {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return wholeNumber(s)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
