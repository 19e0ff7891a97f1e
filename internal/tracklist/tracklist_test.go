package tracklist

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const albumCSV = `track_number,track_title,artist_name,album_name,album_year,track_duration,wikipedia_album_url,preferred_clip_url,notes
1,Death on Two Legs,Queen,A Night at the Opera,1975,3:43,https://en.wikipedia.org/wiki/A_Night_at_the_Opera,,first
11.0,Bohemian Rhapsody,Queen,A Night at the Opera,1975,5:55,,https://audio.test/preview.m4a,
,,,,,,,,
,Untimed,Queen,A Night at the Opera,1975,,,,
`

func TestRead_Tracks(t *testing.T) {
	sheet, err := Read(strings.NewReader(albumCSV))
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 3, "blank rows are dropped")

	tracks := sheet.Tracks()
	assert.Equal(t, domain.WantedTrack{
		Title: "Death on Two Legs", Artist: "Queen", Album: "A Night at the Opera", Year: "1975",
		Duration: 223, SequenceIndex: 1,
	}, tracks[0])
	assert.Equal(t, 11, tracks[1].SequenceIndex)
	assert.Equal(t, 355, tracks[1].Duration)
	assert.Equal(t, "https://audio.test/preview.m4a", tracks[1].FallbackReference)
	assert.Zero(t, tracks[2].Duration)
	assert.Zero(t, tracks[2].SequenceIndex)
}

func TestRead_HeaderAliases(t *testing.T) {
	sheet, err := Read(strings.NewReader("\ufeffTitle,Artist,Duration\nSong,Band,2:05\n"))
	require.NoError(t, err)

	tracks := sheet.Tracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, "Song", tracks[0].Title)
	assert.Equal(t, "Band", tracks[0].Artist)
	assert.Equal(t, 125, tracks[0].Duration)
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestSelectionsRoundTripPreservesUnknownColumns(t *testing.T) {
	sheet, err := Read(strings.NewReader(albumCSV))
	require.NoError(t, err)

	sheet.ApplySelections([]domain.Selection{
		{Index: 0, SelectedURL: "https://www.youtube.com/watch?v=a", Match: domain.MatchResult{BestCandidateID: "a"}},
		{Index: 1, SelectedURL: "https://www.youtube.com/watch?v=b", Match: domain.MatchResult{BestCandidateID: "b", Weak: true}},
		{Index: 2, Match: domain.EmptyMatch()},
	})

	path := filepath.Join(t.TempDir(), "album", "tracks.csv")
	require.NoError(t, sheet.WriteFile(path))

	reread, err := ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, reread.Header, "notes")
	assert.Contains(t, reread.Header, ColSelectedURL)
	assert.Equal(t, "first", reread.Rows[0]["notes"])

	tracks := reread.Tracks()
	assert.Equal(t, "https://www.youtube.com/watch?v=a", tracks[0].PreferredReference)
	assert.False(t, tracks[0].PreferredWeak)
	assert.True(t, tracks[1].PreferredWeak)
	assert.Empty(t, tracks[2].PreferredReference)
	assert.Equal(t, "true", reread.Rows[2][ColSelectionFlag])
}

func TestApplyOutcomes(t *testing.T) {
	sheet, err := Read(strings.NewReader(albumCSV))
	require.NoError(t, err)

	sheet.ApplyOutcomes([]domain.RetrievalOutcome{
		{Index: 0, Status: domain.StatusResolved},
		{Index: 1, Status: domain.StatusResolvedWeak},
		{Index: 2, Status: domain.StatusFailed},
		{Index: 9, Status: domain.StatusResolved},
	})

	assert.Equal(t, "true", sheet.Rows[0][ColDownloaded])
	assert.Equal(t, "true", sheet.Rows[1][ColDownloaded])
	assert.Equal(t, "false", sheet.Rows[2][ColDownloaded])
}

func TestFromTracks(t *testing.T) {
	sheet := FromTracks([]domain.WantedTrack{
		{Title: "Song", Artist: "Band", Album: "LP", Year: "1999", Duration: 187, SequenceIndex: 4, FallbackReference: "https://p.test/1"},
	})

	var buf bytes.Buffer
	require.NoError(t, sheet.Write(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "4,Song,Band,LP,1999,3:07,,https://p.test/1,false,,", lines[1])
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"3:12":    192,
		"0:45":    45,
		"1:02:03": 3723,
		"200":     200,
		"200.7":   200,
		"":        0,
		"abc":     0,
		"3:xx":    0,

		"NaN":                  0,
		"Inf":                  0,
		"+Inf":                 0,
		"-Inf":                 0,
		"1e30":                 0,
		"-5":                   0,
		"99999999999:00":       0,
		"1:99999999999999:00":  0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDuration(in), "input %q", in)
	}
}

func TestParseTrackNumber_RejectsNonFinite(t *testing.T) {
	cases := map[string]int{
		"3":    3,
		"3.0":  3,
		"3/12": 3,
		"NaN":  0,
		"Inf":  0,
		"1e30": 0,
		"-1":   0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseTrackNumber(in), "input %q", in)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3:07", FormatDuration(187))
	assert.Equal(t, "0:05", FormatDuration(5))
	assert.Equal(t, "", FormatDuration(0))
}
