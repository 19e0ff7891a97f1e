package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/tracklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Helpers -----------------------------------------------------------------

func setupEnv(t *testing.T) (outputDir string) {
	t.Helper()
	dir := t.TempDir()
	outputDir = filepath.Join(dir, "music")
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("OUTPUT_DIR", outputDir)
	t.Setenv("DB_PATH", filepath.Join(dir, "state", "runs.db"))
	t.Setenv("MATERIALIZER", "ytdlp")
	t.Setenv("WORKERS", "2")
	t.Setenv("SCORING_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	return outputDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTrackList(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracks.csv")
	header := "track_number,track_title,artist_name,album_name,album_year,track_duration,selected_url,selection_flag\n"
	require.NoError(t, os.WriteFile(path, []byte(header+rows), 0o644))
	return path
}

// -- Tests -------------------------------------------------------------------

func TestDownload_DryRunWithSelections(t *testing.T) {
	outputDir := setupEnv(t)
	path := writeTrackList(t,
		"1,Song One,Band,LP,2001,3:00,https://www.youtube.com/watch?v=aaaaaaaaaaa,false\n"+
			"2,Song Two,Band,LP,2001,4:00,https://www.youtube.com/watch?v=bbbbbbbbbbb,true\n")

	out, err := execute(t, "download", "--dry-run", path)

	require.NoError(t, err)
	assert.Contains(t, out, "1 resolved, 1 to check, 0 failed")
	assert.Contains(t, out, "CHECK_02 - Band - Song Two.mp3")

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, lockFileName, e.Name(), "dry run writes no audio")
	}

	sheet, err := tracklist.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows[0][tracklist.ColDownloaded])
}

func TestDownload_RequiresCredentialsForSearch(t *testing.T) {
	setupEnv(t)
	path := writeTrackList(t, "1,Song One,Band,LP,2001,3:00,,\n")

	_, err := execute(t, "download", "--dry-run", path)

	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestSelect_RequiresCredentials(t *testing.T) {
	setupEnv(t)
	path := writeTrackList(t, "1,Song One,Band,LP,2001,3:00,,\n")

	_, err := execute(t, "select", path)

	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestDownload_NativeFromSelectedURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	outputDir := setupEnv(t)

	ffmpeg := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nwhile [ $# -gt 1 ]; do\n  if [ \"$1\" = \"-i\" ]; then in=\"$2\"; fi\n  shift\ndone\ncp \"$in\" \"$1\"\n"
	require.NoError(t, os.WriteFile(ffmpeg, []byte(script), 0o755))
	t.Setenv("MATERIALIZER", "native")
	t.Setenv("FFMPEG_PATH", ffmpeg)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.m4a" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	path := writeTrackList(t,
		"1,Song One,Band,LP,2001,3:00,"+srv.URL+"/one.m4a,false\n"+
			"2,Song Two,Band,LP,2001,4:00,"+srv.URL+"/missing.m4a,false\n")

	out, err := execute(t, "download", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 tracks failed")
	assert.Contains(t, out, "1 resolved, 0 to check, 1 failed")
	assert.FileExists(t, filepath.Join(outputDir, "01 - Band - Song One.mp3"))

	sheet, err := tracklist.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "true", sheet.Rows[0][tracklist.ColDownloaded])
	assert.Equal(t, "false", sheet.Rows[1][tracklist.ColDownloaded])

	out, err = execute(t, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), 3, "table with one run row")
}

func TestRuns_Empty(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "runs")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestRunsShow_NotFound(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "runs", "show", "missing")

	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
