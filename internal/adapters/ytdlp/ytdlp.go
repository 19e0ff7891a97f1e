package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// Materializer fetches a reference and transcodes it in one step by running
// yt-dlp with its ffmpeg post-processor.
type Materializer struct {
	binary  string
	ffmpeg  string
	quality string
}

// New creates a yt-dlp materializer. Empty paths fall back to the binaries
// on PATH.
func New(binary, ffmpeg string) *Materializer {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Materializer{binary: binary, ffmpeg: ffmpeg, quality: "192K"}
}

func (m *Materializer) Name() string {
	return "ytdlp"
}

// Materialize downloads reference into destination. The audio format is
// taken from the destination extension.
func (m *Materializer) Materialize(ctx context.Context, reference, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("ytdlp: create output directory: %w", err)
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, m.binary, m.Args(reference, destination)...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: yt-dlp failed for %s: %v: %s", domain.ErrProviderUnavailable, reference, err, lastLine(output.String()))
	}

	if _, err := os.Stat(destination); err != nil {
		return fmt.Errorf("ytdlp: expected output %s was not produced: %w", destination, err)
	}
	return nil
}

// Args builds the yt-dlp command line.
func (m *Materializer) Args(reference, destination string) []string {
	ext := strings.TrimPrefix(filepath.Ext(destination), ".")
	if ext == "" {
		ext = "mp3"
	}
	stem := strings.TrimSuffix(destination, filepath.Ext(destination))

	args := []string{
		"--format", "bestaudio[ext=m4a]/bestaudio/best",
		"--extract-audio",
		"--audio-format", ext,
		"--audio-quality", m.quality,
		"--output", stem + ".%(ext)s",
		"--no-playlist",
		"--no-progress",
		"--concurrent-fragments", "1",
		"--retry-sleep", "exp=1::2",
	}
	if m.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", m.ffmpeg)
	}
	return append(args, "--", reference)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
