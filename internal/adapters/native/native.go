// Package native materializes references without yt-dlp: YouTube videos are
// streamed with kkdai/youtube, other URLs are downloaded directly, and the
// result is transcoded with ffmpeg.
package native

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"

	ytapi "github.com/jpp0ca/TrackFetch/internal/adapters/youtube"
	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/naming"
)

// VideoClient is the subset of *youtube.Client used here.
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Materializer implements ports.Materializer.
type Materializer struct {
	videos  VideoClient
	http    *http.Client
	ffmpeg  string
	bitrate string
}

// New creates a native materializer. A nil videos client uses a default
// youtube.Client sharing httpClient.
func New(videos VideoClient, httpClient *http.Client, ffmpeg string) *Materializer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if videos == nil {
		videos = &youtube.Client{HTTPClient: httpClient}
	}
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Materializer{videos: videos, http: httpClient, ffmpeg: ffmpeg, bitrate: "192k"}
}

func (m *Materializer) Name() string {
	return "native"
}

// Materialize fetches reference into a staging file next to destination and
// transcodes it. The staging file is removed afterwards.
func (m *Materializer) Materialize(ctx context.Context, reference, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("native: create output directory: %w", err)
	}

	staging := naming.StagingPath(destination, "src")
	defer os.Remove(staging)

	var err error
	if id := ytapi.VideoID(reference); id != "" {
		err = m.fetchVideo(ctx, id, staging)
	} else {
		err = m.fetchURL(ctx, reference, staging)
	}
	if err != nil {
		return err
	}

	return m.transcode(ctx, staging, destination)
}

func (m *Materializer) fetchVideo(ctx context.Context, id, staging string) error {
	video, err := m.videos.GetVideoContext(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: get video %s: %v", domain.ErrProviderUnavailable, id, err)
	}

	format := BestAudioFormat(video.Formats)
	if format == nil {
		return fmt.Errorf("%w: video %s has no audio stream", domain.ErrProviderUnavailable, id)
	}

	stream, _, err := m.videos.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("%w: open stream for %s: %v", domain.ErrProviderUnavailable, id, err)
	}
	defer stream.Close()

	return writeFile(staging, stream)
}

func (m *Materializer) fetchURL(ctx context.Context, reference, staging string) error {
	if !strings.HasPrefix(reference, "http://") && !strings.HasPrefix(reference, "https://") {
		return fmt.Errorf("native: unsupported reference %q", reference)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	return writeFile(staging, resp.Body)
}

// transcode encodes input into a partial file beside output and renames it
// into place, so output only ever holds a complete file. The partial keeps
// output's extension because ffmpeg picks the container from it.
func (m *Materializer) transcode(ctx context.Context, input, output string) error {
	partial := naming.StagingPath(output, filepath.Ext(output))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.ffmpeg, m.ffmpegArgs(input, partial)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(partial)
		return fmt.Errorf("native: ffmpeg failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if err := os.Rename(partial, output); err != nil {
		os.Remove(partial)
		return fmt.Errorf("native: move transcoded file into place: %w", err)
	}
	return nil
}

func (m *Materializer) ffmpegArgs(input, output string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vn",
		"-b:a", m.bitrate,
		output,
	}
}

// BestAudioFormat picks the audio-only format with the highest bitrate,
// falling back to any format carrying audio.
func BestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best, fallback *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 {
			continue
		}
		if strings.HasPrefix(f.MimeType, "audio/") {
			if best == nil || f.Bitrate > best.Bitrate {
				best = f
			}
			continue
		}
		if fallback == nil || f.Bitrate > fallback.Bitrate {
			fallback = f
		}
	}
	if best != nil {
		return best
	}
	return fallback
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return fmt.Errorf("%w: write staging file: %v", domain.ErrProviderUnavailable, err)
	}
	return nil
}
