// Package id3 writes ID3v2 tags onto materialized MP3 files.
package id3

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/jpp0ca/TrackFetch/internal/domain"
)

// User defined frame descriptions written by the tagger.
const (
	FrameSource = "TRACKFETCH_SOURCE"
	FrameReview = "TRACKFETCH_REVIEW"
)

// Tagger implements ports.PostProcessor.
type Tagger struct{}

// New creates a tagger.
func New() *Tagger {
	return &Tagger{}
}

// Process tags the outcome's output file. Outcomes without a file and files
// that are not MP3 are left alone.
func (t *Tagger) Process(_ context.Context, outcome domain.RetrievalOutcome) error {
	if outcome.OutputPath == "" || outcome.Status == domain.StatusFailed {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(outcome.OutputPath), ".mp3") {
		return nil
	}

	tag, err := id3v2.Open(outcome.OutputPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("id3: open %s: %w", filepath.Base(outcome.OutputPath), err)
	}
	defer tag.Close()

	track := outcome.Track
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(track.Title)
	tag.SetArtist(track.Artist)
	if track.Album != "" {
		tag.SetAlbum(track.Album)
	}
	if track.Year != "" {
		tag.SetYear(track.Year)
	}
	if track.SequenceIndex > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, strconv.Itoa(track.SequenceIndex))
	}
	if outcome.SourceUsed != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: FrameSource,
			Value:       outcome.SourceUsed,
		})
	}
	if outcome.NeedsReview() {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: FrameReview,
			Value:       "1",
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("id3: save %s: %w", filepath.Base(outcome.OutputPath), err)
	}
	return nil
}
