package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/jpp0ca/TrackFetch/internal/bootstrap"
	"github.com/jpp0ca/TrackFetch/internal/config"
	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/tracklist"
)

const lockFileName = ".trackfetch.lock"

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		workers int
		output  string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "download <tracklist.csv>",
		Short: "Resolve and download every track in a track list",
		Long: "Resolves each track (or uses its selected_url), downloads the best candidate and falls\n" +
			"back through the ranked candidates and preferred_clip_url. Weak matches are saved with a\n" +
			"CHECK_ prefix. The downloaded_locally column is updated afterwards.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			sheet, err := tracklist.ReadFile(args[0])
			if err != nil {
				return err
			}
			tracks := sheet.Tracks()
			if needsSearch(tracks) {
				if err := cfg.RequireSearchCredentials(); err != nil {
					return err
				}
			}

			opts := bootstrap.Options{OutputDir: output}
			if dryRun {
				opts.Materializer = config.MaterializerDryRun
			}
			dir := cfg.OutputDir
			if output != "" {
				dir = output
			}

			unlock, err := lockOutputDir(dir)
			if err != nil {
				return err
			}
			defer unlock()

			return ctx.withRuntime(cmd, opts, func(c context.Context, rt *bootstrap.Runtime) error {
				result, err := rt.Service.RunBatch(c, tracks, workers)
				if err != nil {
					return err
				}
				if !dryRun {
					sheet.ApplyOutcomes(result.Outcomes)
					if err := sheet.WriteFile(args[0]); err != nil {
						return fmt.Errorf("write track list: %w", err)
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderOutcomes(result.Outcomes))
				fmt.Fprintf(out, "Run %s: %d resolved, %d to check, %d failed, %d retries\n",
					result.RunID, result.Resolved, result.ResolvedWeak, result.Failed, result.Retries)
				if result.Failed > 0 {
					return fmt.Errorf("%d of %d tracks failed", result.Failed, result.Total)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent tracks (default from WORKERS)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from OUTPUT_DIR)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and plan without downloading")
	return cmd
}

// needsSearch reports whether any track has to be resolved against the
// search provider.
func needsSearch(tracks []domain.WantedTrack) bool {
	for _, t := range tracks {
		if t.PreferredReference == "" && t.Duration > 0 {
			return true
		}
	}
	return false
}

// lockOutputDir keeps two downloads from writing into the same directory.
func lockOutputDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another download is already writing to " + dir)
	}
	return func() { _ = lock.Unlock() }, nil
}

func renderOutcomes(outcomes []domain.RetrievalOutcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := filepath.Base(o.OutputPath)
		if o.Status == domain.StatusFailed {
			detail = o.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(o.Index + 1),
			o.Track.Label(),
			string(o.Status),
			strconv.Itoa(len(o.Attempts)),
			detail,
		})
	}
	return renderTable(
		[]string{"#", "Track", "Status", "Attempts", "File / Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
