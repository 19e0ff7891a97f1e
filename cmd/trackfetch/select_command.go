package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jpp0ca/TrackFetch/internal/bootstrap"
	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/tracklist"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "select <tracklist.csv>",
		Short: "Pick a video for every track and record it in the track list",
		Long: "Resolves every track without downloading anything. The chosen URL is written to the\n" +
			"selected_url column and weak or missing matches are flagged in selection_flag.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireSearchCredentials(); err != nil {
				return err
			}

			sheet, err := tracklist.ReadFile(args[0])
			if err != nil {
				return err
			}
			tracks := sheet.Tracks()

			return ctx.withRuntime(cmd, bootstrap.Options{NoStore: true}, func(c context.Context, rt *bootstrap.Runtime) error {
				selections, err := rt.Service.SelectBatch(c, tracks, workers)
				if err != nil {
					return err
				}
				sheet.ApplySelections(selections)
				if err := sheet.WriteFile(args[0]); err != nil {
					return fmt.Errorf("write track list: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSelections(selections))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent tracks (default from WORKERS)")
	return cmd
}

func renderSelections(selections []domain.Selection) string {
	rows := make([][]string, 0, len(selections))
	for _, s := range selections {
		flag := ""
		if s.Flagged() {
			flag = "check"
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Index + 1),
			s.Track.Label(),
			s.SelectedURL,
			strconv.FormatFloat(s.Match.Score, 'f', 2, 64),
			flag,
		})
	}
	return renderTable(
		[]string{"#", "Track", "Selected", "Score", "Review"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
