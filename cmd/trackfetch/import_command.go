package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpp0ca/TrackFetch/internal/bootstrap"
	"github.com/jpp0ca/TrackFetch/internal/tracklist"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "import <source> <reference>",
		Short: "Write the track list of an album or playlist to a CSV file",
		Long: "Loads the tracks behind an album or playlist reference and writes them as a track list.\n" +
			"Sources: itunes (album id or URL), spotify (album or playlist URL/URI), wikipedia (album article URL or title), youtube (single video URL).",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, bootstrap.Options{NoStore: true}, func(c context.Context, rt *bootstrap.Runtime) error {
				tracks, err := rt.Service.ListTracks(c, args[0], args[1])
				if err != nil {
					return err
				}
				if len(tracks) == 0 {
					return fmt.Errorf("%s returned no tracks for %s", args[0], args[1])
				}
				if err := tracklist.FromTracks(tracks).WriteFile(out); err != nil {
					return fmt.Errorf("write track list: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tracks to %s\n", len(tracks), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "tracks.csv", "Track list file to write")
	return cmd
}
