package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpp0ca/TrackFetch/internal/bootstrap"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent download runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, bootstrap.Options{}, func(c context.Context, rt *bootstrap.Runtime) error {
				runs, err := rt.Service.ListRuns(c, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.RunID,
						r.StartedAt.Local().Format(time.DateTime),
						r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
						strconv.Itoa(r.Total),
						strconv.Itoa(r.Resolved),
						strconv.Itoa(r.ResolvedWeak),
						strconv.Itoa(r.Failed),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Started", "Took", "Total", "OK", "Check", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.AddCommand(newRunShowCommand(ctx))
	return cmd
}

func newRunShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show every track outcome of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, bootstrap.Options{}, func(c context.Context, rt *bootstrap.Runtime) error {
				run, err := rt.Service.GetRun(c, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderOutcomes(run.Outcomes))
				return nil
			})
		},
	}
}
