package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"radex/internal/classify"
	"radex/internal/runindex"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded experiment runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := ctx.openRunIndex()
			if err != nil {
				return err
			}
			defer index.Close()

			var statuses []runindex.Status
			if failedOnly {
				statuses = append(statuses, runindex.StatusFailed)
			}
			runs, err := index.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				accuracy := ""
				if run.Status == runindex.StatusCompleted {
					accuracy = formatAccuracy(run.MeanAccuracy)
				}
				rows = append(rows, []string{
					shortID(run.ID),
					run.CreatedAt.Local().Format(time.DateTime),
					string(run.Status),
					run.Metric,
					strconv.Itoa(run.Rounds),
					accuracy,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Created", "Status", "Metric", "Rounds", "Mean accuracy"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Show only failed runs")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var cascadeDetail bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's parameters and outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := ctx.openRunIndex()
			if err != nil {
				return err
			}
			defer index.Close()

			run, err := index.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:           %s\n", run.ID)
			fmt.Fprintf(out, "Status:        %s\n", run.Status)
			fmt.Fprintf(out, "Created:       %s\n", run.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Metric:        %s\n", run.Metric)
			fmt.Fprintf(out, "Rounds:        %d\n", run.Rounds)
			fmt.Fprintf(out, "Base seed:     %d\n", run.BaseSeed)
			fmt.Fprintf(out, "Collection:    %s\n", run.CollectionID)
			fmt.Fprintf(out, "Filter:        %s\n", run.FilterID)
			fmt.Fprintf(out, "Extractor cfg: %s\n", run.ConfigID)
			if run.ResultID != "" {
				fmt.Fprintf(out, "Result:        %s\n", run.ResultID)
			}
			if run.ManifestID != "" {
				fmt.Fprintf(out, "Manifest:      %s\n", run.ManifestID)
			}
			if run.Status == runindex.StatusCompleted {
				fmt.Fprintf(out, "Mean accuracy: %s\n", formatAccuracy(run.MeanAccuracy))
			}
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:         %s\n", run.ErrorMessage)
			}

			if cascadeDetail && run.ManifestID != "" {
				store, err := ctx.openArtifacts()
				if err != nil {
					return err
				}
				accuracies, err := classify.CascadeAccuracies(store, run.ManifestID)
				if err != nil {
					return fmt.Errorf("load cascade: %w", err)
				}
				rows := make([][]string, 0, len(accuracies))
				for i, accuracy := range accuracies {
					rows = append(rows, []string{strconv.Itoa(i), formatAccuracy(accuracy)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Step", "Mean accuracy"},
					rows,
					[]columnAlignment{alignRight, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cascadeDetail, "cascade", false, "Load and show per-step cascade accuracies")
	return cmd
}
