package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCascadeCommand(ctx *commandContext) *cobra.Command {
	var rounds int
	var seed int64
	var metric string
	var steps int

	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "Run an importance cascade experiment",
		Long: "Runs a base classification, then repeats it with importance-threshold\n" +
			"filters at rising cutoffs so each run classifies on a smaller,\n" +
			"higher-importance feature subset. Results are grouped under a manifest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := ctx.setupExperiment()
			if err != nil {
				return err
			}
			defer exp.close()
			applyOverrides(exp, rounds, seed, metric, cmd)
			if !cmd.Flags().Changed("steps") {
				steps = exp.cfg.Experiment.CascadeSteps
			}

			run, err := exp.beginRun(cmd.Context())
			if err != nil {
				return fmt.Errorf("record run: %w", err)
			}

			cascade, err := exp.runner.ImportanceCascade(cmd.Context(), exp.classifyOptions(), steps, exp.artifacts)
			if err != nil {
				_ = exp.index.Fail(cmd.Context(), run.ID, err.Error())
				return err
			}
			// The indexed accuracy for a cascade run is the mean over all
			// steps, so runs list shows the cascade, not just its base run.
			if err := exp.index.Complete(cmd.Context(), run.ID, cascade.ResultIDs[0], cascade.ManifestID, cascade.MeanAccuracy()); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}

			out := cmd.OutOrStdout()
			successLine(out, "Run %s finished, manifest %s", run.ID, shortID(cascade.ManifestID))

			rows := make([][]string, 0, len(cascade.ResultIDs))
			for i := range cascade.ResultIDs {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i),
					fmt.Sprintf("%.6f", cascade.Thresholds[i]),
					formatAccuracy(cascade.Accuracies[i]),
					shortID(cascade.ResultIDs[i]),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Step", "Threshold", "Mean accuracy", "Result"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 0, "Override the configured round count")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the configured base seed")
	cmd.Flags().StringVar(&metric, "metric", "", "Override the configured metric")
	cmd.Flags().IntVar(&steps, "steps", 0, "Override the configured cascade step count")
	return cmd
}
