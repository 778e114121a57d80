package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"radex/internal/artifact"
	"radex/internal/classify"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var rounds int
	var seed int64
	var metric string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a classification experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := ctx.setupExperiment()
			if err != nil {
				return err
			}
			defer exp.close()
			applyOverrides(exp, rounds, seed, metric, cmd)

			run, err := exp.beginRun(cmd.Context())
			if err != nil {
				return fmt.Errorf("record run: %w", err)
			}

			result, err := exp.runner.Classify(cmd.Context(), exp.classifyOptions())
			if err != nil {
				_ = exp.index.Fail(cmd.Context(), run.ID, err.Error())
				return err
			}

			resultID, err := exp.artifacts.Save(result, artifact.SaveOptions{})
			if err != nil {
				_ = exp.index.Fail(cmd.Context(), run.ID, err.Error())
				return fmt.Errorf("save result: %w", err)
			}
			if err := exp.index.Complete(cmd.Context(), run.ID, resultID, "", result.MeanAccuracy()); err != nil {
				return fmt.Errorf("complete run: %w", err)
			}

			out := cmd.OutOrStdout()
			successLine(out, "Run %s finished", run.ID)
			fmt.Fprintln(out, renderTable(
				[]string{"Rounds", "Metric", "Mean accuracy", "Result"},
				[][]string{{
					strconv.Itoa(len(result.Rounds())),
					result.Metric(),
					formatAccuracy(result.MeanAccuracy()),
					shortID(resultID),
				}},
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			))
			printTopFeatures(out, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 0, "Override the configured round count")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the configured base seed")
	cmd.Flags().StringVar(&metric, "metric", "", "Override the configured metric")
	return cmd
}

func applyOverrides(exp *experiment, rounds int, seed int64, metric string, cmd *cobra.Command) {
	if cmd.Flags().Changed("rounds") {
		exp.cfg.Experiment.Rounds = rounds
	}
	if cmd.Flags().Changed("seed") {
		exp.cfg.Experiment.BaseSeed = seed
	}
	if cmd.Flags().Changed("metric") {
		exp.cfg.Experiment.Metric = metric
	}
}

func printTopFeatures(out io.Writer, result *classify.Result) {
	importances := result.WeightedImportances()
	top := classify.TopFeatures(importances, 5)
	if len(top) == 0 {
		return
	}

	rows := make([][]string, 0, len(top))
	for _, name := range top {
		rows = append(rows, []string{name, fmt.Sprintf("%.4f", importances[name])})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Feature", "Importance"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}

func formatAccuracy(value float64) string {
	return fmt.Sprintf("%.2f%%", value*100)
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
