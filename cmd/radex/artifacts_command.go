package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts",
		Short: "Show artifact store usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openArtifacts()
			if err != nil {
				return err
			}
			stats, err := store.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Artifact directory: %s\n", store.Dir())
			fmt.Fprintln(out, renderTable(
				[]string{"Entries", "Total size", "Disk free"},
				[][]string{{
					fmt.Sprintf("%d", stats.Entries),
					formatBytes(stats.TotalBytes),
					fmt.Sprintf("%s (%.0f%%)", formatBytes(int64(stats.FreeBytes)), stats.FreeRatio*100),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	for _, suffix := range suffixes {
		value /= unit
		if value < unit || suffix == suffixes[len(suffixes)-1] {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%d B", size)
}
