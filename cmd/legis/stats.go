package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show point counts by category and criticality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				stats, err := d.Points.HandleStatistics(cmd.Context())
				if err != nil {
					return fmt.Errorf("computing statistics: %w", err)
				}
				if ok, err := printJSON(stats); ok {
					return err
				}
				displayStatistics(stats)
				return nil
			})
		},
	}
}
