// Package main provides the entry point for the legis CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalVerbose bool
	globalJSON    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "legis",
		Short:         "Tracks legislative variables and the decision-tree points that depend on them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Log operations to stderr")
	rootCmd.PersistentFlags().BoolVar(&globalJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newVarsCmd(),
		newPointsCmd(),
		newStatsCmd(),
		newRenderCmd(),
		newAuditCmd(),
		newJobsCmd(),
	)

	return rootCmd
}
