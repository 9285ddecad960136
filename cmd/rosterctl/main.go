package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rosterctl",
		Short: "rosterctl - offline roster analysis",
		Long: `Runs the conflict detector and the task urgency scorer over YAML snapshots,
without a database or a running server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(conflictsCmd())
	rootCmd.AddCommand(urgencyCmd())
	return rootCmd
}
