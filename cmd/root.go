package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "trading-signals",
	Short: "Signal ingestion and batch analytics service",
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
