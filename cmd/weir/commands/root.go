// Package commands implements the weir CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// Version information, injected at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "weir",
	Short: "Weir stream processing cluster",
	Long: `Weir runs distributed streaming pipelines over a shared Postgres
control plane. One binary hosts every service role; pick the role (or the
whole control plane) with a subcommand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the first error encountered.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(compilerCmd)
	rootCmd.AddCommand(controllerCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
