// Package cli defines the callscribe command tree. Every pipeline stage
// is its own subcommand so stages can run as independent process
// invocations, correlated only through the job ledger.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Dependencies are constructed
// lazily per invocation so `--help` never touches configuration.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "callscribe",
		Short:         "Transcribe call recordings into speaker-labelled conversations",
		Long:          "callscribe normalizes call recordings, submits them to a remote transcription service, and shapes the results into two-speaker conversation documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")

	rootCmd.AddCommand(NewConvertCmd(&configPath))
	rootCmd.AddCommand(NewSubmitCmd(&configPath))
	rootCmd.AddCommand(NewDiscoverCmd(&configPath))
	rootCmd.AddCommand(NewDownloadCmd(&configPath))
	rootCmd.AddCommand(NewShapeCmd(&configPath))
	rootCmd.AddCommand(NewRunCmd(&configPath))
	rootCmd.AddCommand(NewServeCmd(&configPath))

	return rootCmd
}
