package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"callscribe/internal/pipeline"
)

// NewDiscoverCmd runs one discovery pass for a job. Exits zero with
// "pending" while transcription is still running, so shell loops can
// poll it.
func NewDiscoverCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "discover [job-id]",
		Short: "Check whether a job's result manifest has appeared",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*configPath)
			if err != nil {
				return err
			}
			jobID, err := app.resolveJobID(args)
			if err != nil {
				return err
			}

			manifest, err := app.Pipe.Discover(cmd.Context(), jobID)
			if errors.Is(err, pipeline.ErrManifestNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "pending")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), manifest.String())
			return nil
		},
	}
}
