package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDownloadCmd discovers a job's result manifest and downloads the
// raw transcript to the local output folder.
func NewDownloadCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "download [job-id]",
		Short: "Download a finished job's raw transcript",
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
			if err != nil {
				return err
			}
			path, err := app.Pipe.Retrieve(cmd.Context(), jobID, manifest)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
