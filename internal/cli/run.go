package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd executes the whole pipeline for one recording: normalize,
// submit, poll for the result, download, and shape.
func NewRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <recording>",
		Short: "Run the full transcription pipeline on a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*configPath)
			if err != nil {
				return err
			}

			app.Pipe.OnStage = func(stage string) {
				fmt.Fprintf(cmd.OutOrStdout(), "==> %s\n", stage)
			}

			rec, err := app.Pipe.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "job %s %s\n", rec.JobID, rec.Status)
			fmt.Fprintln(cmd.OutOrStdout(), app.Pipe.ConversationPath(rec.JobID))
			return nil
		},
	}
}
