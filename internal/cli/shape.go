package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewShapeCmd turns a downloaded raw transcript into the conversation
// document.
func NewShapeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shape [job-id]",
		Short: "Shape a downloaded transcript into a conversation document",
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

			path, err := app.Pipe.Shape(jobID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
