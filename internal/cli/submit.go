package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"callscribe/internal/audio"
)

// NewSubmitCmd normalizes a recording, uploads it, and starts remote
// transcription. Prints the job id for later stage invocations.
func NewSubmitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <recording>",
		Short: "Upload a recording and start transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*configPath)
			if err != nil {
				return err
			}

			input := args[0]
			format, ok := audio.FormatFromExt(input)
			if !ok || !format.IsAudio() {
				return fmt.Errorf("unsupported input file %s", filepath.Base(input))
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			wav, err := app.Pipe.Normalize(cmd.Context(), data, format)
			if err != nil {
				return err
			}

			rec, err := app.Pipe.Submit(cmd.Context(), wav, filepath.Base(input))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rec.JobID)
			return nil
		},
	}
}
