package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"callscribe/internal/audio"
)

// NewConvertCmd normalizes a recording to canonical WAV without
// submitting it anywhere.
func NewConvertCmd(configPath *string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "convert <recording>",
		Short: "Normalize a recording to mono 16 kHz WAV",
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

			if outPath == "" {
				base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
				outPath = filepath.Join(filepath.Dir(input), base+"_16k.wav")
			}
			if err := os.WriteFile(outPath, wav, 0o644); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output WAV path (default <input>_16k.wav)")
	return cmd
}
