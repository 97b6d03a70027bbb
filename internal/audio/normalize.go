// Package audio converts uploaded call recordings to the canonical
// mono 16 kHz WAV the transcription service expects.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ConversionError reports an input that could not be decoded or converted.
// Fatal for the pipeline run; never retried.
type ConversionError struct {
	Format Format
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("convert %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("convert %s: %s", e.Format, e.Reason)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// Normalizer produces canonical mono 16 kHz WAV from any supported input.
// WAV input is handled in process; other containers go through ffmpeg.
type Normalizer struct {
	FFmpegPath string
	runner     commandRunner
}

// NewNormalizer creates a Normalizer using the ffmpeg binary on PATH.
func NewNormalizer() *Normalizer {
	return &Normalizer{FFmpegPath: "ffmpeg", runner: execRunner{}}
}

// Normalize converts raw audio bytes of the declared format to mono
// 16 kHz WAV. The output is verified before it is returned.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, format Format) ([]byte, error) {
	if !format.IsAudio() {
		return nil, &ConversionError{Format: format, Reason: "not an audio container"}
	}

	var out []byte
	var err error
	if format == FormatWAV {
		out, err = NormalizeWAV(data)
	} else {
		out, err = n.ffmpegConvert(ctx, data, format)
	}
	if err != nil {
		return nil, err
	}

	channels, rate, err := Info(out)
	if err != nil {
		return nil, &ConversionError{Format: format, Reason: "converter produced unreadable output", Err: err}
	}
	if channels != TargetChannels || rate != TargetSampleRate {
		return nil, &ConversionError{
			Format: format,
			Reason: fmt.Sprintf("converter produced %d ch / %d Hz, want %d ch / %d Hz",
				channels, rate, TargetChannels, TargetSampleRate),
		}
	}
	return out, nil
}

// ffmpegConvert shells out: ffmpeg -y -i in -ac 1 -ar 16000 -f wav out.
func (n *Normalizer) ffmpegConvert(ctx context.Context, data []byte, format Format) ([]byte, error) {
	dir, err := os.MkdirTemp("", "callscribe-convert-*")
	if err != nil {
		return nil, &ConversionError{Format: format, Reason: "create temp workspace", Err: err}
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input."+string(format))
	out := filepath.Join(dir, "output.wav")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		return nil, &ConversionError{Format: format, Reason: "write temp input", Err: err}
	}

	stderr, err := n.runner.run(ctx, n.FFmpegPath,
		"-y", "-i", in,
		"-ac", fmt.Sprint(TargetChannels),
		"-ar", fmt.Sprint(TargetSampleRate),
		"-f", "wav",
		out,
	)
	if err != nil {
		return nil, &ConversionError{
			Format: format,
			Reason: "ffmpeg failed: " + lastLine(stderr),
			Err:    err,
		}
	}

	converted, err := os.ReadFile(out)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConversionError{Format: format, Reason: "ffmpeg completed but output is missing"}
		}
		return nil, &ConversionError{Format: format, Reason: "read converted output", Err: err}
	}
	return converted, nil
}

func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
