package cli

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"callscribe/internal/audio"
)

// stereoWAV builds a stereo 44.1 kHz PCM16 fixture that needs
// normalization.
func stereoWAV(t *testing.T, frames int) []byte {
	t.Helper()
	dataSize := frames * 4
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 2)
	binary.LittleEndian.PutUint32(buf[24:28], 44100)
	binary.LittleEndian.PutUint32(buf[28:32], 44100*4)
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	return buf
}

func useMemoryStore(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CALLSCRIBE_STORE_PROVIDER", "memory")
	t.Setenv("CALLSCRIBE_PATHS_LEDGER_FILE", filepath.Join(dir, "jobs.json"))
	t.Setenv("CALLSCRIBE_PATHS_CURRENT_SLOT", filepath.Join(dir, "current.txt"))
	t.Setenv("CALLSCRIBE_PATHS_DOWNLOAD_FOLDER", filepath.Join(dir, "output"))
}

func TestConvertCommand(t *testing.T) {
	useMemoryStore(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "call.wav")
	if err := os.WriteFile(input, stereoWAV(t, 4410), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "call_norm.wav")

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"convert", input, "-o", output})

	if err := root.Execute(); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out.String(), output) {
		t.Errorf("output = %q, want converted path", out.String())
	}

	wav, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read converted file: %v", err)
	}
	channels, rate, err := audio.Info(wav)
	if err != nil {
		t.Fatalf("parse converted file: %v", err)
	}
	if channels != 1 || rate != 16000 {
		t.Errorf("converted to %d ch %d Hz, want mono 16 kHz", channels, rate)
	}
}

func TestConvertRejectsUnsupportedInput(t *testing.T) {
	useMemoryStore(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "notes.pdf")
	if err := os.WriteFile(input, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"convert", input})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unsupported input file") {
		t.Fatalf("err = %v, want unsupported input error", err)
	}
}

func TestDiscoverWithoutActiveJob(t *testing.T) {
	useMemoryStore(t)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"discover"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no active job") {
		t.Fatalf("err = %v, want no-active-job error", err)
	}
}

func TestRootListsStageCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	joined := strings.Join(names, " ")
	for _, want := range []string{"convert", "submit", "discover", "download", "shape", "run", "serve"} {
		if !strings.Contains(joined, want) {
			t.Errorf("command %q missing from root (have: %s)", want, joined)
		}
	}
}
