package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  provider: memory
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.Containers.ConvertedInput != "converted-input" {
		t.Errorf("converted input container = %q", cfg.Containers.ConvertedInput)
	}
	if cfg.Pipeline.SignedURLExpiry != time.Hour {
		t.Errorf("signed url expiry = %v, want 1h", cfg.Pipeline.SignedURLExpiry)
	}
	if cfg.Pipeline.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v, want 30s", cfg.Pipeline.PollInterval)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
store:
  provider: s3
  s3:
    region: eu-west-2
    endpoint: http://localhost:9000
    access_key: minio
    secret_key: minio123
containers:
  input: callaudio-input
  converted_input: callaudio-converted
  output: callaudio-output
transcription:
  endpoint: https://speech.example.test/transcriptions
  api_key: sekret
  locale: en-US
paths:
  download_folder: /tmp/transcripts
pipeline:
  poll_interval: 10s
  poll_deadline: 5m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.S3.Region != "eu-west-2" {
		t.Errorf("region = %q", cfg.Store.S3.Region)
	}
	if cfg.Containers.Output != "callaudio-output" {
		t.Errorf("output container = %q", cfg.Containers.Output)
	}
	if cfg.Transcription.Locale != "en-US" {
		t.Errorf("locale = %q", cfg.Transcription.Locale)
	}
	if cfg.Pipeline.PollDeadline != 5*time.Minute {
		t.Errorf("poll deadline = %v", cfg.Pipeline.PollDeadline)
	}
}

func TestLoadRequiresTranscriptionCredentials(t *testing.T) {
	path := writeConfig(t, `
store:
  provider: s3
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error when transcription endpoint/key missing in s3 mode")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
store:
  provider: gcs
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `
store:
  provider: memory
port: "8080"
`)

	t.Setenv("CALLSCRIBE_PORT", "7070")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port = %q, want env override 7070", cfg.Port)
	}
}
