// Package config loads the process-wide settings document. Configuration
// is read once at startup and is read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	s3store "callscribe/internal/store/s3"
)

// Store providers.
const (
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

type Config struct {
	Port string `mapstructure:"port"`

	Log           LogConfig           `mapstructure:"log"`
	Store         StoreConfig         `mapstructure:"store"`
	Containers    ContainersConfig    `mapstructure:"containers"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Paths         PathsConfig         `mapstructure:"paths"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`

	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Provider string         `mapstructure:"provider"`
	S3       s3store.Config `mapstructure:"s3"`
}

// ContainersConfig names the three object-store containers the pipeline
// touches. Configuration-driven, never hardcoded at call sites.
type ContainersConfig struct {
	Input          string `mapstructure:"input"`
	ConvertedInput string `mapstructure:"converted_input"`
	Output         string `mapstructure:"output"`
}

type TranscriptionConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Locale   string `mapstructure:"locale"`
}

type PathsConfig struct {
	UploadFolder   string `mapstructure:"upload_folder"`
	DownloadFolder string `mapstructure:"download_folder"`
	LedgerFile     string `mapstructure:"ledger_file"`
	CurrentSlot    string `mapstructure:"current_slot"`
}

type PipelineConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollDeadline    time.Duration `mapstructure:"poll_deadline"`
	SignedURLExpiry time.Duration `mapstructure:"signed_url_expiry"`
}

// Load reads configuration from the given YAML file (or ./config.yaml
// when path is empty) with CALLSCRIBE_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CALLSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Missing config.yaml is fine when nothing was asked for
		// explicitly; env vars and defaults still apply.
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.provider", ProviderS3)
	v.SetDefault("containers.input", "input")
	v.SetDefault("containers.converted_input", "converted-input")
	v.SetDefault("containers.output", "output")
	v.SetDefault("transcription.locale", "en-GB")
	v.SetDefault("paths.upload_folder", "uploads")
	v.SetDefault("paths.download_folder", "output")
	v.SetDefault("paths.ledger_file", "data/jobs.json")
	v.SetDefault("paths.current_slot", "data/current.txt")
	v.SetDefault("pipeline.poll_interval", 30*time.Second)
	v.SetDefault("pipeline.poll_deadline", 30*time.Minute)
	v.SetDefault("pipeline.signed_url_expiry", time.Hour)
	v.SetDefault("ffmpeg_path", "ffmpeg")
}

func (c *Config) validate() error {
	switch c.Store.Provider {
	case ProviderS3, ProviderMemory:
	default:
		return fmt.Errorf("config: unsupported store provider %q (supported: s3, memory)", c.Store.Provider)
	}

	if c.Store.Provider == ProviderS3 {
		if c.Transcription.Endpoint == "" {
			return fmt.Errorf("config: transcription.endpoint is required (or CALLSCRIBE_TRANSCRIPTION_ENDPOINT)")
		}
		if c.Transcription.APIKey == "" {
			return fmt.Errorf("config: transcription.api_key is required (or CALLSCRIBE_TRANSCRIPTION_API_KEY)")
		}
	}
	return nil
}
