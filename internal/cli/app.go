package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"callscribe/internal/config"
	"callscribe/internal/ledger"
	"callscribe/internal/pipeline"
	"callscribe/internal/store"
	"callscribe/internal/store/memory"
	s3store "callscribe/internal/store/s3"
	"callscribe/internal/transcribe"
)

// App bundles the wired collaborators a subcommand needs.
type App struct {
	Config *config.Config
	Store  store.Store
	Jobs   *ledger.FileStore
	Pipe   *pipeline.Pipeline
	Log    zerolog.Logger
}

// newApp loads configuration and wires the store, ledger, transcription
// client, and pipeline.
func newApp(configPath string) (*App, error) {
	// .env is optional; real environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	st, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	jobs := ledger.NewFileStore(cfg.Paths.LedgerFile, cfg.Paths.CurrentSlot)
	tc := transcribe.NewRESTClient(cfg.Transcription.Endpoint, cfg.Transcription.APIKey, cfg.Transcription.Locale, log)
	pipe := pipeline.New(cfg, st, jobs, tc, log)

	return &App{Config: cfg, Store: st, Jobs: jobs, Pipe: pipe, Log: log}, nil
}

func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log: unknown level %q", cfg.Level)
	}

	var log zerolog.Logger
	if cfg.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger(), nil
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Provider {
	case config.ProviderMemory:
		return memory.New(), nil
	case config.ProviderS3:
		return s3store.New(context.Background(), cfg.Store.S3)
	default:
		return nil, fmt.Errorf("unsupported store provider %q", cfg.Store.Provider)
	}
}

// resolveJobID picks the job to operate on: the explicit argument when
// given, otherwise the most recently submitted job from the ledger.
func (a *App) resolveJobID(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	rec, err := a.Jobs.Current()
	if err != nil {
		return "", fmt.Errorf("no job id given and no active job: %w", err)
	}
	return rec.JobID, nil
}
