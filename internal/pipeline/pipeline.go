// Package pipeline runs one audio file through submission, result
// discovery, retrieval, and shaping. Stages are plain functions taking
// and returning typed values; the job id is threaded explicitly so each
// stage can also run as an independent process invocation correlated
// only through the ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"callscribe/internal/audio"
	"callscribe/internal/config"
	"callscribe/internal/ledger"
	"callscribe/internal/store"
	"callscribe/internal/transcribe"
)

// ManifestSuffix marks the remote service's content-location manifest in
// the output container. Its appearance is the completion signal.
const ManifestSuffix = "contenturl_0.json"

// Pipeline holds the collaborators shared by all stages.
type Pipeline struct {
	store       store.Store
	jobs        ledger.Store
	transcriber transcribe.Client
	normalizer  *audio.Normalizer
	httpClient  *http.Client
	log         zerolog.Logger

	containers      config.ContainersConfig
	downloadDir     string
	signedURLExpiry time.Duration
	pollInterval    time.Duration
	pollDeadline    time.Duration

	// OnStage, when set, is called with each stage name as the
	// orchestrator enters it.
	OnStage func(stage string)
}

// New wires a pipeline from loaded configuration and collaborators.
func New(cfg *config.Config, st store.Store, jobs ledger.Store, tc transcribe.Client, log zerolog.Logger) *Pipeline {
	normalizer := audio.NewNormalizer()
	if cfg.FFmpegPath != "" {
		normalizer.FFmpegPath = cfg.FFmpegPath
	}

	return &Pipeline{
		store:           st,
		jobs:            jobs,
		transcriber:     tc,
		normalizer:      normalizer,
		httpClient:      &http.Client{},
		log:             log,
		containers:      cfg.Containers,
		downloadDir:     cfg.Paths.DownloadFolder,
		signedURLExpiry: cfg.Pipeline.SignedURLExpiry,
		pollInterval:    cfg.Pipeline.PollInterval,
		pollDeadline:    cfg.Pipeline.PollDeadline,
	}
}

// Normalize converts the raw upload to canonical mono 16 kHz WAV.
func (p *Pipeline) Normalize(ctx context.Context, data []byte, format audio.Format) ([]byte, error) {
	return p.normalizer.Normalize(ctx, data, format)
}

// TranscriptPath is where Retrieve stores the raw transcription artifact.
func (p *Pipeline) TranscriptPath(jobID string) string {
	return filepath.Join(p.downloadDir, jobID+"_transcript.json")
}

// ConversationPath is where Shape writes the conversation document.
func (p *Pipeline) ConversationPath(jobID string) string {
	return filepath.Join(p.downloadDir, jobID+"_conversation.json")
}

// Run executes the full stage sequence for one input file:
// normalize, submit, discover (polling), retrieve, shape. It halts on
// the first failing stage and reports it; artifacts produced by earlier
// stages are left in place for inspection, and nothing is rolled back.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (ledger.Record, error) {
	p.enterStage(StageNormalize)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return ledger.Record{}, &StageError{Stage: StageNormalize, Err: err}
	}
	format, ok := audio.FormatFromExt(inputPath)
	if !ok || !format.IsAudio() {
		return ledger.Record{}, &StageError{
			Stage: StageNormalize,
			Err:   fmt.Errorf("unsupported input file %s", filepath.Base(inputPath)),
		}
	}

	wav, err := p.Normalize(ctx, data, format)
	if err != nil {
		return ledger.Record{}, &StageError{Stage: StageNormalize, Err: err}
	}

	p.enterStage(StageSubmit)
	rec, err := p.Submit(ctx, wav, filepath.Base(inputPath))
	if err != nil {
		return ledger.Record{}, &StageError{Stage: StageSubmit, Err: err}
	}

	p.enterStage(StageDiscover)
	manifest, err := p.waitForManifest(ctx, rec.JobID)
	if err != nil {
		return rec, p.fail(rec.JobID, StageDiscover, err)
	}

	p.enterStage(StageRetrieve)
	if _, err := p.Retrieve(ctx, rec.JobID, manifest); err != nil {
		return rec, p.fail(rec.JobID, StageRetrieve, err)
	}

	p.enterStage(StageShape)
	outPath, err := p.Shape(rec.JobID)
	if err != nil {
		return rec, p.fail(rec.JobID, StageShape, err)
	}

	p.log.Info().
		Str("job_id", rec.JobID).
		Str("conversation", outPath).
		Msg("pipeline finished")

	final, err := p.jobs.Get(rec.JobID)
	if err != nil {
		return rec, nil
	}
	return final, nil
}

// waitForManifest polls Discover until the manifest appears, the poll
// deadline passes, or the context is cancelled. Discover itself never
// sleeps; the retry loop lives here with the caller.
func (p *Pipeline) waitForManifest(ctx context.Context, jobID string) (store.Address, error) {
	deadline := time.Now().Add(p.pollDeadline)
	for {
		addr, err := p.Discover(ctx, jobID)
		if err == nil {
			return addr, nil
		}
		if !errors.Is(err, ErrManifestNotFound) {
			return store.Address{}, err
		}
		if time.Now().After(deadline) {
			return store.Address{}, fmt.Errorf("transcription did not finish within %s: %w", p.pollDeadline, err)
		}

		p.log.Debug().Str("job_id", jobID).Msg("manifest not ready, polling again")
		select {
		case <-ctx.Done():
			return store.Address{}, ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}
}

func (p *Pipeline) enterStage(stage string) {
	if p.OnStage != nil {
		p.OnStage(stage)
	}
	p.log.Info().Str("stage", stage).Msg("entering stage")
}

// fail records the failure on the job and returns a stage-labeled error.
func (p *Pipeline) fail(jobID, stage string, err error) error {
	rec, getErr := p.jobs.Get(jobID)
	if getErr == nil {
		rec.Status = ledger.StatusFailed
		rec.Error = stage + ": " + err.Error()
		rec.UpdatedAt = time.Now().UTC()
		if updErr := p.jobs.Update(rec); updErr != nil {
			p.log.Warn().Err(updErr).Str("job_id", jobID).Msg("could not record failure")
		}
	}
	return &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) setStatus(jobID string, status ledger.Status) error {
	rec, err := p.jobs.Get(jobID)
	if err != nil {
		return err
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	return p.jobs.Update(rec)
}
