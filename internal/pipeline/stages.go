package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"callscribe/internal/ledger"
	"callscribe/internal/store"
	"callscribe/internal/transcript"
)

// Submit uploads normalized audio, triggers remote transcription, and
// persists the correlation record. After it returns, the uploaded object
// and the record are both durably visible to downstream stages. On
// partial failure nothing is salvaged; callers re-run the whole stage.
func (p *Pipeline) Submit(ctx context.Context, wav []byte, originalName string) (ledger.Record, error) {
	jobID := uuid.NewString()
	key := jobID + "_" + originalName

	container := p.containers.ConvertedInput
	if err := p.store.EnsureContainer(ctx, container); err != nil {
		return ledger.Record{}, err
	}

	addr, err := p.store.Put(ctx, container, key, wav)
	if err != nil {
		return ledger.Record{}, err
	}

	ok, err := p.store.Exists(ctx, addr)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("verify upload %s: %w", addr, err)
	}
	if !ok {
		return ledger.Record{}, fmt.Errorf("upload %s not visible after put", addr)
	}

	p.log.Info().
		Str("job_id", jobID).
		Str("container", container).
		Str("key", addr.Key).
		Int("bytes", len(wav)).
		Msg("uploaded normalized audio")

	contentURL, err := p.store.SignedGetURL(ctx, addr, p.signedURLExpiry)
	if err != nil {
		return ledger.Record{}, err
	}

	remoteID, err := p.transcriber.Submit(ctx, contentURL)
	if err != nil {
		return ledger.Record{}, err
	}

	now := time.Now().UTC()
	rec := ledger.Record{
		JobID:        jobID,
		OriginalName: originalName,
		StorageKey:   addr.Key,
		RemoteID:     remoteID,
		Status:       ledger.StatusSubmitted,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if err := p.jobs.Create(rec); err != nil {
		return ledger.Record{}, fmt.Errorf("persist correlation record: %w", err)
	}

	p.log.Info().Str("job_id", jobID).Str("remote_id", remoteID).Msg("transcription submitted")
	return rec, nil
}

// Discover scans the output container for the job's result manifest and
// returns its address, or ErrManifestNotFound while transcription is
// still running. The scan is narrowed by job-id prefix when the service
// namespaces results that way, otherwise it covers the whole container;
// the newest matching key wins. Safe to call repeatedly; never sleeps.
func (p *Pipeline) Discover(ctx context.Context, jobID string) (store.Address, error) {
	container := p.containers.Output

	keys, err := p.store.List(ctx, container, jobID)
	if err != nil {
		return store.Address{}, fmt.Errorf("list output container: %w", err)
	}
	manifest := lastManifest(keys)

	if manifest == "" {
		keys, err = p.store.List(ctx, container, "")
		if err != nil {
			return store.Address{}, fmt.Errorf("list output container: %w", err)
		}
		manifest = lastManifest(keys)
	}
	if manifest == "" {
		return store.Address{}, ErrManifestNotFound
	}

	if err := p.setStatus(jobID, ledger.StatusDiscovered); err != nil {
		return store.Address{}, err
	}

	p.log.Info().Str("job_id", jobID).Str("manifest", manifest).Msg("result manifest found")
	return store.Address{Container: container, Key: manifest}, nil
}

// Retrieve streams the manifest's content to the local download folder
// through a time-limited read-only URL. Returns the local path.
func (p *Pipeline) Retrieve(ctx context.Context, jobID string, manifest store.Address) (string, error) {
	url, err := p.store.SignedGetURL(ctx, manifest, p.signedURLExpiry)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", manifest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RetrievalError{Address: manifest.String(), Status: resp.StatusCode}
	}

	path := p.TranscriptPath(jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create download folder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := p.setStatus(jobID, ledger.StatusRetrieved); err != nil {
		return "", err
	}

	p.log.Info().Str("job_id", jobID).Str("path", path).Int64("bytes", n).Msg("transcript downloaded")
	return path, nil
}

// Shape parses the downloaded raw transcript and writes the canonical
// conversation document next to it. Returns the output path.
func (p *Pipeline) Shape(jobID string) (string, error) {
	raw, err := os.ReadFile(p.TranscriptPath(jobID))
	if err != nil {
		return "", fmt.Errorf("read raw transcript: %w", err)
	}

	conv, err := transcript.Shape(raw)
	if err != nil {
		return "", err
	}

	doc, err := json.MarshalIndent(conv, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode conversation: %w", err)
	}

	path := p.ConversationPath(jobID)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := p.setStatus(jobID, ledger.StatusShaped); err != nil {
		return "", err
	}

	p.log.Info().Str("job_id", jobID).Str("path", path).Int("turns", len(conv.Conversation)).Msg("conversation shaped")
	return path, nil
}

// IngestTranscript registers an already-transcribed raw recognition
// payload as a job and shapes it immediately, bypassing the remote
// service. Used when an operator uploads a raw transcript JSON directly.
func (p *Pipeline) IngestTranscript(raw []byte, originalName string) (ledger.Record, error) {
	jobID := uuid.NewString()
	now := time.Now().UTC()
	rec := ledger.Record{
		JobID:        jobID,
		OriginalName: originalName,
		Status:       ledger.StatusRetrieved,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if err := p.jobs.Create(rec); err != nil {
		return ledger.Record{}, fmt.Errorf("persist correlation record: %w", err)
	}

	path := p.TranscriptPath(jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ledger.Record{}, fmt.Errorf("create download folder: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return ledger.Record{}, fmt.Errorf("write %s: %w", path, err)
	}

	if _, err := p.Shape(jobID); err != nil {
		return rec, err
	}
	return p.jobs.Get(jobID)
}

// lastManifest returns the last manifest-suffixed key, or "".
func lastManifest(keys []string) string {
	for i := len(keys) - 1; i >= 0; i-- {
		if strings.HasSuffix(keys[i], ManifestSuffix) {
			return keys[i]
		}
	}
	return ""
}
