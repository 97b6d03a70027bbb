package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore persists the keyed record table as one JSON file, plus the
// single well-known current-job slot as a plain-text file holding
// "job_id,storage_key". The slot is overwritten on every submission:
// only one job is current at a time, and submitting a new file before a
// prior job finishes orphans the prior job's downstream stages. Known
// single-tenancy behavior of the slot; the keyed table keeps every
// record regardless.
type FileStore struct {
	mu       sync.Mutex
	path     string
	slotPath string
}

// NewFileStore creates a file-backed ledger. path holds the JSON record
// table; slotPath holds the current-job slot.
func NewFileStore(path, slotPath string) *FileStore {
	return &FileStore{path: path, slotPath: slotPath}
}

// Create inserts the record and overwrites the current-job slot.
func (s *FileStore) Create(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[rec.JobID] = rec
	if err := s.save(records); err != nil {
		return err
	}

	return s.writeSlot(rec.JobID, rec.StorageKey)
}

// Update replaces an existing record.
func (s *FileStore) Update(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[rec.JobID]; !ok {
		return ErrRecordNotFound
	}
	records[rec.JobID] = rec
	return s.save(records)
}

// Get returns the record for jobID.
func (s *FileStore) Get(jobID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}
	rec, ok := records[jobID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// List returns all records, newest submission first.
func (s *FileStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

// Current resolves the slot file to its full record. A missing slot means
// no job has been submitted yet.
func (s *FileStore) Current() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID, _, err := s.readSlot()
	if err != nil {
		return Record{}, err
	}

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}
	rec, ok := records[jobID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *FileStore) load() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]Record), nil
		}
		return nil, fmt.Errorf("ledger: read %s: %w", s.path, err)
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("ledger: parse %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ledger: create directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) writeSlot(jobID, storageKey string) error {
	if err := os.MkdirAll(filepath.Dir(s.slotPath), 0o755); err != nil {
		return fmt.Errorf("ledger: create directory: %w", err)
	}
	line := jobID + "," + storageKey
	if err := os.WriteFile(s.slotPath, []byte(line), 0o644); err != nil {
		return fmt.Errorf("ledger: write slot %s: %w", s.slotPath, err)
	}
	return nil
}

func (s *FileStore) readSlot() (jobID, storageKey string, err error) {
	data, err := os.ReadFile(s.slotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", ErrNoActiveJob
		}
		return "", "", fmt.Errorf("ledger: read slot %s: %w", s.slotPath, err)
	}

	parts := strings.SplitN(strings.TrimSpace(string(data)), ",", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("ledger: malformed slot file %s", s.slotPath)
	}
	return parts[0], parts[1], nil
}
