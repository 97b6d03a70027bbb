// Package ledger persists job correlation records: the linkage between a
// job id, the storage key of its uploaded audio, and its pipeline status.
// The ledger is the only state channel between stage invocations.
package ledger

import (
	"errors"
	"time"
)

// Status is the pipeline position of a job.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusDiscovered Status = "discovered"
	StatusRetrieved  Status = "retrieved"
	StatusShaped     Status = "shaped"
	StatusFailed     Status = "failed"
)

var (
	// ErrNoActiveJob means the current-job slot is empty: nothing has
	// been submitted yet, or the slot file was removed.
	ErrNoActiveJob = errors.New("ledger: no active job")

	// ErrRecordNotFound means no record exists for the given job id.
	ErrRecordNotFound = errors.New("ledger: record not found")
)

// Record is one job's correlation record.
type Record struct {
	JobID        string    `json:"job_id"`
	OriginalName string    `json:"original_name"`
	StorageKey   string    `json:"storage_key"`
	RemoteID     string    `json:"remote_id,omitempty"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is a keyed table of job records indexed by job id.
type Store interface {
	// Create inserts a new record and marks it as the current job.
	Create(rec Record) error

	// Update replaces the record with the same JobID.
	Update(rec Record) error

	// Get returns the record for jobID, or ErrRecordNotFound.
	Get(jobID string) (Record, error)

	// List returns all records, newest submission first.
	List() ([]Record, error)

	// Current returns the most recently submitted job's record, or
	// ErrNoActiveJob when nothing has been submitted.
	Current() (Record, error)
}
