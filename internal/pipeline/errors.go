package pipeline

import (
	"errors"
	"fmt"
)

// Stage names, in execution order.
const (
	StageNormalize = "normalize"
	StageSubmit    = "submit"
	StageDiscover  = "discover"
	StageRetrieve  = "retrieve"
	StageShape     = "shape"
)

// ErrManifestNotFound means transcription has not finished yet: the
// output container holds no result manifest for the job. Transient;
// callers poll and try again.
var ErrManifestNotFound = errors.New("pipeline: result manifest not found")

// RetrievalError reports a transport failure fetching the final
// transcription artifact. Fatal for the run.
type RetrievalError struct {
	Address string
	Status  int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("pipeline: retrieve %s: unexpected status %d", e.Address, e.Status)
}

// StageError labels a failure with the pipeline stage it happened in.
// The underlying diagnostic is preserved verbatim.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
