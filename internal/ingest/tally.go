package ingest

import (
	"errors"
	"log/slog"

	"paper-rag/internal/store"
)

// ErrTooManyFailures aborts a paper once rejected chunks pass the threshold.
var ErrTooManyFailures = errors.New("too many failed chunk inserts")

const loggedFailures = 3

// FailureTally counts rejected chunk inserts across the batches of one paper.
type FailureTally struct {
	threshold int
	count     int
	log       *slog.Logger
}

// NewFailureTally returns a tally that trips when more than threshold
// failures have been added.
func NewFailureTally(threshold int, log *slog.Logger) *FailureTally {
	return &FailureTally{threshold: threshold, log: log}
}

// Add records failures. The first few are logged. It returns
// ErrTooManyFailures once the count exceeds the threshold.
func (t *FailureTally) Add(failures []store.InsertFailure) error {
	for _, f := range failures {
		if t.count < loggedFailures {
			t.log.Error("chunk insert failed", "chunk_id", f.ChunkID, "err", f.Message)
		}
		t.count++
	}
	if t.count > t.threshold {
		return ErrTooManyFailures
	}
	return nil
}

// Count is the number of failures seen so far.
func (t *FailureTally) Count() int { return t.count }
