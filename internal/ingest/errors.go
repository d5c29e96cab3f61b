package ingest

import (
	"context"
	"errors"
	"net"
)

// Stage names a pipeline step in errors and responses.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageChunk   Stage = "chunk"
	StageEmbed   Stage = "embed"
	StageIndex   Stage = "index"
)

var stageMessages = map[Stage]string{
	StageFetch:   "Failed to download document",
	StageExtract: "Text extraction failed",
	StageChunk:   "Chunking failed",
	StageEmbed:   "Embedding failed",
	StageIndex:   "Index persistence failed",
}

// ErrNoText is returned when extraction yields no text to chunk.
var ErrNoText = errors.New("no text extracted from document")

// StageError is the error returned by Pipeline.Run for any failed stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	msg, ok := stageMessages[e.Stage]
	if !ok {
		msg = string(e.Stage) + " failed"
	}
	return msg + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// AsStageError returns the first *StageError in err's chain, or nil.
func AsStageError(err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// IsTimeout reports whether err was caused by a deadline, either a context
// deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
