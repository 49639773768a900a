package chunkstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrUsage indicates the caller misused a stream. It is never retried.
	ErrUsage = errors.New("usage error")

	// ErrConcurrentUse indicates a step was requested while another step on
	// the same stream was still in flight.
	ErrConcurrentUse = fmt.Errorf("%w: concurrent consumption of a single stream", ErrUsage)

	// ErrStreamDone indicates a terminal stream was driven again after its
	// end-of-stream signal or error had been delivered.
	ErrStreamDone = fmt.Errorf("%w: stream already terminated", ErrUsage)

	// ErrCancelled marks a stream that stopped because cancellation was observed.
	ErrCancelled = errors.New("stream cancelled")

	// ErrFatalFault is the cause of a FaultError raised by a fatal outcome.
	ErrFatalFault = errors.New("fatal fault")

	// ErrRetriesExhausted is the cause of a FaultError raised when a transient
	// fault outlives the retry budget.
	ErrRetriesExhausted = errors.New("transient fault retries exhausted")
)

// FaultError terminates a stream. It records the sequence number of the chunk
// that could not be emitted and the text delivered before it.
type FaultError struct {
	Sequence int
	Partial  string
	Attempts int // attempts made at Sequence, including the first
	Err      error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("chunk %d: %v (after %d attempts)", e.Sequence, e.Err, e.Attempts)
}

func (e *FaultError) Unwrap() error { return e.Err }

// CancelledError is returned by Collect when a stream configured with
// RaiseCancelled is cancelled.
type CancelledError struct {
	Sequence int // first sequence number that was not delivered
	Partial  string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("stream cancelled before chunk %d", e.Sequence)
}

// Is makes errors.Is(err, ErrCancelled) match.
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }
