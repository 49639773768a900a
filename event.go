package chunkstream

import "time"

// Event is a sealed interface representing an observable stream transition.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventChunk is emitted when a chunk is delivered.
type EventChunk struct {
	StreamID string
	Chunk    Chunk
}

func (EventChunk) event() {}

// EventRetry is emitted when a transient fault schedules a re-attempt.
type EventRetry struct {
	StreamID string
	Sequence int
	Attempt  int // the attempt about to be made
	Backoff  time.Duration
}

func (EventRetry) event() {}

// EventDone is emitted once when the stream reaches a terminal status.
type EventDone struct {
	StreamID string
	Status   Status
	Err      error
}

func (EventDone) event() {}

// Interface compliance checks.
var (
	_ Event = EventChunk{}
	_ Event = EventRetry{}
	_ Event = EventDone{}
)
