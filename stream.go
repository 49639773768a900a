package chunkstream

import "time"

// Stream uses a pull-based iterator pattern over one simulated response.
// Cancellation flows through the CancelToken and the context the stream was
// created with.
//
// Next blocks the calling goroutine for the configured delay and returns the
// next Chunk. NextAsync performs the same step on its own goroutine and
// delivers the single Result on the returned channel. Both return io.EOF
// once after the final chunk or after cancellation was observed, and a
// *FaultError once after a fatal fault. Any later call returns ErrStreamDone.
// A stream has a single consumer: calling either method while a step is in
// flight returns ErrConcurrentUse.
type Stream interface {
	Next() (Chunk, error)
	NextAsync() <-chan Result
	Status() Status
	Snapshot() Snapshot
}

// Segmenter splits a complete response into ordered chunks. Implementations
// are pure: no I/O, no timing and no failure injection.
type Segmenter interface {
	Segment(text string, opts Options) []Chunk
}

// FailureInjector decides whether an attempt at emitting chunk seq proceeds.
// attempt is 0 for the first try and increments with each retry.
type FailureInjector interface {
	Decide(seq, attempt int, snap Snapshot) Outcome
}

// Prober is implemented by injectors whose decision models a round trip.
// The simulator waits ProbeLatency before each Decide through the same wait
// used for chunk delays.
type Prober interface {
	ProbeLatency() time.Duration
}

// Observer receives stream events. Observe is called from the goroutine
// driving the stream and must not block.
type Observer interface {
	Observe(Event)
}

// Responder produces the complete response text for a request.
type Responder interface {
	Respond(req Request) string
}
