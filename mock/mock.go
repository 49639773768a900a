// Package mock provides test doubles for chunkstream interfaces using
// function fields.
package mock

import (
	"sync"

	"github.com/fwojciec/chunkstream"
)

// Interface compliance checks.
var (
	_ chunkstream.Segmenter       = (*Segmenter)(nil)
	_ chunkstream.FailureInjector = (*Injector)(nil)
	_ chunkstream.Observer        = (*Observer)(nil)
	_ chunkstream.Observer        = (*Recorder)(nil)
	_ chunkstream.Responder       = (*Responder)(nil)
)

// Segmenter is a test double for chunkstream.Segmenter.
// Set SegmentFn before calling Segment.
type Segmenter struct {
	SegmentFn func(text string, opts chunkstream.Options) []chunkstream.Chunk
}

// Segment delegates to SegmentFn.
func (s *Segmenter) Segment(text string, opts chunkstream.Options) []chunkstream.Chunk {
	return s.SegmentFn(text, opts)
}

// Injector is a test double for chunkstream.FailureInjector.
// Set DecideFn before calling Decide.
type Injector struct {
	DecideFn func(seq, attempt int, snap chunkstream.Snapshot) chunkstream.Outcome
}

// Decide delegates to DecideFn.
func (i *Injector) Decide(seq, attempt int, snap chunkstream.Snapshot) chunkstream.Outcome {
	return i.DecideFn(seq, attempt, snap)
}

// Observer is a test double for chunkstream.Observer.
// Observe is a no-op when ObserveFn is nil.
type Observer struct {
	ObserveFn func(chunkstream.Event)
}

// Observe delegates to ObserveFn.
func (o *Observer) Observe(e chunkstream.Event) {
	if o.ObserveFn != nil {
		o.ObserveFn(e)
	}
}

// Recorder is an Observer that keeps every event it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []chunkstream.Event
}

// Observe records e.
func (r *Recorder) Observe(e chunkstream.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []chunkstream.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chunkstream.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Responder is a test double for chunkstream.Responder.
// Set RespondFn before calling Respond.
type Responder struct {
	RespondFn func(req chunkstream.Request) string
}

// Respond delegates to RespondFn.
func (r *Responder) Respond(req chunkstream.Request) string {
	return r.RespondFn(req)
}
