package client

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/simulator"
	"github.com/sirupsen/logrus"
)

// Interface compliance check.
var _ chunkstream.Stream = (*Stream)(nil)

// Stream is a single-pass handle on one simulated response. It owns the
// stream's CancelToken. A Stream has one consumer: use either the
// synchronous methods (Next, Chunks, Collect) or the asynchronous ones
// (NextAsync, Async, CollectAsync) at a time, never both concurrently.
type Stream struct {
	sim     *simulator.Simulator
	req     chunkstream.Request
	log     logrus.FieldLogger
	onChunk func(chunkstream.Chunk)
	release context.CancelFunc
}

// CollectResult is the aggregated outcome of a stream.
type CollectResult struct {
	Text   string
	Status chunkstream.Status
	Err    error
}

// Request returns the request with defaults applied and ID assigned.
func (s *Stream) Request() chunkstream.Request { return s.req }

// ID returns the request ID.
func (s *Stream) ID() string { return s.req.ID }

// Next blocks for the next chunk. It returns io.EOF at the end of the
// stream, including after cancellation.
func (s *Stream) Next() (chunkstream.Chunk, error) {
	c, err := s.sim.Next()
	return s.deliver(c, err)
}

// NextAsync performs the next step without blocking the caller. The
// returned channel receives exactly one Result.
func (s *Stream) NextAsync() <-chan chunkstream.Result {
	in := s.sim.NextAsync()
	out := make(chan chunkstream.Result, 1)
	go func() {
		r := <-in
		r.Chunk, r.Err = s.deliver(r.Chunk, r.Err)
		out <- r
	}()
	return out
}

// Chunks returns an iterator over the stream using the synchronous path.
// Iteration ends at the end of the stream; a terminal error is yielded once.
func (s *Stream) Chunks() iter.Seq2[chunkstream.Chunk, error] {
	return func(yield func(chunkstream.Chunk, error) bool) {
		for {
			c, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// Async drives the stream over the asynchronous path and delivers each
// chunk on the returned channel. A terminal error is delivered as the last
// Result, and the channel is closed at the end of the stream. Consumers must
// drain the channel; after Cancel it closes once the in-flight step ends.
func (s *Stream) Async() <-chan chunkstream.Result {
	out := make(chan chunkstream.Result)
	go func() {
		defer close(out)
		for {
			r := <-s.NextAsync()
			if r.Err == io.EOF {
				return
			}
			out <- r
			if r.Err != nil {
				return
			}
		}
	}()
	return out
}

// Collect drives the stream to its end on the synchronous path and returns
// the concatenated payloads of the delivered chunks. A fatal fault returns
// the partial text with a *chunkstream.FaultError. A cancelled stream
// returns the partial text and, when the request's OnCancel is
// RaiseCancelled, a *chunkstream.CancelledError.
func (s *Stream) Collect() (string, error) {
	var b strings.Builder
	for c, err := range s.Chunks() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(c.Payload)
	}
	return s.finish(b.String())
}

// CollectAsync is Collect over the asynchronous path. The returned channel
// receives exactly one CollectResult.
func (s *Stream) CollectAsync() <-chan CollectResult {
	out := make(chan CollectResult, 1)
	go func() {
		var b strings.Builder
		for r := range s.Async() {
			if r.Err != nil {
				out <- CollectResult{Text: b.String(), Status: s.Status(), Err: r.Err}
				return
			}
			b.WriteString(r.Chunk.Payload)
		}
		text, err := s.finish(b.String())
		out <- CollectResult{Text: text, Status: s.Status(), Err: err}
	}()
	return out
}

// Cancel requests cancellation. It takes effect before the next chunk
// emission and never withdraws a chunk already delivered. Calling Cancel
// more than once, or on a terminal stream, has no further effect. Cancel
// also stops the request's timeout timer, so a stream abandoned before its
// end should be cancelled.
func (s *Stream) Cancel() {
	defer s.release()
	if s.sim.Status().Terminal() {
		return
	}
	if s.sim.Token().Cancel() {
		s.log.Debug("cancel requested")
	}
}

// Status returns the current stream status.
func (s *Stream) Status() chunkstream.Status { return s.sim.Status() }

// Snapshot returns a copy of the current stream state.
func (s *Stream) Snapshot() chunkstream.Snapshot { return s.sim.Snapshot() }

func (s *Stream) deliver(c chunkstream.Chunk, err error) (chunkstream.Chunk, error) {
	if err != nil {
		if !errors.Is(err, chunkstream.ErrUsage) {
			s.release()
		}
		return c, err
	}
	if c.Final {
		s.release()
	}
	if s.onChunk != nil {
		s.onChunk(c)
	}
	return c, nil
}

func (s *Stream) finish(text string) (string, error) {
	snap := s.sim.Snapshot()
	if snap.Status != chunkstream.StatusCancelled {
		return text, nil
	}
	s.log.WithField("delivered", len(snap.Emitted)).Debug("stream collected after cancellation")
	if s.req.Options.OnCancel == chunkstream.RaiseCancelled {
		return text, &chunkstream.CancelledError{Sequence: snap.NextSequence, Partial: text}
	}
	return text, nil
}
