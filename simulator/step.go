package simulator

import (
	"io"
	"time"

	"github.com/fwojciec/chunkstream"
	"github.com/sirupsen/logrus"
)

// advance is the single transition shared by both delivery paths. It moves
// the stream forward by at most one chunk. Cancellation is checked before
// every wait, after it, and immediately before emission.
func (s *Simulator) advance(wait func(d time.Duration)) (chunkstream.Chunk, error) {
	s.mu.Lock()
	if s.status.Terminal() {
		defer s.mu.Unlock()
		if s.signalled {
			return chunkstream.Chunk{}, chunkstream.ErrStreamDone
		}
		s.signalled = true
		return chunkstream.Chunk{}, io.EOF
	}
	if s.status == chunkstream.StatusIdle {
		s.status = chunkstream.StatusRunning
		s.log.WithField("chunks", len(s.chunks)).Debug("stream started")
	}
	seq := s.next
	s.mu.Unlock()

	chunk := s.chunks[seq]
	pause := s.delay(seq)
	s.backoff.Reset()

	for attempt := 0; ; attempt++ {
		if s.cancelRequested() {
			return s.cancel(seq)
		}
		wait(pause)
		if p, ok := s.injector.(chunkstream.Prober); ok {
			wait(p.ProbeLatency())
		}
		if s.cancelRequested() {
			return s.cancel(seq)
		}

		switch s.injector.Decide(seq, attempt, s.Snapshot()) {
		case chunkstream.RaiseFatal:
			return s.fail(seq, attempt+1, chunkstream.ErrFatalFault)
		case chunkstream.RaiseTransient:
			if attempt >= s.opts.RetryLimit() {
				return s.fail(seq, attempt+1, chunkstream.ErrRetriesExhausted)
			}
			pause = s.backoff.NextBackOff()
			s.retry(seq, attempt+1, pause)
			continue
		}

		if s.cancelRequested() {
			return s.cancel(seq)
		}
		return s.emit(chunk), nil
	}
}

// cancelRequested reports whether the stream must stop. A done context is
// latched into the token so that it is indistinguishable from an explicit
// cancel.
func (s *Simulator) cancelRequested() bool {
	if s.token.Cancelled() {
		return true
	}
	if err := s.ctx.Err(); err != nil {
		if s.token.Cancel() {
			s.log.WithError(err).Debug("context done, cancelling stream")
		}
		return true
	}
	return false
}

func (s *Simulator) emit(c chunkstream.Chunk) chunkstream.Chunk {
	s.mu.Lock()
	s.emitted = append(s.emitted, c)
	s.next++
	if c.Final {
		s.status = chunkstream.StatusCompleted
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"sequence": c.Sequence, "final": c.Final}).Trace("chunk emitted")
	s.notify(chunkstream.EventChunk{StreamID: s.id, Chunk: c})
	if c.Final {
		s.log.Debug("stream completed")
		s.notify(chunkstream.EventDone{StreamID: s.id, Status: chunkstream.StatusCompleted})
	}
	return c
}

func (s *Simulator) retry(seq, attempt int, pause time.Duration) {
	s.mu.Lock()
	s.retries++
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"sequence": seq,
		"attempt":  attempt,
		"backoff":  pause,
	}).Debug("transient fault, retrying chunk")
	s.notify(chunkstream.EventRetry{StreamID: s.id, Sequence: seq, Attempt: attempt, Backoff: pause})
}

func (s *Simulator) cancel(seq int) (chunkstream.Chunk, error) {
	s.mu.Lock()
	s.status = chunkstream.StatusCancelled
	s.signalled = true
	s.mu.Unlock()

	s.log.WithField("sequence", seq).Debug("stream cancelled")
	s.notify(chunkstream.EventDone{StreamID: s.id, Status: chunkstream.StatusCancelled})
	return chunkstream.Chunk{}, io.EOF
}

func (s *Simulator) fail(seq, attempts int, cause error) (chunkstream.Chunk, error) {
	s.mu.Lock()
	err := &chunkstream.FaultError{
		Sequence: seq,
		Partial:  chunkstream.Concat(s.emitted),
		Attempts: attempts,
		Err:      cause,
	}
	s.status = chunkstream.StatusFailed
	s.err = err
	s.signalled = true
	s.mu.Unlock()

	s.log.WithError(err).WithField("sequence", seq).Warn("stream failed")
	s.notify(chunkstream.EventDone{StreamID: s.id, Status: chunkstream.StatusFailed, Err: err})
	return chunkstream.Chunk{}, err
}

func (s *Simulator) notify(e chunkstream.Event) {
	if s.observer != nil {
		s.observer.Observe(e)
	}
}
