// Package simulator drives a segmented response through timing, fault
// injection and cancellation, one chunk per step.
//
// A Simulator exposes two delivery paths over one transition function:
// Next waits with a blocking sleep on the caller's goroutine, NextAsync runs
// the step on its own goroutine and suspends on a timer that also wakes on
// cancellation. Because both paths call the same transition with the same
// deterministic inputs, they produce identical chunk sequences and terminal
// states for the same request.
package simulator

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/fault"
	"github.com/fwojciec/chunkstream/segment"
	"github.com/sirupsen/logrus"
)

// Interface compliance check.
var _ chunkstream.Stream = (*Simulator)(nil)

// Config carries the collaborators of a Simulator. Only Request is required.
type Config struct {
	Request   chunkstream.Request
	Text      string                      // complete response to segment
	Segmenter chunkstream.Segmenter       // default segment.Segmenter
	Injector  chunkstream.FailureInjector // default fault.New(Request.Options.Faults)
	Token     *chunkstream.CancelToken    // default a fresh token
	Observer  chunkstream.Observer        // optional
	Logger    logrus.FieldLogger          // default discards output
	Sleep     func(time.Duration)         // blocking wait for Next; default time.Sleep
}

// Simulator implements chunkstream.Stream for one request. It owns its state
// exclusively; only the CancelToken is written by other parties.
type Simulator struct {
	ctx      context.Context
	id       string
	opts     chunkstream.Options
	chunks   []chunkstream.Chunk
	injector chunkstream.FailureInjector
	token    *chunkstream.CancelToken
	observer chunkstream.Observer
	log      logrus.FieldLogger
	sleep    func(time.Duration)
	backoff  *backoff.ExponentialBackOff

	busy atomic.Bool // a step is in flight

	mu        sync.Mutex
	status    chunkstream.Status
	next      int
	emitted   []chunkstream.Chunk
	retries   int
	err       error
	signalled bool // terminal io.EOF or error already returned
}

// New creates a Simulator in StatusIdle. The context bounds the stream: once
// it is done the simulator treats it as a cancel request.
func New(ctx context.Context, cfg Config) *Simulator {
	opts := cfg.Request.Options.WithDefaults()

	seg := cfg.Segmenter
	if seg == nil {
		seg = segment.Segmenter{}
	}
	inj := cfg.Injector
	if inj == nil {
		inj = fault.New(opts.Faults)
	}
	token := cfg.Token
	if token == nil {
		token = chunkstream.NewCancelToken()
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.RetryBackoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 32 * opts.RetryBackoff
	b.Reset()

	return &Simulator{
		ctx:      ctx,
		id:       cfg.Request.ID,
		opts:     opts,
		chunks:   capChunks(normalize(seg.Segment(cfg.Text, opts)), opts.MaxChunks),
		injector: inj,
		token:    token,
		observer: cfg.Observer,
		log:      log.WithField("stream_id", cfg.Request.ID),
		sleep:    sleep,
		backoff:  b,
	}
}

// normalize makes a segmentation safe to step through: sequence numbers are
// reassigned from 0, anything after the first final chunk is dropped, and an
// empty final chunk is appended when no chunk is final.
func normalize(chunks []chunkstream.Chunk) []chunkstream.Chunk {
	out := make([]chunkstream.Chunk, 0, len(chunks)+1)
	for i, c := range chunks {
		c.Sequence = i
		out = append(out, c)
		if c.Final {
			return out
		}
	}
	return append(out, chunkstream.Chunk{Sequence: len(out), Final: true})
}

// capChunks enforces max: when there are more chunks than allowed, the chunk
// at sequence max-1 is replaced with a synthetic empty final chunk.
func capChunks(chunks []chunkstream.Chunk, limit int) []chunkstream.Chunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	capped := make([]chunkstream.Chunk, limit)
	copy(capped, chunks[:limit-1])
	capped[limit-1] = chunkstream.Chunk{Sequence: limit - 1, Final: true}
	return capped
}

// ID returns the request ID the simulator was created for.
func (s *Simulator) ID() string { return s.id }

// Token returns the cancellation token observed by the simulator.
func (s *Simulator) Token() *chunkstream.CancelToken { return s.token }

// Next blocks for the configured delay and returns the next chunk.
func (s *Simulator) Next() (chunkstream.Chunk, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return chunkstream.Chunk{}, chunkstream.ErrConcurrentUse
	}
	defer s.busy.Store(false)
	return s.advance(s.block)
}

// NextAsync starts the next step on a new goroutine and returns a channel
// that receives exactly one Result.
func (s *Simulator) NextAsync() <-chan chunkstream.Result {
	ch := make(chan chunkstream.Result, 1)
	if !s.busy.CompareAndSwap(false, true) {
		ch <- chunkstream.Result{Err: chunkstream.ErrConcurrentUse}
		return ch
	}
	go func() {
		c, err := s.advance(s.suspend)
		// Release before delivering so the consumer can issue the next
		// step as soon as it receives this one.
		s.busy.Store(false)
		ch <- chunkstream.Result{Chunk: c, Err: err}
	}()
	return ch
}

// Status returns the current status.
func (s *Simulator) Status() chunkstream.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a copy of the current state.
func (s *Simulator) Snapshot() chunkstream.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() chunkstream.Snapshot {
	emitted := make([]chunkstream.Chunk, len(s.emitted))
	copy(emitted, s.emitted)
	return chunkstream.Snapshot{
		ID:           s.id,
		Status:       s.status,
		NextSequence: s.next,
		Emitted:      emitted,
		Retries:      s.retries,
		Err:          s.err,
	}
}

// block is the wait used by Next.
func (s *Simulator) block(d time.Duration) {
	if d > 0 {
		s.sleep(d)
	}
}

// suspend is the wait used by NextAsync. It returns early when the stream is
// cancelled; the following check point then observes the cancellation.
func (s *Simulator) suspend(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-s.ctx.Done():
	case <-s.token.Done():
	}
}

// delay returns the pause before the first attempt at chunk seq.
func (s *Simulator) delay(seq int) time.Duration {
	d := s.opts.Delay
	if d.Kind != chunkstream.DelayJittered || d.Jitter <= 0 {
		return d.Base
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(s.opts.Seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(seq))
	return d.Base + time.Duration(xxhash.Sum64(buf[:])%uint64(d.Jitter+1))
}
