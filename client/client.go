// Package client is the public entry point for simulated streaming
// requests. A Client turns a Request into a single-pass Stream and can
// aggregate a stream into its full text.
package client

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/fault"
	"github.com/fwojciec/chunkstream/segment"
	"github.com/fwojciec/chunkstream/simulator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Client creates streams. It holds no per-stream state and is safe for
// concurrent use; streams created by one Client share nothing mutable.
type Client struct {
	log         logrus.FieldLogger
	segmenter   chunkstream.Segmenter
	responder   chunkstream.Responder
	observer    chunkstream.Observer
	newInjector func(chunkstream.Options) chunkstream.FailureInjector
	sleep       func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithSegmenter replaces the default segment.Segmenter.
func WithSegmenter(s chunkstream.Segmenter) Option {
	return func(c *Client) {
		c.segmenter = s
	}
}

// WithResponder sets how response text is derived from a request.
// The default echoes the prompt.
func WithResponder(r chunkstream.Responder) Option {
	return func(c *Client) {
		c.responder = r
	}
}

// WithObserver attaches an observer to every stream.
func WithObserver(o chunkstream.Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithInjectorFactory sets how a failure injector is built from the request
// options. The default is fault.New(opts.Faults).
func WithInjectorFactory(fn func(chunkstream.Options) chunkstream.FailureInjector) Option {
	return func(c *Client) {
		c.newInjector = fn
	}
}

// WithSleep replaces the blocking wait used by the synchronous path.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	l := logrus.New()
	l.SetOutput(io.Discard)
	c := &Client{
		log:       l,
		segmenter: segment.Segmenter{},
		responder: chunkstream.EchoResponder{},
		newInjector: func(o chunkstream.Options) chunkstream.FailureInjector {
			return fault.New(o.Faults)
		},
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamOption configures a single Stream.
type StreamOption func(*streamConfig)

type streamConfig struct {
	onChunk func(chunkstream.Chunk)
}

// WithChunkHandler sets a callback that receives each delivered chunk before
// the consumer sees it.
func WithChunkHandler(h func(chunkstream.Chunk)) StreamOption {
	return func(c *streamConfig) {
		c.onChunk = h
	}
}

// Stream validates req and starts a new stream for it. The request's
// Timeout, if any, bounds the stream's total wall time and is treated as a
// cancel request when exceeded.
func (c *Client) Stream(ctx context.Context, req chunkstream.Request, opts ...StreamOption) (*Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var cfg streamConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Options = req.Options.WithDefaults()

	release := context.CancelFunc(func() {})
	if req.Options.Timeout > 0 {
		ctx, release = context.WithTimeout(ctx, req.Options.Timeout)
	}

	log := c.log.WithField("stream_id", req.ID)
	sim := simulator.New(ctx, simulator.Config{
		Request:   req,
		Text:      c.responder.Respond(req),
		Segmenter: c.segmenter,
		Injector:  c.newInjector(req.Options),
		Observer:  c.observer,
		Logger:    c.log,
		Sleep:     c.sleep,
	})
	log.WithField("strategy", req.Options.Strategy).Debug("stream created")

	return &Stream{
		sim:     sim,
		req:     req,
		log:     log,
		onChunk: cfg.onChunk,
		release: release,
	}, nil
}

// Collect streams req synchronously and returns the concatenated payloads.
// See Stream.Collect for the error contract.
func (c *Client) Collect(ctx context.Context, req chunkstream.Request, opts ...StreamOption) (string, error) {
	s, err := c.Stream(ctx, req, opts...)
	if err != nil {
		return "", err
	}
	return s.Collect()
}

// CollectAsync streams req over the asynchronous path. The returned channel
// receives exactly one CollectResult.
func (c *Client) CollectAsync(ctx context.Context, req chunkstream.Request, opts ...StreamOption) <-chan CollectResult {
	s, err := c.Stream(ctx, req, opts...)
	if err != nil {
		ch := make(chan CollectResult, 1)
		ch <- CollectResult{Err: err}
		return ch
	}
	return s.CollectAsync()
}

// CollectAll collects every request on its own goroutine. Results are in
// request order. The first error cancels the remaining streams and is
// returned alongside whatever text was collected.
func (c *Client) CollectAll(ctx context.Context, reqs []chunkstream.Request) ([]string, error) {
	texts := make([]string, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			text, err := c.Collect(ctx, req)
			texts[i] = text
			return err
		})
	}
	err := g.Wait()
	return texts, err
}

// CollectEach collects every request on its own goroutine. Unlike
// CollectAll, streams are independent: a failure is recorded in that
// request's result and never cancels the others. Results are in request
// order. With async set, each stream is driven over the asynchronous path.
func (c *Client) CollectEach(ctx context.Context, reqs []chunkstream.Request, async bool) []CollectResult {
	results := make([]CollectResult, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = c.collectOne(ctx, req, async)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) collectOne(ctx context.Context, req chunkstream.Request, async bool) CollectResult {
	s, err := c.Stream(ctx, req)
	if err != nil {
		return CollectResult{Err: err}
	}
	if async {
		return <-s.CollectAsync()
	}
	text, err := s.Collect()
	return CollectResult{Text: text, Status: s.Status(), Err: err}
}
