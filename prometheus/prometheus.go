// Package prometheus exports stream events as Prometheus metrics.
package prometheus

import (
	"errors"

	"github.com/fwojciec/chunkstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chunkstream"

// Interface compliance check.
var _ chunkstream.Observer = (*Observer)(nil)

// Observer records stream events on a registry. It is safe for concurrent
// use by many streams.
type Observer struct {
	chunks       prometheus.Counter
	payloadBytes prometheus.Histogram
	retries      prometheus.Counter
	backoff      prometheus.Histogram
	streams      *prometheus.CounterVec
}

// NewObserver creates an Observer and registers its collectors with reg.
// It panics if the collectors are already registered.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		chunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Total number of chunks delivered",
		}),
		payloadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_payload_bytes",
			Help:      "Size of delivered chunk payloads in bytes",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of re-attempts scheduled after transient faults",
		}),
		backoff: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retry_backoff_seconds",
			Help:      "Backoff waited before each re-attempt in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		streams: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Total number of streams that reached a terminal status",
		}, []string{"status", "cause"}), // cause: none, fatal, exhausted
	}
}

// Observe records e.
func (o *Observer) Observe(e chunkstream.Event) {
	switch e := e.(type) {
	case chunkstream.EventChunk:
		o.chunks.Inc()
		o.payloadBytes.Observe(float64(len(e.Chunk.Payload)))
	case chunkstream.EventRetry:
		o.retries.Inc()
		o.backoff.Observe(e.Backoff.Seconds())
	case chunkstream.EventDone:
		o.streams.WithLabelValues(e.Status.String(), cause(e.Err)).Inc()
	}
}

func cause(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, chunkstream.ErrFatalFault):
		return "fatal"
	case errors.Is(err, chunkstream.ErrRetriesExhausted):
		return "exhausted"
	default:
		return "other"
	}
}
