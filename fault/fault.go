// Package fault implements chunkstream.FailureInjector with sequence
// triggers and seeded per-chunk probabilities.
package fault

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/chunkstream"
)

// Interface compliance checks.
var (
	_ chunkstream.FailureInjector = (*Injector)(nil)
	_ chunkstream.Prober          = (*Injector)(nil)
)

// Injector decides fault outcomes from a fixed set of rules. Decisions are a
// pure function of the rules, the sequence number and the attempt, so the
// same profile yields the same faults on every delivery path.
type Injector struct {
	rules []chunkstream.FaultRule
	probe time.Duration
}

// Option configures an Injector.
type Option func(*Injector)

// WithProbeLatency models each decision as a round trip of duration d.
func WithProbeLatency(d time.Duration) Option {
	return func(i *Injector) {
		i.probe = d
	}
}

// New creates an Injector for the given rules. A nil or empty rule set
// always proceeds.
func New(rules []chunkstream.FaultRule, opts ...Option) *Injector {
	i := &Injector{rules: make([]chunkstream.FaultRule, len(rules))}
	for n, r := range rules {
		if r.Times == 0 {
			r.Times = 1
		}
		i.rules[n] = r
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Decide returns the strongest outcome of all rules that fire for this
// attempt. Fatal beats transient, transient beats proceed.
func (i *Injector) Decide(seq, attempt int, _ chunkstream.Snapshot) chunkstream.Outcome {
	out := chunkstream.Proceed
	for _, r := range i.rules {
		if !fires(r, seq, attempt) {
			continue
		}
		switch r.Kind {
		case chunkstream.FaultFatal:
			return chunkstream.RaiseFatal
		case chunkstream.FaultTransient:
			out = chunkstream.RaiseTransient
		}
	}
	return out
}

// ProbeLatency returns the simulated decision round trip.
func (i *Injector) ProbeLatency() time.Duration { return i.probe }

func fires(r chunkstream.FaultRule, seq, attempt int) bool {
	if r.Probabilistic() {
		return Roll(r.Seed, seq, attempt) < r.Probability
	}
	return seq == r.At && attempt < r.Times
}

// Roll maps (seed, seq, attempt) to a uniformly distributed float in [0, 1).
func Roll(seed int64, seq, attempt int) float64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(seq))
	binary.LittleEndian.PutUint64(buf[16:], uint64(attempt))
	return float64(xxhash.Sum64(buf[:])>>11) / (1 << 53)
}
