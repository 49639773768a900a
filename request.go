package chunkstream

import "time"

// Default option values applied by Options.WithDefaults.
const (
	DefaultChunkSizeHint = 16
	DefaultMaxRetries    = 3
	DefaultRetryBackoff  = 10 * time.Millisecond
)

// Request describes one simulated generation call. It is a value type and is
// never mutated once handed to a client.
type Request struct {
	ID      string // opaque; the client assigns one when empty
	Prompt  string
	Options Options
}

// Strategy selects how a response is segmented into chunks.
type Strategy int

const (
	StrategyWord     Strategy = iota // Word boundaries, trailing whitespace kept.
	StrategyFixed                    // Fixed windows of grapheme clusters.
	StrategySentence                 // Sentence boundaries.
	StrategyRandom                   // Seeded random windows of grapheme clusters.
)

var strategyNames = map[Strategy]string{
	StrategyWord:     "word",
	StrategyFixed:    "fixed",
	StrategySentence: "sentence",
	StrategyRandom:   "random",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStrategy maps a strategy name to its Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	for s, n := range strategyNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// DelayKind selects between a fixed and a jittered inter-chunk delay.
type DelayKind int

const (
	DelayFixed DelayKind = iota
	DelayJittered
)

func (k DelayKind) String() string {
	switch k {
	case DelayFixed:
		return "fixed"
	case DelayJittered:
		return "jittered"
	default:
		return "unknown"
	}
}

// DelayProfile is the pacing applied before each chunk. For DelayJittered the
// extra delay for a chunk is derived from the request seed and the chunk's
// sequence number, so it is reproducible.
type DelayProfile struct {
	Kind   DelayKind
	Base   time.Duration
	Jitter time.Duration
}

// FaultKind is the outcome a fault rule raises when it fires.
type FaultKind int

const (
	FaultTransient FaultKind = iota
	FaultFatal
)

func (k FaultKind) String() string {
	switch k {
	case FaultTransient:
		return "transient"
	case FaultFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FaultRule configures one fault trigger. A rule with zero Probability fires
// at sequence At for the first Times attempts (default 1). A rule with a
// positive Probability fires on any attempt with that probability, decided by
// hashing Seed with the sequence number and attempt.
type FaultRule struct {
	At          int
	Probability float64
	Kind        FaultKind
	Seed        int64
	Times       int
}

// Probabilistic reports whether the rule is probability driven.
func (r FaultRule) Probabilistic() bool { return r.Probability > 0 }

// OnCancel selects what Collect reports for a cancelled stream.
type OnCancel int

const (
	ReturnPartial  OnCancel = iota // Partial text, nil error.
	RaiseCancelled                 // Partial text and a *CancelledError.
)

func (o OnCancel) String() string {
	switch o {
	case ReturnPartial:
		return "ReturnPartial"
	case RaiseCancelled:
		return "RaiseCancelled"
	default:
		return "unknown"
	}
}

// Options configures segmentation, pacing, fault injection and cancellation
// for a Request. Zero values select defaults; see WithDefaults.
type Options struct {
	ChunkSizeHint int
	Strategy      Strategy
	Seed          int64
	Delay         DelayProfile
	Faults        []FaultRule
	MaxChunks     int // 0 = unlimited
	MaxRetries    int // 0 = DefaultMaxRetries, negative = no retries
	RetryBackoff  time.Duration
	OnCancel      OnCancel
	Timeout       time.Duration // 0 = no ceiling
}

// WithDefaults returns a copy of o with zero-valued fields replaced by their
// defaults.
func (o Options) WithDefaults() Options {
	if o.ChunkSizeHint == 0 {
		o.ChunkSizeHint = DefaultChunkSizeHint
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryBackoff == 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if len(o.Faults) > 0 {
		faults := make([]FaultRule, len(o.Faults))
		for i, f := range o.Faults {
			if f.Times == 0 {
				f.Times = 1
			}
			faults[i] = f
		}
		o.Faults = faults
	}
	return o
}

// RetryLimit returns the number of re-attempts allowed for a chunk hit by a
// transient fault.
func (o Options) RetryLimit() int {
	return max(o.MaxRetries, 0)
}
