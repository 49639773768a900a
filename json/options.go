// Package json encodes chunkstream request options and stream output as
// JSON. The same DTOs carry yaml tags so fixtures can share them.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/chunkstream"
)

// OptionsDTO is the wire format of chunkstream.Options. Durations are
// expressed in milliseconds.
type OptionsDTO struct {
	ChunkSizeHint  int        `json:"chunk_size_hint,omitempty" yaml:"chunk_size_hint,omitempty"`
	Strategy       string     `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Seed           int64      `json:"seed,omitempty" yaml:"seed,omitempty"`
	DelayProfile   *DelayDTO  `json:"delay_profile,omitempty" yaml:"delay_profile,omitempty"`
	FaultProfile   []FaultDTO `json:"fault_profile,omitempty" yaml:"fault_profile,omitempty"`
	MaxChunks      int        `json:"max_chunks,omitempty" yaml:"max_chunks,omitempty"`
	MaxRetries     int        `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	RetryBackoffMS int        `json:"retry_backoff_ms,omitempty" yaml:"retry_backoff_ms,omitempty"`
	OnCancel       string     `json:"on_cancel,omitempty" yaml:"on_cancel,omitempty"`
	TimeoutMS      int        `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// DelayDTO is the wire format of chunkstream.DelayProfile.
type DelayDTO struct {
	Kind     string `json:"kind" yaml:"kind"`
	BaseMS   int    `json:"base_ms" yaml:"base_ms"`
	JitterMS int    `json:"jitter_ms,omitempty" yaml:"jitter_ms,omitempty"`
}

// FaultDTO is the wire format of chunkstream.FaultRule. Exactly one of
// AtSequence and Probability must be set.
type FaultDTO struct {
	AtSequence  *int     `json:"at_sequence,omitempty" yaml:"at_sequence,omitempty"`
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Kind        string   `json:"kind" yaml:"kind"`
	Seed        int64    `json:"seed,omitempty" yaml:"seed,omitempty"`
	Times       int      `json:"times,omitempty" yaml:"times,omitempty"`
}

// NewOptionsDTO converts options to their wire format.
func NewOptionsDTO(o chunkstream.Options) OptionsDTO {
	dto := OptionsDTO{
		ChunkSizeHint:  o.ChunkSizeHint,
		Strategy:       o.Strategy.String(),
		Seed:           o.Seed,
		MaxChunks:      o.MaxChunks,
		MaxRetries:     o.MaxRetries,
		RetryBackoffMS: int(o.RetryBackoff / time.Millisecond),
		OnCancel:       o.OnCancel.String(),
		TimeoutMS:      int(o.Timeout / time.Millisecond),
	}
	if o.Delay != (chunkstream.DelayProfile{}) {
		dto.DelayProfile = &DelayDTO{
			Kind:     o.Delay.Kind.String(),
			BaseMS:   int(o.Delay.Base / time.Millisecond),
			JitterMS: int(o.Delay.Jitter / time.Millisecond),
		}
	}
	for _, f := range o.Faults {
		fd := FaultDTO{Kind: f.Kind.String(), Seed: f.Seed, Times: f.Times}
		if f.Probabilistic() {
			p := f.Probability
			fd.Probability = &p
		} else {
			at := f.At
			fd.AtSequence = &at
		}
		dto.FaultProfile = append(dto.FaultProfile, fd)
	}
	return dto
}

// Options converts the wire format to chunkstream.Options and validates it.
func (d OptionsDTO) Options() (chunkstream.Options, error) {
	o := chunkstream.Options{
		ChunkSizeHint: d.ChunkSizeHint,
		Seed:          d.Seed,
		MaxChunks:     d.MaxChunks,
		MaxRetries:    d.MaxRetries,
		RetryBackoff:  time.Duration(d.RetryBackoffMS) * time.Millisecond,
		Timeout:       time.Duration(d.TimeoutMS) * time.Millisecond,
	}
	if d.Strategy != "" {
		s, ok := chunkstream.ParseStrategy(d.Strategy)
		if !ok {
			return chunkstream.Options{}, fmt.Errorf("unknown strategy %q: %w", d.Strategy, chunkstream.ErrValidation)
		}
		o.Strategy = s
	}
	switch d.OnCancel {
	case "", "ReturnPartial":
		o.OnCancel = chunkstream.ReturnPartial
	case "RaiseCancelled":
		o.OnCancel = chunkstream.RaiseCancelled
	default:
		return chunkstream.Options{}, fmt.Errorf("unknown on_cancel %q: %w", d.OnCancel, chunkstream.ErrValidation)
	}
	if d.DelayProfile != nil {
		delay, err := d.DelayProfile.profile()
		if err != nil {
			return chunkstream.Options{}, err
		}
		o.Delay = delay
	}
	for i, fd := range d.FaultProfile {
		rule, err := fd.rule()
		if err != nil {
			return chunkstream.Options{}, fmt.Errorf("fault_profile[%d]: %w", i, err)
		}
		o.Faults = append(o.Faults, rule)
	}
	if err := o.Validate(); err != nil {
		return chunkstream.Options{}, err
	}
	return o, nil
}

func (d DelayDTO) profile() (chunkstream.DelayProfile, error) {
	p := chunkstream.DelayProfile{
		Base:   time.Duration(d.BaseMS) * time.Millisecond,
		Jitter: time.Duration(d.JitterMS) * time.Millisecond,
	}
	switch d.Kind {
	case "", "fixed":
		p.Kind = chunkstream.DelayFixed
	case "jittered":
		p.Kind = chunkstream.DelayJittered
	default:
		return chunkstream.DelayProfile{}, fmt.Errorf("unknown delay kind %q: %w", d.Kind, chunkstream.ErrValidation)
	}
	return p, nil
}

func (d FaultDTO) rule() (chunkstream.FaultRule, error) {
	r := chunkstream.FaultRule{Seed: d.Seed, Times: d.Times}
	switch d.Kind {
	case "transient":
		r.Kind = chunkstream.FaultTransient
	case "fatal":
		r.Kind = chunkstream.FaultFatal
	default:
		return chunkstream.FaultRule{}, fmt.Errorf("unknown fault kind %q: %w", d.Kind, chunkstream.ErrValidation)
	}
	switch {
	case d.AtSequence != nil && d.Probability != nil:
		return chunkstream.FaultRule{}, fmt.Errorf("at_sequence and probability are exclusive: %w", chunkstream.ErrValidation)
	case d.AtSequence != nil:
		r.At = *d.AtSequence
	case d.Probability != nil:
		if *d.Probability <= 0 {
			return chunkstream.FaultRule{}, fmt.Errorf("probability must be positive, got %g: %w", *d.Probability, chunkstream.ErrValidation)
		}
		r.Probability = *d.Probability
	default:
		return chunkstream.FaultRule{}, fmt.Errorf("one of at_sequence or probability is required: %w", chunkstream.ErrValidation)
	}
	return r, nil
}

// MarshalOptions serializes options to JSON.
func MarshalOptions(o chunkstream.Options) ([]byte, error) {
	return json.Marshal(NewOptionsDTO(o))
}

// UnmarshalOptions deserializes and validates options from JSON.
func UnmarshalOptions(data []byte) (chunkstream.Options, error) {
	var dto OptionsDTO
	if err := MergeOptions(&dto, data); err != nil {
		return chunkstream.Options{}, err
	}
	return dto.Options()
}

// MergeOptions decodes JSON over dto. Fields absent from data keep their
// current values. Unknown fields are rejected.
func MergeOptions(dto *OptionsDTO, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dto); err != nil {
		return fmt.Errorf("unmarshal options: %w", err)
	}
	return nil
}

// LoadOptions reads options from a JSON file.
func LoadOptions(path string) (chunkstream.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chunkstream.Options{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalOptions(data)
}
