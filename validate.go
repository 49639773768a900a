package chunkstream

import "fmt"

// Validate checks universal constraints on Request.
func (r Request) Validate() error {
	return r.Options.Validate()
}

// Validate checks that option values are in range. Zero values are accepted
// because WithDefaults replaces them.
func (o Options) Validate() error {
	if o.ChunkSizeHint < 0 {
		return fmt.Errorf("chunk_size_hint must be positive, got %d: %w", o.ChunkSizeHint, ErrValidation)
	}
	if _, ok := strategyNames[o.Strategy]; !ok {
		return fmt.Errorf("unknown strategy %d: %w", o.Strategy, ErrValidation)
	}
	if o.Delay.Base < 0 || o.Delay.Jitter < 0 {
		return fmt.Errorf("delay must be non-negative, got base %s jitter %s: %w", o.Delay.Base, o.Delay.Jitter, ErrValidation)
	}
	if o.Delay.Kind != DelayFixed && o.Delay.Kind != DelayJittered {
		return fmt.Errorf("unknown delay kind %d: %w", o.Delay.Kind, ErrValidation)
	}
	if o.MaxChunks < 0 {
		return fmt.Errorf("max_chunks must be non-negative, got %d: %w", o.MaxChunks, ErrValidation)
	}
	if o.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must be non-negative, got %s: %w", o.RetryBackoff, ErrValidation)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s: %w", o.Timeout, ErrValidation)
	}
	if o.OnCancel != ReturnPartial && o.OnCancel != RaiseCancelled {
		return fmt.Errorf("unknown on_cancel %d: %w", o.OnCancel, ErrValidation)
	}
	for i, f := range o.Faults {
		if err := validateFault(f); err != nil {
			return fmt.Errorf("fault_profile[%d]: %w", i, err)
		}
	}
	return nil
}

func validateFault(f FaultRule) error {
	if f.Kind != FaultTransient && f.Kind != FaultFatal {
		return fmt.Errorf("unknown fault kind %d: %w", f.Kind, ErrValidation)
	}
	if f.Probability < 0 || f.Probability > 1 {
		return fmt.Errorf("probability must be in [0, 1], got %g: %w", f.Probability, ErrValidation)
	}
	if !f.Probabilistic() && f.At < 0 {
		return fmt.Errorf("at_sequence must be non-negative, got %d: %w", f.At, ErrValidation)
	}
	if f.Times < 0 {
		return fmt.Errorf("times must be non-negative, got %d: %w", f.Times, ErrValidation)
	}
	return nil
}
