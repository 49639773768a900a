package chunkstream

// Outcome is a FailureInjector decision for one attempt at emitting a chunk.
type Outcome int

const (
	Proceed        Outcome = iota // Emit the chunk.
	RaiseTransient                // Retry the same chunk after a backoff.
	RaiseFatal                    // Terminate the stream with StatusFailed.
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case RaiseTransient:
		return "transient"
	case RaiseFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
