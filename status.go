package chunkstream

// Status indicates the lifecycle position of a stream.
type Status int

const (
	StatusIdle      Status = iota // Before the first step.
	StatusRunning                 // At least one step taken, not terminal.
	StatusCancelled               // Cancellation observed at a check point.
	StatusCompleted               // Final chunk emitted.
	StatusFailed                  // Fatal fault or exhausted retries.
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCancelled:
		return "cancelled"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further chunks can be emitted.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusFailed
}

// Snapshot is a read-only copy of a stream's state.
type Snapshot struct {
	ID           string
	Status       Status
	NextSequence int
	Emitted      []Chunk
	Retries      int // transient re-attempts across the whole stream
	Err          error
}

// Text concatenates the payloads of the emitted chunks in sequence order.
func (s Snapshot) Text() string {
	return Concat(s.Emitted)
}
