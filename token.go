package chunkstream

import (
	"sync/atomic"
	"time"
)

// CancelToken is a write-once cancellation latch shared between a stream's
// owner and its driving loop. It is safe to use from any goroutine.
type CancelToken struct {
	at   atomic.Int64 // unix nanoseconds of the first Cancel; 0 until set
	done chan struct{}
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel sets the latch. It reports whether this call was the one that set
// it; repeated calls are no-ops.
func (t *CancelToken) Cancel() bool {
	now := time.Now().UnixNano()
	if now == 0 {
		now = 1
	}
	if !t.at.CompareAndSwap(0, now) {
		return false
	}
	close(t.done)
	return true
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	return t.at.Load() != 0
}

// CancelledAt returns the time of the first Cancel, or the zero time.
func (t *CancelToken) CancelledAt() time.Time {
	ns := t.at.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Done returns a channel that is closed once the token is cancelled.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}
