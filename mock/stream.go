package mock

import "github.com/fwojciec/chunkstream"

// Interface compliance check.
var _ chunkstream.Stream = (*Stream)(nil)

// Stream is a test double for chunkstream.Stream.
// Set the function fields for the methods you need. NextFn and NextAsyncFn
// panic when nil to catch missing setup. StatusFn, SnapshotFn and CancelFn
// are nil-safe.
type Stream struct {
	NextFn      func() (chunkstream.Chunk, error)
	NextAsyncFn func() <-chan chunkstream.Result
	StatusFn    func() chunkstream.Status
	SnapshotFn  func() chunkstream.Snapshot
	CancelFn    func()
}

// Next delegates to NextFn.
func (s *Stream) Next() (chunkstream.Chunk, error) {
	return s.NextFn()
}

// NextAsync delegates to NextAsyncFn.
func (s *Stream) NextAsync() <-chan chunkstream.Result {
	return s.NextAsyncFn()
}

// Status delegates to StatusFn. Returns StatusIdle when StatusFn is nil.
func (s *Stream) Status() chunkstream.Status {
	if s.StatusFn == nil {
		return chunkstream.StatusIdle
	}
	return s.StatusFn()
}

// Snapshot delegates to SnapshotFn. Returns a zero Snapshot when SnapshotFn
// is nil.
func (s *Stream) Snapshot() chunkstream.Snapshot {
	if s.SnapshotFn == nil {
		return chunkstream.Snapshot{}
	}
	return s.SnapshotFn()
}

// Cancel delegates to CancelFn when set.
func (s *Stream) Cancel() {
	if s.CancelFn != nil {
		s.CancelFn()
	}
}
