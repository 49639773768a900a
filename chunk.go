package chunkstream

// Chunk is one ordered fragment of a streamed response.
// Exactly one Chunk exists per Sequence within a stream, and the Chunk with
// Final set is always the last one delivered.
type Chunk struct {
	Sequence int
	Payload  string
	Final    bool
}

// Result carries the outcome of a single asynchronous step. Exactly one of
// Chunk or Err is meaningful: Err is io.EOF at a clean end of stream.
type Result struct {
	Chunk Chunk
	Err   error
}
