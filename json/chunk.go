package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/chunkstream"
)

// chunkDTO is the JSON representation of a Chunk, one per line.
type chunkDTO struct {
	StreamID string `json:"stream_id,omitempty"`
	Sequence int    `json:"sequence_number"`
	Payload  string `json:"payload"`
	Final    bool   `json:"is_final"`
}

// summaryDTO is the last line written for a stream.
type summaryDTO struct {
	StreamID string `json:"stream_id,omitempty"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks"`
	Retries  int    `json:"retries"`
	Error    string `json:"error,omitempty"`
}

// Writer writes a stream as newline-delimited JSON: one line per chunk
// followed by a summary line.
type Writer struct {
	enc *json.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// WriteChunk writes one chunk line.
func (w *Writer) WriteChunk(streamID string, c chunkstream.Chunk) error {
	dto := chunkDTO{StreamID: streamID, Sequence: c.Sequence, Payload: c.Payload, Final: c.Final}
	if err := w.enc.Encode(dto); err != nil {
		return fmt.Errorf("encode chunk %d: %w", c.Sequence, err)
	}
	return nil
}

// WriteSummary writes the terminal summary line for a snapshot.
func (w *Writer) WriteSummary(snap chunkstream.Snapshot) error {
	dto := summaryDTO{
		StreamID: snap.ID,
		Status:   snap.Status.String(),
		Chunks:   len(snap.Emitted),
		Retries:  snap.Retries,
	}
	if snap.Err != nil {
		dto.Error = snap.Err.Error()
	}
	if err := w.enc.Encode(dto); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// UnmarshalChunk decodes one chunk line.
func UnmarshalChunk(data []byte) (chunkstream.Chunk, error) {
	var dto chunkDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return chunkstream.Chunk{}, fmt.Errorf("unmarshal chunk: %w", err)
	}
	return chunkstream.Chunk{Sequence: dto.Sequence, Payload: dto.Payload, Final: dto.Final}, nil
}
