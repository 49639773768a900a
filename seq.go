package chunkstream

import (
	"iter"
	"strings"
)

// Concat joins chunk payloads in the order given.
func Concat(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Payload)
	}
	return b.String()
}

// Map returns a sequence that applies fn to every chunk payload.
// Errors pass through unchanged.
func Map(seq iter.Seq2[Chunk, error], fn func(string) string) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for c, err := range seq {
			if err == nil {
				c.Payload = fn(c.Payload)
			}
			if !yield(c, err) {
				return
			}
		}
	}
}

// Tap returns a sequence that calls fn for every chunk before yielding it.
func Tap(seq iter.Seq2[Chunk, error], fn func(Chunk)) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for c, err := range seq {
			if err == nil {
				fn(c)
			}
			if !yield(c, err) {
				return
			}
		}
	}
}

// Recover returns a sequence that replaces a terminal error with a final
// chunk whose payload is onError(err). The synthetic chunk continues the
// sequence numbering. When onError is nil the error is yielded unchanged.
func Recover(seq iter.Seq2[Chunk, error], onError func(error) string) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		next := 0
		for c, err := range seq {
			if err != nil && onError != nil {
				yield(Chunk{Sequence: next, Payload: onError(err), Final: true}, nil)
				return
			}
			if !yield(c, err) {
				return
			}
			next = c.Sequence + 1
		}
	}
}
