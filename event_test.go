package chunkstream_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/chunkstream"
	"github.com/stretchr/testify/assert"
)

func TestEvent_TypeSwitch(t *testing.T) {
	t.Parallel()

	events := []chunkstream.Event{
		chunkstream.EventChunk{StreamID: "s", Chunk: chunkstream.Chunk{Payload: "hi"}},
		chunkstream.EventRetry{StreamID: "s", Sequence: 2, Attempt: 1},
		chunkstream.EventDone{StreamID: "s", Status: chunkstream.StatusCompleted},
	}
	var kinds []string
	for _, e := range events {
		switch e.(type) {
		case chunkstream.EventChunk:
			kinds = append(kinds, "chunk")
		case chunkstream.EventRetry:
			kinds = append(kinds, "retry")
		case chunkstream.EventDone:
			kinds = append(kinds, "done")
		}
	}
	assert.Equal(t, []string{"chunk", "retry", "done"}, kinds)
}

func TestStatus(t *testing.T) {
	t.Parallel()
	assert.False(t, chunkstream.StatusIdle.Terminal())
	assert.False(t, chunkstream.StatusRunning.Terminal())
	assert.True(t, chunkstream.StatusCancelled.Terminal())
	assert.True(t, chunkstream.StatusCompleted.Terminal())
	assert.True(t, chunkstream.StatusFailed.Terminal())
	assert.Equal(t, "cancelled", chunkstream.StatusCancelled.String())
	assert.Equal(t, "unknown", chunkstream.Status(42).String())
}

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("usage errors share a sentinel", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, chunkstream.ErrConcurrentUse, chunkstream.ErrUsage)
		assert.ErrorIs(t, chunkstream.ErrStreamDone, chunkstream.ErrUsage)
		assert.NotErrorIs(t, chunkstream.ErrStreamDone, chunkstream.ErrConcurrentUse)
	})

	t.Run("fault error unwraps to its cause", func(t *testing.T) {
		t.Parallel()
		var err error = &chunkstream.FaultError{Sequence: 2, Partial: "ab", Attempts: 1, Err: chunkstream.ErrFatalFault}
		wrapped := fmt.Errorf("collect: %w", err)
		assert.ErrorIs(t, wrapped, chunkstream.ErrFatalFault)
		var fe *chunkstream.FaultError
		assert.True(t, errors.As(wrapped, &fe))
		assert.Equal(t, "chunk 2: fatal fault (after 1 attempts)", fe.Error())
	})

	t.Run("cancelled error matches ErrCancelled", func(t *testing.T) {
		t.Parallel()
		err := &chunkstream.CancelledError{Sequence: 3, Partial: "abc"}
		assert.ErrorIs(t, err, chunkstream.ErrCancelled)
		assert.Equal(t, "stream cancelled before chunk 3", err.Error())
	})
}

func TestResponders(t *testing.T) {
	t.Parallel()
	req := chunkstream.Request{Prompt: "Tell me a joke"}
	assert.Equal(t, "Tell me a joke", chunkstream.EchoResponder{}.Respond(req))
	assert.Equal(t, "Why?", chunkstream.ScriptResponder{Text: "Why?"}.Respond(req))
}
