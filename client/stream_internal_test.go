package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/chunkstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_CancelReleasesTimeout(t *testing.T) {
	t.Parallel()

	c := New(WithSleep(func(time.Duration) {}))
	s, err := c.Stream(context.Background(), chunkstream.Request{
		Prompt:  "one two three",
		Options: chunkstream.Options{Timeout: time.Hour},
	})
	require.NoError(t, err)

	var released atomic.Int32
	release := s.release
	s.release = func() {
		released.Add(1)
		release()
	}

	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "one ", first.Payload)
	assert.Zero(t, released.Load())

	s.Cancel()
	assert.Equal(t, int32(1), released.Load())

	text, err := s.Collect()
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, chunkstream.StatusCancelled, s.Status())
}

func TestStream_CancelAfterEndReleases(t *testing.T) {
	t.Parallel()

	c := New(WithSleep(func(time.Duration) {}))
	s, err := c.Stream(context.Background(), chunkstream.Request{Prompt: "one"})
	require.NoError(t, err)

	var released atomic.Int32
	s.release = func() { released.Add(1) }

	_, err = s.Collect()
	require.NoError(t, err)
	s.Cancel()
	assert.Equal(t, chunkstream.StatusCompleted, s.Status())
	assert.Positive(t, released.Load())
}
