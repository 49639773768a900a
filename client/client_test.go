package client_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/client"
	"github.com/fwojciec/chunkstream/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fiveWords = "one two three four five"

func newClient(opts ...client.Option) *client.Client {
	return client.New(append([]client.Option{client.WithSleep(func(time.Duration) {})}, opts...)...)
}

func TestClient_Stream(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid options", func(t *testing.T) {
		t.Parallel()
		c := newClient()
		_, err := c.Stream(context.Background(), chunkstream.Request{
			Prompt:  "hi",
			Options: chunkstream.Options{Faults: []chunkstream.FaultRule{{Probability: 2}}},
		})
		assert.ErrorIs(t, err, chunkstream.ErrValidation)
	})

	t.Run("assigns an id when empty", func(t *testing.T) {
		t.Parallel()
		s, err := newClient().Stream(context.Background(), chunkstream.Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID())
		assert.Equal(t, s.ID(), s.Snapshot().ID)
	})

	t.Run("keeps a caller supplied id", func(t *testing.T) {
		t.Parallel()
		s, err := newClient().Stream(context.Background(), chunkstream.Request{ID: "req-1", Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "req-1", s.ID())
		assert.Equal(t, chunkstream.DefaultChunkSizeHint, s.Request().Options.ChunkSizeHint)
	})

	t.Run("chunks iterator is single pass", func(t *testing.T) {
		t.Parallel()
		s, err := newClient().Stream(context.Background(), chunkstream.Request{Prompt: "Hello world"})
		require.NoError(t, err)

		var got []string
		for c, err := range s.Chunks() {
			require.NoError(t, err)
			got = append(got, c.Payload)
		}
		assert.Equal(t, []string{"Hello ", "world"}, got)

		for _, err := range s.Chunks() {
			assert.ErrorIs(t, err, chunkstream.ErrStreamDone)
		}
	})

	t.Run("async channel delivers every chunk then closes", func(t *testing.T) {
		t.Parallel()
		s, err := newClient().Stream(context.Background(), chunkstream.Request{Prompt: "Hello async world"})
		require.NoError(t, err)

		var got []string
		for r := range s.Async() {
			require.NoError(t, r.Err)
			got = append(got, r.Chunk.Payload)
		}
		assert.Equal(t, []string{"Hello ", "async ", "world"}, got)
		assert.Equal(t, chunkstream.StatusCompleted, s.Status())
	})

	t.Run("chunk handler sees each chunk in order on both paths", func(t *testing.T) {
		t.Parallel()
		c := newClient()
		for _, async := range []bool{false, true} {
			var seen []string
			s, err := c.Stream(context.Background(), chunkstream.Request{Prompt: "Hello callback"},
				client.WithChunkHandler(func(ch chunkstream.Chunk) { seen = append(seen, ch.Payload) }))
			require.NoError(t, err)
			var text string
			if async {
				r := <-s.CollectAsync()
				require.NoError(t, r.Err)
				text = r.Text
			} else {
				text, err = s.Collect()
				require.NoError(t, err)
			}
			assert.Equal(t, "Hello callback", text)
			assert.Equal(t, []string{"Hello ", "callback"}, seen)
		}
	})

	t.Run("scripted responder ignores the prompt", func(t *testing.T) {
		t.Parallel()
		c := newClient(client.WithResponder(chunkstream.ScriptResponder{Text: "Why did the chicken cross the road?"}))
		s, err := c.Stream(context.Background(), chunkstream.Request{Prompt: "Tell me a joke"})
		require.NoError(t, err)
		var got []string
		for ch, err := range s.Chunks() {
			require.NoError(t, err)
			got = append(got, ch.Payload)
		}
		assert.Equal(t, []string{"Why ", "did ", "the ", "chicken ", "cross ", "the ", "road?"}, got)
	})

	t.Run("observer and injector factory are wired", func(t *testing.T) {
		t.Parallel()
		var rec mock.Recorder
		c := newClient(
			client.WithObserver(&rec),
			client.WithInjectorFactory(func(chunkstream.Options) chunkstream.FailureInjector {
				return &mock.Injector{DecideFn: func(seq, _ int, _ chunkstream.Snapshot) chunkstream.Outcome {
					if seq == 1 {
						return chunkstream.RaiseFatal
					}
					return chunkstream.Proceed
				}}
			}),
		)
		text, err := c.Collect(context.Background(), chunkstream.Request{ID: "obs", Prompt: "a b c"})
		assert.Equal(t, "a ", text)
		assert.ErrorIs(t, err, chunkstream.ErrFatalFault)
		events := rec.Events()
		require.Len(t, events, 2)
		assert.Equal(t, chunkstream.EventChunk{StreamID: "obs", Chunk: chunkstream.Chunk{Sequence: 0, Payload: "a "}}, events[0])
		done, ok := events[1].(chunkstream.EventDone)
		require.True(t, ok)
		assert.Equal(t, chunkstream.StatusFailed, done.Status)
	})
}

func TestClient_Collect(t *testing.T) {
	t.Parallel()

	t.Run("joins payloads into the original text", func(t *testing.T) {
		t.Parallel()
		text, err := newClient().Collect(context.Background(), chunkstream.Request{Prompt: "This is a test"})
		require.NoError(t, err)
		assert.Equal(t, "This is a test", text)
	})

	t.Run("async collect matches sync collect", func(t *testing.T) {
		t.Parallel()
		r := <-newClient().CollectAsync(context.Background(), chunkstream.Request{Prompt: "Async test"})
		require.NoError(t, r.Err)
		assert.Equal(t, "Async test", r.Text)
	})

	t.Run("async collect reports validation errors", func(t *testing.T) {
		t.Parallel()
		r := <-newClient().CollectAsync(context.Background(), chunkstream.Request{
			Options: chunkstream.Options{MaxChunks: -1},
		})
		assert.ErrorIs(t, r.Err, chunkstream.ErrValidation)
	})

	t.Run("transient fault at 2 is recovered", func(t *testing.T) {
		t.Parallel()
		var seqs []int
		text, err := newClient().Collect(context.Background(), chunkstream.Request{
			Prompt: fiveWords,
			Options: chunkstream.Options{
				Faults:     []chunkstream.FaultRule{{At: 2, Kind: chunkstream.FaultTransient}},
				MaxRetries: 3,
			},
		}, client.WithChunkHandler(func(c chunkstream.Chunk) { seqs = append(seqs, c.Sequence) }))
		require.NoError(t, err)
		assert.Equal(t, fiveWords, text)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, seqs)
	})

	t.Run("fatal fault at 2 returns partial text and error", func(t *testing.T) {
		t.Parallel()
		text, err := newClient().Collect(context.Background(), chunkstream.Request{
			Prompt: fiveWords,
			Options: chunkstream.Options{
				Faults: []chunkstream.FaultRule{{At: 2, Kind: chunkstream.FaultFatal}},
			},
		})
		assert.Equal(t, "one two ", text)
		var fe *chunkstream.FaultError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 2, fe.Sequence)
		assert.Equal(t, "one two ", fe.Partial)
	})

	t.Run("cancel after chunk 1 returns partial text", func(t *testing.T) {
		t.Parallel()
		var s *client.Stream
		s, err := newClient().Stream(context.Background(), chunkstream.Request{Prompt: fiveWords},
			client.WithChunkHandler(func(c chunkstream.Chunk) {
				if c.Sequence == 1 {
					s.Cancel()
				}
			}))
		require.NoError(t, err)
		text, err := s.Collect()
		require.NoError(t, err)
		assert.Equal(t, "one two ", text)
		assert.Equal(t, chunkstream.StatusCancelled, s.Status())
	})

	t.Run("raise cancelled reports a cancellation error", func(t *testing.T) {
		t.Parallel()
		var s *client.Stream
		s, err := newClient().Stream(context.Background(), chunkstream.Request{
			Prompt:  fiveWords,
			Options: chunkstream.Options{OnCancel: chunkstream.RaiseCancelled},
		}, client.WithChunkHandler(func(c chunkstream.Chunk) {
			if c.Sequence == 1 {
				s.Cancel()
			}
		}))
		require.NoError(t, err)
		text, err := s.Collect()
		assert.Equal(t, "one two ", text)
		assert.ErrorIs(t, err, chunkstream.ErrCancelled)
		var ce *chunkstream.CancelledError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 2, ce.Sequence)
		assert.Equal(t, "one two ", ce.Partial)
	})

	t.Run("timeout behaves as cancellation", func(t *testing.T) {
		t.Parallel()
		c := client.New()
		r := <-c.CollectAsync(context.Background(), chunkstream.Request{
			Prompt: fiveWords,
			Options: chunkstream.Options{
				Delay:   chunkstream.DelayProfile{Base: 20 * time.Millisecond},
				Timeout: 30 * time.Millisecond,
			},
		})
		require.NoError(t, r.Err)
		assert.True(t, strings.HasPrefix(fiveWords, r.Text))
		assert.NotEqual(t, fiveWords, r.Text)
	})
}

func TestStream_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("cancel twice equals cancel once", func(t *testing.T) {
		t.Parallel()
		run := func(times int) (string, chunkstream.Status) {
			s, err := newClient().Stream(context.Background(), chunkstream.Request{Prompt: fiveWords})
			require.NoError(t, err)
			_, err = s.Next()
			require.NoError(t, err)
			for range times {
				s.Cancel()
			}
			text, err := s.Collect()
			require.NoError(t, err)
			return text, s.Status()
		}
		onceText, onceStatus := run(1)
		twiceText, twiceStatus := run(2)
		assert.Equal(t, onceText, twiceText)
		assert.Equal(t, onceStatus, twiceStatus)
	})

	t.Run("cancel on a completed stream is a no-op", func(t *testing.T) {
		t.Parallel()
		s, err := newClient().Stream(context.Background(), chunkstream.Request{Prompt: "a b"})
		require.NoError(t, err)
		_, err = s.Collect()
		require.NoError(t, err)
		s.Cancel()
		assert.Equal(t, chunkstream.StatusCompleted, s.Status())
	})

	t.Run("nothing past the in-flight chunk is delivered", func(t *testing.T) {
		t.Parallel()
		s, err := client.New().Stream(context.Background(), chunkstream.Request{
			Prompt:  strings.Repeat("word ", 50),
			Options: chunkstream.Options{Delay: chunkstream.DelayProfile{Base: time.Millisecond}},
		})
		require.NoError(t, err)

		ch := s.Async()
		first := <-ch
		require.NoError(t, first.Err)
		delivered := []int{first.Chunk.Sequence}

		s.Cancel()
		cancelledAt := s.Snapshot().NextSequence
		for r := range ch {
			require.NoError(t, r.Err)
			delivered = append(delivered, r.Chunk.Sequence)
		}
		// At most the chunk already in flight when Cancel was called.
		assert.LessOrEqual(t, delivered[len(delivered)-1], cancelledAt)
		assert.Equal(t, chunkstream.StatusCancelled, s.Status())
	})
}

func TestClient_CollectAll(t *testing.T) {
	t.Parallel()

	t.Run("collects independent streams concurrently", func(t *testing.T) {
		t.Parallel()
		reqs := []chunkstream.Request{
			{Prompt: "first stream"},
			{Prompt: "second stream here"},
			{Prompt: ""},
		}
		texts, err := client.New().CollectAll(context.Background(), reqs)
		require.NoError(t, err)
		assert.Equal(t, []string{"first stream", "second stream here", ""}, texts)
	})

	t.Run("returns the first fault", func(t *testing.T) {
		t.Parallel()
		reqs := []chunkstream.Request{
			{Prompt: "ok"},
			{Prompt: "a b c", Options: chunkstream.Options{
				Faults: []chunkstream.FaultRule{{At: 1, Kind: chunkstream.FaultFatal}},
			}},
		}
		texts, err := newClient().CollectAll(context.Background(), reqs)
		var fe *chunkstream.FaultError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "a ", texts[1])
	})
}

func TestClient_CollectEach(t *testing.T) {
	t.Parallel()

	reqs := []chunkstream.Request{
		{Prompt: "a b c", Options: chunkstream.Options{
			Faults: []chunkstream.FaultRule{{At: 0, Kind: chunkstream.FaultFatal}},
		}},
		{Prompt: "one two three four", Options: chunkstream.Options{
			RetryBackoff: time.Millisecond,
			Faults:       []chunkstream.FaultRule{{At: 2, Kind: chunkstream.FaultTransient}},
		}},
		{Prompt: "x", Options: chunkstream.Options{MaxChunks: -1}},
	}

	for _, async := range []bool{false, true} {
		name := "sync"
		if async {
			name = "async"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := newClient().CollectEach(context.Background(), reqs, async)
			require.Len(t, got, 3)

			assert.Equal(t, chunkstream.StatusFailed, got[0].Status)
			assert.ErrorIs(t, got[0].Err, chunkstream.ErrFatalFault)
			assert.Empty(t, got[0].Text)

			require.NoError(t, got[1].Err)
			assert.Equal(t, chunkstream.StatusCompleted, got[1].Status)
			assert.Equal(t, "one two three four", got[1].Text)

			assert.ErrorIs(t, got[2].Err, chunkstream.ErrValidation)
			assert.Equal(t, chunkstream.StatusIdle, got[2].Status)
		})
	}
}
