package segment_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloads(chunks []chunkstream.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Payload
	}
	return out
}

func TestSegmenter_Segment(t *testing.T) {
	t.Parallel()

	t.Run("empty input yields one empty final chunk", func(t *testing.T) {
		t.Parallel()
		for _, s := range []chunkstream.Strategy{
			chunkstream.StrategyWord,
			chunkstream.StrategyFixed,
			chunkstream.StrategySentence,
			chunkstream.StrategyRandom,
		} {
			got := segment.Segmenter{}.Segment("", chunkstream.Options{Strategy: s})
			assert.Equal(t, []chunkstream.Chunk{{Sequence: 0, Payload: "", Final: true}}, got, s.String())
		}
	})

	t.Run("only the last chunk is final", func(t *testing.T) {
		t.Parallel()
		got := segment.Segmenter{}.Segment("one two three", chunkstream.Options{})
		require.Len(t, got, 3)
		for i, c := range got {
			assert.Equal(t, i, c.Sequence)
			assert.Equal(t, i == len(got)-1, c.Final)
		}
	})

	t.Run("word strategy is the default", func(t *testing.T) {
		t.Parallel()
		got := segment.Segmenter{}.Segment("Hello, world!", chunkstream.Options{})
		assert.Equal(t, []string{"Hello, ", "world!"}, payloads(got))
	})

	t.Run("fixed strategy uses chunk size hint", func(t *testing.T) {
		t.Parallel()
		got := segment.Segmenter{}.Segment("abcdefg", chunkstream.Options{
			Strategy:      chunkstream.StrategyFixed,
			ChunkSizeHint: 3,
		})
		assert.Equal(t, []string{"abc", "def", "g"}, payloads(got))
	})

	t.Run("fixed strategy defaults hint to 16", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("x", 40)
		got := segment.Segmenter{}.Segment(text, chunkstream.Options{Strategy: chunkstream.StrategyFixed})
		assert.Equal(t, []string{strings.Repeat("x", 16), strings.Repeat("x", 16), strings.Repeat("x", 8)}, payloads(got))
	})

	t.Run("sentence strategy", func(t *testing.T) {
		t.Parallel()
		got := segment.Segmenter{}.Segment("Why did it? It did. Done", chunkstream.Options{
			Strategy: chunkstream.StrategySentence,
		})
		assert.Equal(t, []string{"Why did it? ", "It did. ", "Done"}, payloads(got))
	})

	t.Run("random strategy is deterministic per seed", func(t *testing.T) {
		t.Parallel()
		text := "The quick brown fox jumps over the lazy dog and keeps on running."
		opts := chunkstream.Options{Strategy: chunkstream.StrategyRandom, ChunkSizeHint: 4, Seed: 42}
		a := segment.Segmenter{}.Segment(text, opts)
		b := segment.Segmenter{}.Segment(text, opts)
		assert.Equal(t, a, b)
		assert.Equal(t, text, chunkstream.Concat(a))
		for _, c := range a {
			n := len([]rune(c.Payload))
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, 8)
		}
	})
}

func TestWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single word", "hello", []string{"hello"}},
		{"whitespace attaches to preceding word", "This is a test", []string{"This ", "is ", "a ", "test"}},
		{"leading whitespace joins first word", "  hi there", []string{"  hi ", "there"}},
		{"trailing whitespace kept", "hi  ", []string{"hi  "}},
		{"punctuation stays with word", "Hello async world!", []string{"Hello ", "async ", "world!"}},
		{"whitespace only", "   ", []string{"   "}},
		{"newlines separate words", "a\nb", []string{"a\n", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := segment.Words(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, strings.Join(got, ""))
		})
	}
}

func TestWindows(t *testing.T) {
	t.Parallel()

	t.Run("grapheme clusters are never split", func(t *testing.T) {
		t.Parallel()
		// Each flag is two regional indicator runes forming one cluster.
		got := segment.Windows("🇩🇪🇫🇷🇯🇵", 2)
		assert.Equal(t, []string{"🇩🇪🇫🇷", "🇯🇵"}, got)
	})

	t.Run("non-positive size behaves as one", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"a", "b"}, segment.Windows("ab", 0))
	})
}
