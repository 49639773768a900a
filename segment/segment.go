// Package segment splits a complete response into ordered chunks using
// Unicode text segmentation from uniseg.
package segment

import (
	"math/rand/v2"
	"unicode"

	"github.com/fwojciec/chunkstream"
	"github.com/rivo/uniseg"
)

// Interface compliance check.
var _ chunkstream.Segmenter = Segmenter{}

// Segmenter is the default chunkstream.Segmenter. It is stateless; the same
// text and options always produce the same chunks.
type Segmenter struct{}

// Segment splits text according to opts.Strategy. The last chunk is always
// Final, and empty text yields exactly one empty final chunk.
func (Segmenter) Segment(text string, opts chunkstream.Options) []chunkstream.Chunk {
	opts = opts.WithDefaults()
	var parts []string
	switch opts.Strategy {
	case chunkstream.StrategyFixed:
		parts = Windows(text, opts.ChunkSizeHint)
	case chunkstream.StrategySentence:
		parts = Sentences(text)
	case chunkstream.StrategyRandom:
		parts = RandomWindows(text, opts.ChunkSizeHint, opts.Seed)
	default:
		parts = Words(text)
	}
	return toChunks(parts)
}

func toChunks(parts []string) []chunkstream.Chunk {
	if len(parts) == 0 {
		return []chunkstream.Chunk{{Sequence: 0, Payload: "", Final: true}}
	}
	chunks := make([]chunkstream.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = chunkstream.Chunk{Sequence: i, Payload: p}
	}
	chunks[len(chunks)-1].Final = true
	return chunks
}

// Words splits text at word boundaries. Whitespace and punctuation that
// follow a word stay attached to it, so "Hello, world!" becomes
// ["Hello, ", "world!"]. Concatenating the result reproduces text.
func Words(text string) []string {
	var (
		parts   []string
		start   int
		pos     int
		sawWord bool
		sawGap  bool
		word    string
		state   = -1
	)
	rest := text
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if isSpace(word) {
			sawGap = true
		} else {
			if sawGap && sawWord {
				parts = append(parts, text[start:pos])
				start = pos
			}
			sawWord = true
			sawGap = false
		}
		pos += len(word)
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}

// Sentences splits text at sentence boundaries. Trailing whitespace belongs
// to the sentence it follows.
func Sentences(text string) []string {
	var (
		parts    []string
		sentence string
		state    = -1
	)
	rest := text
	for len(rest) > 0 {
		sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
		parts = append(parts, sentence)
	}
	return parts
}

// Windows splits text into runs of size grapheme clusters. The last window
// may be shorter. A non-positive size is treated as 1.
func Windows(text string, size int) []string {
	size = max(size, 1)
	return window(text, func() int { return size })
}

// RandomWindows splits text into runs of between 1 and 2*size grapheme
// clusters. Window lengths come from a PCG generator seeded with seed.
func RandomWindows(text string, size int, seed int64) []string {
	size = max(size, 1)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(size)))
	return window(text, func() int { return 1 + rng.IntN(2*size) })
}

func window(text string, next func() int) []string {
	var (
		parts   []string
		cluster string
		state   = -1
		start   int
		pos     int
		n       int
	)
	limit := next()
	rest := text
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		pos += len(cluster)
		n++
		if n == limit {
			parts = append(parts, text[start:pos])
			start = pos
			n = 0
			limit = next()
		}
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}

func isSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return s != ""
}
