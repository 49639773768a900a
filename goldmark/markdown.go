// Package goldmark renders streamed markdown to ANSI-styled terminal output.
// Text arriving in chunks is split into a stable prefix of complete blocks,
// which is parsed with goldmark, and a tail that is still growing and is
// shown verbatim.
package goldmark

import (
	"strings"

	"github.com/fwojciec/chunkstream"
)

const defaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output
// wrapped to width.
func Render(source string, width int, theme chunkstream.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	return newRenderer(theme, width).render([]byte(source))
}

// RenderPartial renders text that may still be growing. Complete blocks are
// rendered as markdown; the trailing incomplete block is appended as plain
// text so partial syntax never flickers between styles.
func RenderPartial(text string, width int, theme chunkstream.Theme) string {
	stable, tail := SplitStable(text)
	out := Render(stable, width, theme)
	if tail == "" {
		return out
	}
	if out == "" {
		return tail
	}
	return out + "\n\n" + tail
}

// SplitStable splits text at the last blank line that is not inside a
// fenced code block. stable holds only complete blocks.
func SplitStable(text string) (stable, tail string) {
	cut := -1
	inFence := false
	offset := 0
	for line := range strings.SplitAfterSeq(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			inFence = !inFence
		case trimmed == "" && !inFence && strings.HasSuffix(line, "\n"):
			cut = offset + len(line)
		}
		offset += len(line)
	}
	if cut < 0 {
		return "", text
	}
	return strings.TrimRight(text[:cut], "\n"), text[cut:]
}
