package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chunkstream"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type renderer struct {
	width  int
	strong lipgloss.Style
	em     lipgloss.Style
	code   lipgloss.Style
	head   lipgloss.Style
	muted  lipgloss.Style
	link   lipgloss.Style
}

func newRenderer(theme chunkstream.Theme, width int) *renderer {
	return &renderer{
		width:  width,
		strong: lipgloss.NewStyle().Bold(true),
		em:     lipgloss.NewStyle().Italic(true),
		code:   lipgloss.NewStyle().Foreground(color(theme.Accent)),
		head:   lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
		link:   lipgloss.NewStyle().Underline(true),
	}
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, r.block(n, source, r.width)...)
	}
	return strings.Join(blocks, "\n\n")
}

// block renders one block node to zero or more paragraphs of output.
func (r *renderer) block(n ast.Node, source []byte, width int) []string {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []string{wrap(r.inline(n, source), width)}
	case *ast.Heading:
		return []string{wrap(r.head.Render(r.inline(n, source)), width)}
	case *ast.FencedCodeBlock:
		var out []string
		if lang := string(n.Language(source)); lang != "" {
			out = append(out, r.muted.Render(lang))
		}
		out = append(out, r.codeLines(n, source)...)
		return []string{strings.Join(out, "\n")}
	case *ast.CodeBlock:
		return []string{strings.Join(r.codeLines(n, source), "\n")}
	case *ast.List:
		return []string{strings.Join(r.list(n, source, width), "\n")}
	case *ast.Blockquote:
		bar := r.muted.Render("┃") + " "
		var inner []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			inner = append(inner, r.block(c, source, max(width-2, 10))...)
		}
		return []string{prefixLines(strings.Join(inner, "\n\n"), bar, bar)}
	case *ast.ThematicBreak:
		return []string{r.muted.Render(strings.Repeat("─", min(width, defaultWidth)))}
	case *ast.HTMLBlock:
		var b strings.Builder
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		return []string{strings.TrimRight(b.String(), "\n")}
	default:
		var out []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, r.block(c, source, width)...)
		}
		return out
	}
}

func (r *renderer) codeLines(n ast.Node, source []byte) []string {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := range lines.Len() {
		seg := lines.At(i)
		out = append(out, gutter+strings.TrimRight(string(seg.Value(source)), "\n"))
	}
	return out
}

func (r *renderer) list(n *ast.List, source []byte, width int) []string {
	var out []string
	num := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat(" ", len([]rune(marker)))
		var body []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			body = append(body, r.block(c, source, max(width-len(indent), 10))...)
		}
		out = append(out, prefixLines(strings.Join(body, "\n"), marker, indent))
	}
	return out
}

func (r *renderer) inline(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c, source)
	}
	return b.String()
}

func (r *renderer) writeInline(b *strings.Builder, n ast.Node, source []byte) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		style := r.em
		if n.Level >= 2 {
			style = r.strong
		}
		b.WriteString(style.Render(r.inline(n, source)))
	case *ast.CodeSpan:
		b.WriteString(r.code.Render(r.inline(n, source)))
	case *ast.Link:
		b.WriteString(r.link.Render(r.inline(n, source)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(r.link.Render(string(n.URL(source))))
	case *ast.Image:
		b.WriteString(r.muted.Render("[image: " + r.inline(n, source) + "]"))
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(source))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.writeInline(b, c, source)
		}
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// prefixLines prefixes the first line of s with first and every other line
// with rest.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = first + line
		} else {
			lines[i] = rest + line
		}
	}
	return strings.Join(lines, "\n")
}
