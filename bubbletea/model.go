package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/goldmark"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// turn is one prompt and the response streamed for it.
type turn struct {
	prompt  string
	text    string
	chunks  int
	retries int
	status  chunkstream.Status
	err     error
}

// Model is the Bubble Tea model for the stream viewer.
type Model struct {
	// Input is the prompt input. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	start   StartFunc
	theme   chunkstream.Theme
	styles  Styles
	spinner spinner.Model

	turns      []turn
	stream     Stream
	running    bool
	cancelling bool
	err        error
	width      int
	ready      bool
}

// New creates a new TUI Model that starts streams with start.
func New(start StartFunc, theme chunkstream.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a prompt..."
	ti.Prompt = "› "
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent))

	return Model{
		Input:   ti,
		start:   start,
		theme:   theme,
		styles:  styles,
		spinner: sp,
	}
}

// Running returns whether a stream is in flight.
func (m Model) Running() bool { return m.running }

// Err returns the error that ended the last stream, if any.
func (m Model) Err() error { return m.err }

// Transcript returns the text streamed for each prompt so far.
func (m Model) Transcript() []string {
	out := make([]string, len(m.turns))
	for i, t := range m.turns {
		out[i] = t.text
	}
	return out
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StartedMsg:
		if msg.Err != nil {
			m = m.finish(chunkstream.StatusFailed, msg.Err)
			return m, m.Input.Focus()
		}
		m.stream = msg.Stream
		return m, nextChunk(m.stream)

	case ChunkMsg:
		return m.handleChunk(msg.Result)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const inputHeight, statusHeight, gaps = 1, 1, 2
	vpHeight := max(msg.Height-inputHeight-statusHeight-gaps, 1)

	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	m.Viewport.SetContent(m.renderContent())
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.stream != nil && !m.cancelling {
				m.stream.Cancel()
				m.cancelling = true
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		prompt := strings.TrimSpace(m.Input.Value())
		if prompt == "" {
			return m, nil
		}
		return m.submit(prompt)
	}

	if m.running {
		return m, nil
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(prompt string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.err = nil
	m.running = true
	m.cancelling = false
	m.turns = append(m.turns, turn{prompt: prompt, status: chunkstream.StatusRunning})
	m = m.refresh()
	return m, tea.Batch(startStream(m.start, prompt), m.spinner.Tick)
}

func (m Model) handleChunk(r chunkstream.Result) (tea.Model, tea.Cmd) {
	if m.stream == nil {
		return m, nil
	}
	snap := m.stream.Snapshot()
	switch {
	case r.Err == nil:
		t := &m.turns[len(m.turns)-1]
		t.text += r.Chunk.Payload
		t.chunks++
		t.retries = snap.Retries
		if r.Chunk.Final {
			m = m.finish(chunkstream.StatusCompleted, nil)
			return m, m.Input.Focus()
		}
		m = m.refresh()
		return m, nextChunk(m.stream)
	case errors.Is(r.Err, io.EOF):
		m = m.finish(m.stream.Status(), nil)
	default:
		m.turns[len(m.turns)-1].retries = snap.Retries
		m = m.finish(chunkstream.StatusFailed, r.Err)
	}
	return m, m.Input.Focus()
}

func (m Model) finish(status chunkstream.Status, err error) Model {
	if len(m.turns) > 0 {
		t := &m.turns[len(m.turns)-1]
		t.status = status
		t.err = err
	}
	m.err = err
	m.running = false
	m.cancelling = false
	m.stream = nil
	return m.refresh()
}

func (m Model) refresh() Model {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	width := max(m.Viewport.Width, 1)
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.styles.Prompt.Render("› " + t.prompt))
		b.WriteString("\n")
		if t.status.Terminal() {
			b.WriteString(goldmark.Render(t.text, width, m.theme))
		} else {
			b.WriteString(goldmark.RenderPartial(t.text, width, m.theme))
		}
		if footer := m.footer(t); footer != "" {
			b.WriteString("\n")
			b.WriteString(footer)
		}
	}
	return b.String()
}

func (m Model) footer(t turn) string {
	var line string
	switch t.status {
	case chunkstream.StatusCompleted:
		line = fmt.Sprintf("✓ completed · %d chunks · %d retries", t.chunks, t.retries)
	case chunkstream.StatusCancelled:
		line = fmt.Sprintf("⊘ cancelled after %d chunks", t.chunks)
	case chunkstream.StatusFailed:
		line = fmt.Sprintf("✗ %v", t.err)
	default:
		return ""
	}
	return m.styles.ForStatus(t.status).Render(m.truncate(line))
}

func (m Model) statusLine() string {
	if m.running {
		t := m.turns[len(m.turns)-1]
		line := fmt.Sprintf("streaming · chunk %d · %d retries · Ctrl+C to cancel", t.chunks, t.retries)
		if m.cancelling {
			line = "cancelling..."
		}
		return m.spinner.View() + " " + m.styles.Muted.Render(m.truncate(line))
	}
	if m.err != nil {
		return m.styles.Error.Render(m.truncate(fmt.Sprintf("Error: %v", m.err)))
	}
	return m.styles.Muted.Render(m.truncate("Enter to stream, Ctrl+C to quit"))
}

func (m Model) truncate(s string) string {
	if m.width <= 2 {
		return s
	}
	return runewidth.Truncate(s, m.width-2, "…")
}

// startStream starts a stream off the update loop.
func startStream(start StartFunc, prompt string) tea.Cmd {
	return func() tea.Msg {
		s, err := start(context.Background(), prompt)
		if err != nil {
			return StartedMsg{Err: err}
		}
		return StartedMsg{Stream: s}
	}
}

// nextChunk waits for the next asynchronous step of s.
func nextChunk(s Stream) tea.Cmd {
	return func() tea.Msg {
		return ChunkMsg{Result: <-s.NextAsync()}
	}
}
