// Package bubbletea provides a Bubble Tea TUI that renders a chunk stream as
// it arrives and lets the user cancel it mid-flight.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chunkstream"
)

// Stream is the stream surface the TUI drives. It is consumed over the
// asynchronous path only.
type Stream interface {
	chunkstream.Stream
	Cancel()
}

// StartFunc starts a stream for a prompt entered by the user.
type StartFunc func(ctx context.Context, prompt string) (Stream, error)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StartedMsg reports the outcome of starting a stream.
type StartedMsg struct {
	Stream Stream
	Err    error
}

// ChunkMsg carries the result of one asynchronous step.
type ChunkMsg struct {
	Result chunkstream.Result
}
