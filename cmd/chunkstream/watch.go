package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/chunkstream"
	bt "github.com/fwojciec/chunkstream/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Type prompts and watch their responses stream in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.options()
			if err != nil {
				return err
			}
			// The TUI owns the terminal.
			a.log.SetOutput(io.Discard)
			c := a.client()
			start := func(ctx context.Context, prompt string) (bt.Stream, error) {
				s, err := c.Stream(ctx, chunkstream.Request{Prompt: prompt, Options: opts})
				if err != nil {
					return nil, err
				}
				return s, nil
			}
			if err := bt.Run(cmd.Context(), bt.New(start, chunkstream.DefaultTheme())); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return nil
		},
	}
}
