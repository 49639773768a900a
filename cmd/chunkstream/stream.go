package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/client"
	csjson "github.com/fwojciec/chunkstream/json"
	"github.com/spf13/cobra"
)

const (
	deliverySync  = "sync"
	deliveryAsync = "async"
)

func validateDelivery(d string) error {
	if d != deliverySync && d != deliveryAsync {
		return fmt.Errorf("unknown delivery %q (want %s or %s)", d, deliverySync, deliveryAsync)
	}
	return nil
}

func newStreamCmd(a *app) *cobra.Command {
	var (
		delivery    string
		cancelAfter int
	)
	cmd := &cobra.Command{
		Use:   "stream [prompt...]",
		Short: "Stream chunks as newline-delimited JSON",
		Long: `Stream prints one JSON line per delivered chunk followed by a summary
line with the stream's terminal status. With --fixtures every fixture is
streamed in turn.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDelivery(delivery); err != nil {
				return err
			}
			fixtures, err := a.requests(args)
			if err != nil {
				return err
			}
			c := a.client()
			w := csjson.NewWriter(a.stdout)
			var errs []error
			for _, f := range fixtures {
				s, err := c.Stream(cmd.Context(), f.Request)
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				if err := writeStream(w, s, delivery, cancelAfter); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&delivery, "delivery", deliverySync, "Delivery path: sync or async")
	cmd.Flags().IntVar(&cancelAfter, "cancel-after", 0, "Cancel the stream after this many chunks (0 = never)")
	return cmd
}

// writeStream drains s into w. A stream error is reported in the summary
// line and returned. A write error cancels the stream, which is still
// drained, and is returned.
func writeStream(w *csjson.Writer, s *client.Stream, delivery string, cancelAfter int) error {
	var (
		n         int
		streamErr error
		writeErr  error
	)
	handle := func(c chunkstream.Chunk, err error) {
		switch {
		case err != nil:
			streamErr = err
		case writeErr != nil:
		default:
			if writeErr = w.WriteChunk(s.ID(), c); writeErr != nil {
				s.Cancel()
				return
			}
			n++
			if cancelAfter > 0 && n == cancelAfter {
				s.Cancel()
			}
		}
	}

	if delivery == deliveryAsync {
		for r := range s.Async() {
			handle(r.Chunk, r.Err)
		}
	} else {
		for c, err := range s.Chunks() {
			handle(c, err)
		}
	}
	if writeErr != nil {
		return writeErr
	}
	if err := w.WriteSummary(s.Snapshot()); err != nil {
		return err
	}
	return streamErr
}
