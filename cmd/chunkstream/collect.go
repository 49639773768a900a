package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/chunkstream/client"
	"github.com/fwojciec/chunkstream/fixture"
	"github.com/spf13/cobra"
)

func newCollectCmd(a *app) *cobra.Command {
	var (
		delivery string
		check    bool
	)
	cmd := &cobra.Command{
		Use:   "collect [prompt...]",
		Short: "Collect a stream and print its full text",
		Long: `Collect drives a stream to its end and prints the concatenated chunk
payloads. With --fixtures all fixtures are collected concurrently and
independently and printed in order; --check compares each fixture's text
and terminal status with its expectation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDelivery(delivery); err != nil {
				return err
			}
			fixtures, err := a.requests(args)
			if err != nil {
				return err
			}
			c := a.client()
			if len(fixtures) == 1 && a.fixturesGlob == "" {
				text, err := collectOne(cmd, c, fixtures[0], delivery)
				fmt.Fprintln(a.stdout, text)
				return err
			}

			results := c.CollectEach(cmd.Context(), fixture.Requests(fixtures), delivery == deliveryAsync)
			for i, f := range fixtures {
				fmt.Fprintf(a.stdout, "== %s ==\n%s\n", f.Name, results[i].Text)
			}
			if check {
				return checkExpectations(fixtures, results)
			}
			var errs []error
			for i, r := range results {
				if r.Err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", fixtures[i].Name, r.Err))
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&delivery, "delivery", deliverySync, "Delivery path: sync or async")
	cmd.Flags().BoolVar(&check, "check", false, "Compare collected text with fixture expectations")
	return cmd
}

func collectOne(cmd *cobra.Command, c *client.Client, f fixture.Fixture, delivery string) (string, error) {
	if delivery == deliveryAsync {
		r := <-c.CollectAsync(cmd.Context(), f.Request)
		return r.Text, r.Err
	}
	return c.Collect(cmd.Context(), f.Request)
}

// checkExpectations reports every fixture whose text or status differs from
// its expectation. A stream error is a failure only when the fixture does
// not expect that status.
func checkExpectations(fixtures []fixture.Fixture, results []client.CollectResult) error {
	var errs []error
	for i, f := range fixtures {
		r := results[i]
		if f.Expect == nil {
			if r.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.Name, r.Err))
			}
			continue
		}
		if r.Text != f.Expect.Text {
			errs = append(errs, fmt.Errorf("%s: got %q, want %q", f.Name, r.Text, f.Expect.Text))
		}
		switch {
		case f.Expect.Status != "":
			if got := r.Status.String(); got != f.Expect.Status {
				errs = append(errs, fmt.Errorf("%s: status %s, want %s (err: %v)", f.Name, got, f.Expect.Status, r.Err))
			}
		case r.Err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
