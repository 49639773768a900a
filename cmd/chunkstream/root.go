package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/chunkstream"
	"github.com/fwojciec/chunkstream/client"
	"github.com/fwojciec/chunkstream/fixture"
	csjson "github.com/fwojciec/chunkstream/json"
	chunkprom "github.com/fwojciec/chunkstream/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds the flags and wiring shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	logLevel     string
	optionsPath  string
	optionsJSON  string
	fixturesDir  string
	fixturesGlob string
	script       string
	metricsAddr  string

	log     *logrus.Logger
	reg     *prometheus.Registry
	metrics *http.Server
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "chunkstream",
		Short:         "Simulated streaming responses with pacing, faults and cancellation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level: trace, debug, info, warn, error")
	f.StringVar(&a.optionsPath, "options", "", "Path to a JSON options file")
	f.StringVar(&a.optionsJSON, "options-json", "", "Inline JSON options (applied after --options)")
	f.StringVar(&a.fixturesDir, "fixtures-dir", ".", "Base directory for --fixtures")
	f.StringVar(&a.fixturesGlob, "fixtures", "", "Glob of YAML request fixtures (supports **)")
	f.StringVar(&a.script, "script", "", "Respond with this text instead of echoing the prompt")
	f.StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddCommand(newStreamCmd(a), newCollectCmd(a), newWatchCmd(a))
	return root
}

func (a *app) setup() error {
	a.log = newLogger(a.stderr, a.logLevel)
	a.reg = prometheus.NewRegistry()
	if a.metricsAddr == "" {
		return nil
	}
	a.metrics = &http.Server{
		Addr:              a.metricsAddr,
		Handler:           promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server stopped")
		}
	}()
	a.log.WithField("addr", a.metricsAddr).Info("serving metrics")
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}

func (a *app) client() *client.Client {
	opts := []client.Option{
		client.WithLogger(a.log),
		client.WithObserver(chunkprom.NewObserver(a.reg)),
	}
	if a.script != "" {
		opts = append(opts, client.WithResponder(chunkstream.ScriptResponder{Text: a.script}))
	}
	return client.New(opts...)
}

// options merges the options file and inline JSON. Inline fields override
// the file's.
func (a *app) options() (chunkstream.Options, error) {
	var dto csjson.OptionsDTO
	if a.optionsPath != "" {
		data, err := os.ReadFile(a.optionsPath)
		if err != nil {
			return chunkstream.Options{}, fmt.Errorf("read options: %w", err)
		}
		if err := csjson.MergeOptions(&dto, data); err != nil {
			return chunkstream.Options{}, fmt.Errorf("%s: %w", a.optionsPath, err)
		}
	}
	if a.optionsJSON != "" {
		if err := csjson.MergeOptions(&dto, []byte(a.optionsJSON)); err != nil {
			return chunkstream.Options{}, fmt.Errorf("--options-json: %w", err)
		}
	}
	return dto.Options()
}

// requests returns the fixtures when --fixtures is set, otherwise a single
// request for the prompt formed by args.
func (a *app) requests(args []string) ([]fixture.Fixture, error) {
	if a.fixturesGlob != "" {
		fs, err := fixture.LoadDir(a.fixturesDir, a.fixturesGlob)
		if err != nil {
			return nil, err
		}
		if len(fs) == 0 {
			return nil, fmt.Errorf("no fixtures match %q in %s", a.fixturesGlob, a.fixturesDir)
		}
		return fs, nil
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	req := chunkstream.Request{Prompt: strings.Join(args, " "), Options: opts}
	return []fixture.Fixture{{Name: "prompt", Request: req}}, nil
}
