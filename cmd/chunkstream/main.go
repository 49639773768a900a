// Command chunkstream runs simulated streaming responses from the terminal.
//
// Usage:
//
//	chunkstream stream [flags] [prompt...]   print chunks as NDJSON
//	chunkstream collect [flags] [prompt...]  print the collected text
//	chunkstream watch [flags]                interactive viewer
//
// Options are read from --options (JSON file) or --options-json. Requests
// can also be loaded from YAML fixtures with --fixtures. Variables in a
// .env file in the working directory are loaded into the environment;
// LOG_LEVEL selects the log level.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "chunkstream: %v\n", err)
		os.Exit(1)
	}
}
