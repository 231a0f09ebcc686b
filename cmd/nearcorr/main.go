// Package main provides the nearcorr command-line tool.
package main

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/katalvlaran/nearcorr"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitExhausted = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command tree and maps the outcome to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, nearcorr.ErrExceededIterations):
		log.Error().Err(err).Msg("Iteration budget exhausted")
		return exitExhausted
	default:
		log.Error().Err(err).Msg("nearcorr failed")
		return exitError
	}
}
