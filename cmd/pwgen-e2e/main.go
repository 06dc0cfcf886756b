// Package main provides the pwgen-e2e command: it runs the password
// generator scenarios against a live or fixture page and writes reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// errNotPassed signals a completed run in which some scenario did not pass.
var errNotPassed = errors.New("not every scenario passed")

var rootCmd = &cobra.Command{
	Use:   "pwgen-e2e",
	Short: "End-to-end checks for a web password generator",
	Long: `pwgen-e2e drives a real browser against a password generator page and
checks length handling, character class options, the length slider, the
generate button and the copy controls.

Configuration is read from an optional YAML file, then PWGEN_* environment
variables, then command-line flags.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	switch {
	case err == nil:
	case errors.Is(err, errNotPassed):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
