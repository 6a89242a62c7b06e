// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// The darkmode command inspects and demonstrates Win32 dark mode support.
package main

//go:generate go run ../mkresources -dir . -name darkmode

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/tailscale/darkmode/types/logger"
)

var Stderr io.Writer = os.Stderr
var Stdout io.Writer = os.Stdout

func printf(format string, a ...any) {
	fmt.Fprintf(Stdout, format, a...)
}

func outln(a ...any) {
	fmt.Fprintln(Stdout, a...)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(Stderr)
	return fs
}

// stderrLogf returns a Logf writing timestamped lines to Stderr.
func stderrLogf() logger.Logf {
	return log.New(Stderr, "", log.LstdFlags).Printf
}

func newRootCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "darkmode",
		ShortUsage: "darkmode <subcommand> [command flags]",
		ShortHelp:  "Inspect Win32 dark mode support.",
		LongHelp: strings.TrimSpace(`
For help on subcommands, add --help after: "darkmode status --help".

Set TS_DEBUG_DARKMODE_VERBOSE=1 for more logging from the library.
`),
		Subcommands: []*ffcli.Command{
			statusCmd(),
			delayImportsCmd(),
			demoCmd(),
		},
		FlagSet: newFlagSet("darkmode"),
		Exec:    func(context.Context, []string) error { return flag.ErrHelp },
	}
}

// run parses and runs args, not including the program name.
func run(ctx context.Context, args []string) error {
	err := newRootCmd().ParseAndRun(ctx, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(Stderr, "darkmode: %v\n", err)
		os.Exit(1)
	}
}
