// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/tailscale/darkmode/internal/delayload"
	"github.com/tailscale/darkmode/internal/peimage"
	"github.com/tailscale/darkmode/types/logger"
)

func delayImportsCmd() *ffcli.Command {
	da := new(delayImportsArgs)
	return &ffcli.Command{
		Name:       "delayimports",
		ShortUsage: "darkmode delayimports [-dll name | -file path] [-filter dll]",
		ShortHelp:  "List the delay-load imports of a DLL",
		LongHelp: strings.TrimSpace(`
"darkmode delayimports" prints the delay-load import table of a DLL loaded
into this process from the system directory (-dll, Windows only) or of a PE
file on disk (-file). The default is the loaded comctl32.dll, whose uxtheme
import #49 (OpenNcThemeData) is the slot patched to theme scroll bars.
`),
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("delayimports")
			fs.StringVar(&da.dll, "dll", "comctl32.dll", "name of a system DLL to load and inspect")
			fs.StringVar(&da.file, "file", "", "path of a PE file to inspect instead of a loaded DLL")
			fs.StringVar(&da.filter, "filter", "", "only list imports from this DLL (case-insensitive)")
			fs.BoolVar(&da.verbose, "v", false, "log PE parser diagnostics for -file to stderr")
			return fs
		})(),
		Exec: da.run,
	}
}

// delayImportsArgs are the flags of one "darkmode delayimports" invocation.
type delayImportsArgs struct {
	dll     string
	file    string
	filter  string
	verbose bool
}

func (da *delayImportsArgs) run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("too many non-flag arguments: %q", args)
	}

	var (
		img *peimage.Image
		err error
	)
	if da.file != "" {
		logf := logger.Discard
		if da.verbose {
			logf = stderrLogf()
		}
		img, err = mapFile(da.file, logf)
	} else {
		img, err = loadDLL(da.dll)
	}
	if err != nil {
		return err
	}
	defer img.Close()

	return printDelayImports(Stdout, img, da.filter)
}

func mapFile(name string, logf logger.Logf) (*peimage.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := peimage.Map(f, logf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

func printDelayImports(w io.Writer, img *peimage.Image, filter string) error {
	ds, err := delayload.Descriptors(img)
	if err != nil {
		return err
	}
	if len(ds) == 0 {
		fmt.Fprintln(w, "no delay-load imports")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "DLL\tIMPORT\tSLOT RVA\tVALUE\n")
	var errs []error
	for _, d := range ds {
		if filter != "" && !strings.EqualFold(d.DLL, filter) {
			continue
		}
		imps, err := delayload.Imports(img, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, imp := range imps {
			name := imp.Name
			if imp.ByOrdinal {
				name = fmt.Sprintf("#%d", imp.Ordinal)
			}
			v, err := imp.Thunk.Value()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%#x\t%#x\n", d.DLL, name, imp.Thunk.RVA(), v)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
