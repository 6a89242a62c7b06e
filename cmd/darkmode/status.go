// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/tailscale/darkmode"
	"github.com/tailscale/darkmode/envknob"
	"github.com/tailscale/darkmode/types/logger"
	"gopkg.in/yaml.v3"
)

func statusCmd() *ffcli.Command {
	sa := new(statusArgs)
	return &ffcli.Command{
		Name:       "status",
		ShortUsage: "darkmode status [flags]",
		ShortHelp:  "Print whether dark mode is supported and enabled",
		LongHelp: `"darkmode status" resolves the undocumented theming functions the
same way an application using the library would, and reports the outcome
along with the operating system version and the user's app mode setting.`,
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("status")
			fs.StringVar(&sa.format, "format", "text", `output format: "text", "json" or "yaml"`)
			fs.BoolVar(&sa.verbose, "v", false, "log library diagnostics and set debug knobs to stderr")
			return fs
		})(),
		Exec: sa.run,
	}
}

// statusArgs are the flags of one "darkmode status" invocation.
type statusArgs struct {
	format  string
	verbose bool
}

// statusReport is darkmode.Status plus context from outside the library.
type statusReport struct {
	darkmode.Status `json:",inline" yaml:",inline"`

	OS                string            `json:"os,omitempty" yaml:"os,omitempty"`
	AppsUseLightTheme *bool             `json:"appsUseLightTheme,omitempty" yaml:"appsUseLightTheme,omitempty"`
	Knobs             map[string]string `json:"knobs,omitempty" yaml:"knobs,omitempty"`
}

func (sa *statusArgs) run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("too many non-flag arguments: %q", args)
	}
	logf := logger.Discard
	if sa.verbose {
		logf = stderrLogf()
	}

	r := statusReport{Status: darkmode.New(logf).Status()}
	r.OS, r.AppsUseLightTheme = osInfo(logf)
	r.Knobs = envknob.Current()
	if sa.verbose {
		envknob.LogCurrent(logf)
	}
	return printStatus(Stdout, sa.format, r)
}

func printStatus(w io.Writer, format string, r statusReport) error {
	switch format {
	case "json":
		b, err := jsonv2.Marshal(r, jsontext.WithIndent("\t"), jsonv2.Deterministic(true))
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	case "yaml":
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(r); err != nil {
			return err
		}
		return e.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if r.OS != "" {
		fmt.Fprintf(tw, "OS:\t%s\n", r.OS)
	}
	fmt.Fprintf(tw, "Kernel version:\t%s\n", r.Version)
	fmt.Fprintf(tw, "State:\t%v\n", r.State)
	fmt.Fprintf(tw, "Supported:\t%v\n", r.Supported)
	fmt.Fprintf(tw, "Enabled:\t%v\n", r.Enabled)
	fmt.Fprintf(tw, "High contrast:\t%v\n", r.HighContrast)
	if r.AppsUseLightTheme != nil {
		fmt.Fprintf(tw, "AppsUseLightTheme:\t%v\n", *r.AppsUseLightTheme)
	}
	fmt.Fprintf(tw, "App mode:\t%s\n", r.AppMode)
	fmt.Fprintf(tw, "Title bar:\t%s\n", r.TitleBar)
	fmt.Fprintf(tw, "Scroll bar fix:\t%s\n", r.ScrollBarFix)
	fmt.Fprintf(tw, "\nFUNCTION\tRESOLVED\tREQUIRED\n")
	for _, f := range r.Functions {
		fmt.Fprintf(tw, "%s\t%v\t%v\n", f.Name, f.Resolved, f.Required)
	}
	if len(r.Knobs) > 0 {
		fmt.Fprintf(tw, "\nKNOB\tVALUE\n")
		for _, k := range slices.Sorted(maps.Keys(r.Knobs)) {
			fmt.Fprintf(tw, "%s\t%s\n", k, r.Knobs[k])
		}
	}
	return tw.Flush()
}
