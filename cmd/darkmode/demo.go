// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"flag"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func demoCmd() *ffcli.Command {
	da := new(demoArgs)
	return &ffcli.Command{
		Name:       "demo",
		ShortUsage: "darkmode demo [-theme system|light|dark]",
		ShortHelp:  "Open a window themed by the library",
		LongHelp: strings.TrimSpace(`
"darkmode demo" opens a top-level window with a vertical scroll bar and applies
dark mode to it. Change "Choose your default app mode" in Settings while it
runs to watch the window follow the system theme. Windows only.
`),
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("demo")
			fs.StringVar(&da.theme, "theme", "system", `theme to apply: "system", "light" or "dark"`)
			return fs
		})(),
		Exec: da.run,
	}
}

type demoArgs struct {
	theme string
}
