// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

import "github.com/tailscale/darkmode/envknob"

const (
	knobDisable        = "TS_DEBUG_DARKMODE_DISABLE"
	knobNoScrollBarFix = "TS_DEBUG_DARKMODE_NO_SCROLLBAR_FIX"
	knobVerbose        = "TS_DEBUG_DARKMODE_VERBOSE"
)

var (
	// disabled makes every Theme unsupported, as if on an unknown build.
	disabled = envknob.RegisterBool(knobDisable)
	// noScrollBarFix leaves comctl32's scroll bar theming alone.
	noScrollBarFix = envknob.RegisterBool(knobNoScrollBarFix)
	verbose        = envknob.RegisterBool(knobVerbose)
)
