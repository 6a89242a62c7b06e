// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

import (
	"fmt"
	"slices"
)

// DLLs the theming functions are resolved from.
const (
	dllUxTheme = "uxtheme.dll"
	dllDWMAPI  = "dwmapi.dll"
	dllUser32  = "user32.dll"
)

// Undocumented uxtheme.dll exports. They have no names, only ordinals.
const (
	ordOpenNcThemeData                      = 49
	ordRefreshImmersiveColorPolicyState     = 104
	ordGetIsImmersiveColorUsingHighContrast = 106
	ordShouldAppsUseDarkMode                = 132
	ordAllowDarkModeForWindow               = 133
	ordAppMode                              = 135 // see appModeToggle
	ordIsDarkModeAllowedForWindow           = 137
)

// Windows 10 builds.
const (
	build1809 = 17763
	build1903 = 18362
	build1909 = 18363
	build2004 = 19041
)

// supportedBuilds are the only builds whose ordinal exports are trusted.
// Later builds are treated as unsupported even if the ordinals still exist.
var supportedBuilds = []uint32{build1809, build1903, build1909, build2004}

// buildSupported reports whether the theming ordinals may be resolved on
// the given kernel version.
func buildSupported(major, minor, build uint32) bool {
	return major == 10 && minor == 0 && slices.Contains(supportedBuilds, build)
}

// immersiveHCCacheMode is the argument of GetIsImmersiveColorUsingHighContrast.
type immersiveHCCacheMode uintptr

const (
	ihcmUseCachedValue immersiveHCCacheMode = iota
	ihcmRefresh
)

// preferredAppMode is the argument and result of SetPreferredAppMode.
type preferredAppMode uintptr

const (
	appModeDefault preferredAppMode = iota
	appModeAllowDark
	appModeForceDark
	appModeForceLight
)

type appModeKind int

const (
	appModeNone appModeKind = iota
	// appModeAllowForApp is AllowDarkModeForApp(bool) bool, builds before 1903.
	appModeAllowForApp
	// appModeSetPreferred is SetPreferredAppMode(mode) mode, 1903 and later.
	appModeSetPreferred
)

func (k appModeKind) String() string {
	switch k {
	case appModeAllowForApp:
		return "AllowDarkModeForApp"
	case appModeSetPreferred:
		return "SetPreferredAppMode"
	}
	return "none"
}

// appModeToggle is uxtheme ordinal 135, whose signature changed in 1903
// without a change of ordinal. The kind is fixed when it is resolved.
type appModeToggle struct {
	kind appModeKind
	fn   uintptr
}

func newAppModeToggle(build uint32, fn uintptr) appModeToggle {
	switch {
	case fn == 0:
		return appModeToggle{}
	case build < build1903:
		return appModeToggle{appModeAllowForApp, fn}
	default:
		return appModeToggle{appModeSetPreferred, fn}
	}
}

// set allows or disallows dark mode for the whole process.
func (t appModeToggle) set(sys system, allow bool) {
	switch t.kind {
	case appModeAllowForApp:
		sys.call(t.fn, cBool(allow))
	case appModeSetPreferred:
		mode := appModeDefault
		if allow {
			mode = appModeAllowDark
		}
		sys.call(t.fn, uintptr(mode))
	}
}

// capabilities holds the resolved theming functions. A zero slot means the
// function is unavailable. It is filled in once and read-only after.
type capabilities struct {
	// Documented companions, resolved by name on every build.
	dwmGetWindowAttribute uintptr
	dwmSetWindowAttribute uintptr

	// Resolved only on supported builds.
	openNcThemeData                      uintptr
	refreshImmersiveColorPolicyState     uintptr
	getIsImmersiveColorUsingHighContrast uintptr
	shouldAppsUseDarkMode                uintptr
	allowDarkModeForWindow               uintptr
	appMode                              appModeToggle
	isDarkModeAllowedForWindow           uintptr
	setWindowCompositionAttribute        uintptr
}

func (c *capabilities) resolveCompanions(sys system) {
	c.dwmGetWindowAttribute = sys.procByName(dllDWMAPI, "DwmGetWindowAttribute")
	c.dwmSetWindowAttribute = sys.procByName(dllDWMAPI, "DwmSetWindowAttribute")
}

func (c *capabilities) resolveTheming(sys system, build uint32) {
	c.openNcThemeData = sys.procByOrdinal(dllUxTheme, ordOpenNcThemeData)
	c.refreshImmersiveColorPolicyState = sys.procByOrdinal(dllUxTheme, ordRefreshImmersiveColorPolicyState)
	c.getIsImmersiveColorUsingHighContrast = sys.procByOrdinal(dllUxTheme, ordGetIsImmersiveColorUsingHighContrast)
	c.shouldAppsUseDarkMode = sys.procByOrdinal(dllUxTheme, ordShouldAppsUseDarkMode)
	c.allowDarkModeForWindow = sys.procByOrdinal(dllUxTheme, ordAllowDarkModeForWindow)
	c.appMode = newAppModeToggle(build, sys.procByOrdinal(dllUxTheme, ordAppMode))
	c.isDarkModeAllowedForWindow = sys.procByOrdinal(dllUxTheme, ordIsDarkModeAllowedForWindow)
	c.setWindowCompositionAttribute = sys.procByName(dllUser32, "SetWindowCompositionAttribute")
}

// slot is a named capability, for diagnostics.
type slot struct {
	name     string
	fn       uintptr
	required bool
}

func (c *capabilities) slots() []slot {
	return []slot{
		{"DwmGetWindowAttribute", c.dwmGetWindowAttribute, false},
		{"DwmSetWindowAttribute", c.dwmSetWindowAttribute, false},
		{fmt.Sprintf("OpenNcThemeData (#%d)", ordOpenNcThemeData), c.openNcThemeData, true},
		{fmt.Sprintf("RefreshImmersiveColorPolicyState (#%d)", ordRefreshImmersiveColorPolicyState), c.refreshImmersiveColorPolicyState, true},
		{fmt.Sprintf("GetIsImmersiveColorUsingHighContrast (#%d)", ordGetIsImmersiveColorUsingHighContrast), c.getIsImmersiveColorUsingHighContrast, false},
		{fmt.Sprintf("ShouldAppsUseDarkMode (#%d)", ordShouldAppsUseDarkMode), c.shouldAppsUseDarkMode, true},
		{fmt.Sprintf("AllowDarkModeForWindow (#%d)", ordAllowDarkModeForWindow), c.allowDarkModeForWindow, true},
		{fmt.Sprintf("%v (#%d)", c.appMode.kind, ordAppMode), c.appMode.fn, true},
		{fmt.Sprintf("IsDarkModeAllowedForWindow (#%d)", ordIsDarkModeAllowedForWindow), c.isDarkModeAllowedForWindow, true},
		{"SetWindowCompositionAttribute", c.setWindowCompositionAttribute, false},
	}
}

// complete reports whether every slot needed for dark mode is resolved.
func (c *capabilities) complete() bool {
	for _, s := range c.slots() {
		if s.required && s.fn == 0 {
			return false
		}
	}
	return true
}

// missing returns the names of unresolved required slots.
func (c *capabilities) missing() []string {
	var names []string
	for _, s := range c.slots() {
		if s.required && s.fn == 0 {
			names = append(names, s.name)
		}
	}
	return names
}
