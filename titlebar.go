// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

// titleBarMechanism is how a build is told to draw a dark title bar.
// Windows has used three mechanisms; which one applies depends only on the
// build number.
type titleBarMechanism int

const (
	// titleBarDWMLegacy is the pre-20H1 DWMWA_USE_IMMERSIVE_DARK_MODE (19).
	titleBarDWMLegacy titleBarMechanism = iota
	// titleBarComposition is SetWindowCompositionAttribute with
	// WCA_USEDARKMODECOLORS.
	titleBarComposition
	// titleBarDWM is the documented DWMWA_USE_IMMERSIVE_DARK_MODE (20).
	titleBarDWM
)

const (
	dwmwaUseImmersiveDarkModeBefore20H1 = 19
	dwmwaUseImmersiveDarkMode           = 20

	wcaUseDarkModeColors = 26

	buildDWMImmersiveDarkMode = 20161
)

func (m titleBarMechanism) String() string {
	switch m {
	case titleBarDWMLegacy:
		return "DwmSetWindowAttribute(19)"
	case titleBarComposition:
		return "SetWindowCompositionAttribute(WCA_USEDARKMODECOLORS)"
	case titleBarDWM:
		return "DwmSetWindowAttribute(DWMWA_USE_IMMERSIVE_DARK_MODE)"
	}
	return "unknown"
}

// titleBarMechanismFor returns the title bar mechanism of build.
func titleBarMechanismFor(build uint32) titleBarMechanism {
	switch {
	case build >= buildDWMImmersiveDarkMode:
		return titleBarDWM
	case build >= build1909:
		return titleBarComposition
	default:
		return titleBarDWMLegacy
	}
}

// dwmAttribute returns the DWM attribute used by m, or false if m does not
// use DWM.
func (m titleBarMechanism) dwmAttribute() (uint32, bool) {
	switch m {
	case titleBarDWM:
		return dwmwaUseImmersiveDarkMode, true
	case titleBarDWMLegacy:
		return dwmwaUseImmersiveDarkModeBefore20H1, true
	}
	return 0, false
}

// refreshTitleBar tells the window manager whether to draw hwnd's title bar
// dark. Failures are ignored.
func (t *Theme) refreshTitleBar(hwnd HWND, dark bool) {
	var v int32
	if dark {
		v = 1
	}
	m := titleBarMechanismFor(t.build)
	if attr, ok := m.dwmAttribute(); ok {
		if t.caps.dwmSetWindowAttribute == 0 {
			return
		}
		if err := t.sys.setWindowAttribute(t.caps.dwmSetWindowAttribute, hwnd, attr, v); err != nil {
			t.vlogf("%v on %#x: %v", m, hwnd, err)
		}
		return
	}
	if t.caps.setWindowCompositionAttribute == 0 {
		return
	}
	if !t.sys.setCompositionAttribute(t.caps.setWindowCompositionAttribute, hwnd, wcaUseDarkModeColors, v) {
		t.vlogf("%v on %#x failed", m, hwnd)
	}
}

// refreshWindowTitleBar updates hwnd's title bar from its own dark mode
// permission and the system preference. t must be supported.
func (t *Theme) refreshWindowTitleBar(hwnd HWND) {
	dark := isTrue(t.sys.call(t.caps.isDarkModeAllowedForWindow, uintptr(hwnd))) &&
		t.systemPrefersDark()
	t.refreshTitleBar(hwnd, dark)
}

// TitleBarDark reads back whether hwnd's title bar is drawn dark. ok is
// false when the build's mechanism cannot be queried or the query fails.
func (t *Theme) TitleBarDark(hwnd HWND) (dark, ok bool) {
	t.ensureInit()
	attr, isDWM := titleBarMechanismFor(t.build).dwmAttribute()
	if !isDWM || t.caps.dwmGetWindowAttribute == 0 {
		return false, false
	}
	v, err := t.sys.getWindowAttribute(t.caps.dwmGetWindowAttribute, hwnd, attr)
	if err != nil {
		return false, false
	}
	return v != 0, true
}
