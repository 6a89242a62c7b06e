// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package darkmode turns on dark window chrome for Win32 applications.
//
// Windows 10 has no public API for dark title bars, menus and scroll bars
// in classic Win32 windows. The functions that implement it are exported
// from uxtheme.dll by ordinal only, and their meaning has changed between
// releases. This package resolves them on the Windows 10 builds where they
// are known to behave, and degrades to a no-op everywhere else.
//
// A Theme initializes itself on first use. Most programs use the package
// functions, which forward to the process-wide Default theme. The host is
// expected to forward WM_SETTINGCHANGE and WM_THEMECHANGED from its window
// procedure to HandleSettingChange and HandleWindowThemeChanged.
package darkmode

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailscale/darkmode/types/logger"
)

// Window messages the host forwards.
const (
	WM_SETTINGCHANGE = 0x001A
	WM_THEMECHANGED  = 0x031A
)

// immersiveColorSet is the WM_SETTINGCHANGE payload sent when the user
// switches between light and dark apps.
const immersiveColorSet = "ImmersiveColorSet"

// ThemeSource is where a window's light or dark preference comes from.
type ThemeSource int

const (
	FollowSystem ThemeSource = iota // the user's "app mode" setting
	ForcedLight
	ForcedDark
)

func (s ThemeSource) String() string {
	switch s {
	case FollowSystem:
		return "system"
	case ForcedLight:
		return "light"
	case ForcedDark:
		return "dark"
	}
	return fmt.Sprintf("ThemeSource(%d)", int(s))
}

// ParseThemeSource parses the String form of a ThemeSource.
func ParseThemeSource(s string) (ThemeSource, error) {
	for _, src := range []ThemeSource{FollowSystem, ForcedLight, ForcedDark} {
		if strings.EqualFold(s, src.String()) {
			return src, nil
		}
	}
	return 0, fmt.Errorf("unknown theme source %q (want system, light or dark)", s)
}

// State is the state of a Theme.
type State int

const (
	StateUninitialized State = iota
	StateUnsupported
	StateLight
	StateDark
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateUnsupported:
		return "unsupported"
	case StateLight:
		return "light"
	case StateDark:
		return "dark"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Outcomes of the scroll bar fix other than success or a patch error.
var (
	errScrollBarNotAttempted = errors.New("not attempted")
	errScrollBarDisabled     = errors.New("disabled by " + knobNoScrollBarFix)
)

// Theme is the dark mode state of a process.
//
// Its methods are safe for concurrent use, but like the Win32 calls they
// wrap they are meant to be called from the thread that owns the windows.
type Theme struct {
	sys   system
	logf  logger.Logf
	vlogf logger.Logf // verbose; rate limited or discarded

	once        sync.Once
	initialized atomic.Bool // set after init returns

	// Written by init only.
	major, minor, build uint32
	supported           bool
	caps                capabilities
	scrollBar           error // nil if the scroll bar fix was applied

	enabled atomic.Bool
}

// New returns a Theme for the current process. Initialization is deferred
// until the first method call.
func New(logf logger.Logf) *Theme {
	return newTheme(newSystem(), logf)
}

func newTheme(sys system, logf logger.Logf) *Theme {
	if logf == nil {
		logf = logger.Discard
	}
	logf = logger.WithPrefix(logf, "darkmode: ")
	t := &Theme{
		sys:       sys,
		logf:      logf,
		vlogf:     logger.Discard,
		scrollBar: errScrollBarNotAttempted,
	}
	if verbose() {
		t.vlogf = logger.RateLimitedFn(logf, time.Minute, 10, 50)
	}
	return t
}

// Default returns the process-wide Theme, which logs with log.Printf.
var Default = sync.OnceValue(func() *Theme {
	return New(log.Printf)
})

func (t *Theme) ensureInit() {
	t.once.Do(t.init)
}

// init resolves the theming functions. It runs once per Theme.
func (t *Theme) init() {
	defer t.initialized.Store(true)

	t.caps.resolveCompanions(t.sys)

	t.major, t.minor, t.build = t.sys.ntVersion()
	if disabled() {
		t.logf("disabled by %s", knobDisable)
		return
	}
	if !buildSupported(t.major, t.minor, t.build) {
		t.logf("Windows %d.%d.%d is not a supported build", t.major, t.minor, t.build)
		return
	}

	t.caps.resolveTheming(t.sys, t.build)
	if !t.caps.complete() {
		t.logf("Windows build %d lacks %s", t.build, strings.Join(t.caps.missing(), ", "))
		return
	}
	t.supported = true

	t.caps.appMode.set(t.sys, true)
	t.sys.call(t.caps.refreshImmersiveColorPolicyState)
	t.enabled.Store(t.systemPrefersDark())

	if noScrollBarFix() {
		t.scrollBar = errScrollBarDisabled
	} else {
		t.scrollBar = t.sys.fixScrollBar(t.caps.openNcThemeData)
		if t.scrollBar != nil {
			t.logf("scroll bar fix skipped: %v", t.scrollBar)
		}
	}
	t.vlogf("build %d: supported, enabled=%v, app mode via %v", t.build, t.enabled.Load(), t.caps.appMode.kind)
}

// systemPrefersDark reports whether the user has chosen dark apps and high
// contrast is off. t must be supported.
func (t *Theme) systemPrefersDark() bool {
	return isTrue(t.sys.call(t.caps.shouldAppsUseDarkMode)) && !t.sys.highContrast()
}

// State returns the current state without initializing t.
func (t *Theme) State() State {
	if !t.initialized.Load() {
		return StateUninitialized
	}
	switch {
	case !t.supported:
		return StateUnsupported
	case t.enabled.Load():
		return StateDark
	default:
		return StateLight
	}
}

// IsSupported reports whether dark mode can be used in this process.
func (t *Theme) IsSupported() bool {
	t.ensureInit()
	return t.supported
}

// IsEnabled reports whether the system currently prefers dark apps. It is
// always false when high contrast mode is on.
func (t *Theme) IsEnabled() bool {
	t.ensureInit()
	return t.enabled.Load()
}

// AllowForApp allows or disallows dark mode for every window of the
// process. It does nothing if dark mode is unsupported.
func (t *Theme) AllowForApp(allow bool) {
	t.ensureInit()
	if t.supported {
		t.caps.appMode.set(t.sys, allow)
	}
}

// AllowForWindow allows or disallows dark mode for hwnd and returns the
// result of the underlying call. It returns false if dark mode is
// unsupported.
func (t *Theme) AllowForWindow(hwnd HWND, allow bool) bool {
	t.ensureInit()
	if !t.supported {
		return false
	}
	return isTrue(t.sys.call(t.caps.allowDarkModeForWindow, uintptr(hwnd), cBool(allow)))
}

// prefersDark resolves src against the current state.
func (t *Theme) prefersDark(src ThemeSource) bool {
	switch src {
	case ForcedLight:
		return false
	case ForcedDark:
		return t.IsSupported()
	default:
		return t.IsEnabled()
	}
}

// SetForApp applies src to the whole process.
func (t *Theme) SetForApp(src ThemeSource) {
	t.AllowForApp(t.prefersDark(src))
}

// SetForWindow applies src to the process and to hwnd, updates hwnd's
// title bar and asks the window manager to redraw its frame.
func (t *Theme) SetForWindow(hwnd HWND, src ThemeSource) {
	dark := t.prefersDark(src)
	t.AllowForApp(dark)
	t.AllowForWindow(hwnd, dark)
	t.refreshTitleBar(hwnd, dark)
	t.sys.redrawFrame(hwnd)
}

// HandleSettingChange must be called with every WM_SETTINGCHANGE message
// hwnd receives. When the message reports a change of the user's color
// scheme it recomputes IsEnabled and updates hwnd's title bar. Other
// messages are ignored.
func (t *Theme) HandleSettingChange(hwnd HWND, msg uint32, wParam, lParam uintptr) {
	t.ensureInit()
	if msg != WM_SETTINGCHANGE || !t.supported {
		return
	}

	name := t.sys.settingName(lParam)
	colorSet := strings.EqualFold(name, immersiveColorSet)
	if colorSet {
		t.sys.call(t.caps.refreshImmersiveColorPolicyState)
	}
	if fn := t.caps.getIsImmersiveColorUsingHighContrast; fn != 0 {
		t.sys.call(fn, uintptr(ihcmRefresh))
	}
	if !colorSet {
		return
	}

	dark := t.systemPrefersDark()
	if t.enabled.Swap(dark) != dark {
		t.logf("system theme changed; dark=%v", dark)
	} else {
		t.vlogf("setting change %q; dark=%v", name, dark)
	}
	t.refreshWindowTitleBar(hwnd)
}

// HandleWindowThemeChanged must be called when hwnd receives
// WM_THEMECHANGED. It reapplies hwnd's dark mode permission and title bar.
func (t *Theme) HandleWindowThemeChanged(hwnd HWND) {
	t.ensureInit()
	if !t.supported {
		return
	}
	t.AllowForWindow(hwnd, t.IsEnabled())
	t.refreshWindowTitleBar(hwnd)
}

// Status is a snapshot of a Theme for diagnostics.
type Status struct {
	State        State        `json:"state" yaml:"state"`
	Version      string       `json:"version" yaml:"version"`
	Build        uint32       `json:"build" yaml:"build"`
	Supported    bool         `json:"supported" yaml:"supported"`
	Enabled      bool         `json:"enabled" yaml:"enabled"`
	HighContrast bool         `json:"highContrast" yaml:"highContrast"`
	AppMode      string       `json:"appMode" yaml:"appMode"`
	TitleBar     string       `json:"titleBar" yaml:"titleBar"`
	ScrollBarFix string       `json:"scrollBarFix" yaml:"scrollBarFix"`
	Functions    []FuncStatus `json:"functions" yaml:"functions"`
}

// FuncStatus reports whether one OS function was resolved.
type FuncStatus struct {
	Name     string `json:"name" yaml:"name"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
	Required bool   `json:"required" yaml:"required"`
}

// Status initializes t if needed and returns a snapshot of its state.
func (t *Theme) Status() Status {
	t.ensureInit()
	st := Status{
		State:        t.State(),
		Version:      fmt.Sprintf("%d.%d.%d", t.major, t.minor, t.build),
		Build:        t.build,
		Supported:    t.supported,
		Enabled:      t.enabled.Load(),
		HighContrast: t.sys.highContrast(),
		AppMode:      t.caps.appMode.kind.String(),
		TitleBar:     titleBarMechanismFor(t.build).String(),
		ScrollBarFix: "applied",
	}
	if t.scrollBar != nil {
		st.ScrollBarFix = t.scrollBar.Error()
	}
	for _, s := range t.caps.slots() {
		st.Functions = append(st.Functions, FuncStatus{
			Name:     s.name,
			Resolved: s.fn != 0,
			Required: s.required,
		})
	}
	return st
}

// IsSupported reports whether the Default theme supports dark mode.
func IsSupported() bool { return Default().IsSupported() }

// IsEnabled reports whether the Default theme is dark.
func IsEnabled() bool { return Default().IsEnabled() }

// AllowForApp calls AllowForApp on the Default theme.
func AllowForApp(allow bool) { Default().AllowForApp(allow) }

// AllowForWindow calls AllowForWindow on the Default theme.
func AllowForWindow(hwnd HWND, allow bool) bool { return Default().AllowForWindow(hwnd, allow) }

// SetForApp calls SetForApp on the Default theme.
func SetForApp(src ThemeSource) { Default().SetForApp(src) }

// SetForWindow calls SetForWindow on the Default theme.
func SetForWindow(hwnd HWND, src ThemeSource) { Default().SetForWindow(hwnd, src) }

// HandleSettingChange calls HandleSettingChange on the Default theme.
func HandleSettingChange(hwnd HWND, msg uint32, wParam, lParam uintptr) {
	Default().HandleSettingChange(hwnd, msg, wParam, lParam)
}

// HandleWindowThemeChanged calls HandleWindowThemeChanged on the Default theme.
func HandleWindowThemeChanged(hwnd HWND) { Default().HandleWindowThemeChanged(hwnd) }

// TitleBarDark calls TitleBarDark on the Default theme.
func TitleBarDark(hwnd HWND) (dark, ok bool) { return Default().TitleBarDark(hwnd) }
