// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

import (
	"strconv"
	"sync"
	"testing"
)

const (
	fakeOrdinalBase = 0x1_0000
	fakeNameBase    = 0x2_0000
)

func fakeOrdinal(ord uint16) uintptr { return fakeOrdinalBase + uintptr(ord) }

var fakeNames = []string{
	"dwmapi.dll!DwmGetWindowAttribute",
	"dwmapi.dll!DwmSetWindowAttribute",
	"user32.dll!SetWindowCompositionAttribute",
}

type attrSet struct {
	HWND  HWND
	Attr  uint32
	Value int32
}

// fakeSystem is an in-memory Windows: a kernel version, a uxtheme that
// keeps its flags in fields and a window manager that records attribute
// changes.
type fakeSystem struct {
	mu sync.Mutex

	major, minor, build uint32
	absent              map[string]bool // "uxtheme.dll!#135" or "dwmapi.dll!DwmSetWindowAttribute"
	appsUseDark         bool
	highContrastOn      bool
	settings            map[uintptr]string // WM_SETTINGCHANGE lParam payloads
	scrollBarErr        error

	versionQueries  int
	lookups         int
	policyRefreshes int
	hcRefreshes     int
	appModeArgs     []uintptr
	windowAllowed   map[HWND]bool
	dwmSets         []attrSet
	compositionSets []attrSet
	dwmValues       map[attrSet]int32 // keyed by HWND and Attr
	redraws         []HWND
	scrollBarFixes  []uintptr
	unexpectedCalls []uintptr
}

func newFakeSystem(build uint32) *fakeSystem {
	return &fakeSystem{
		major:         10,
		build:         build,
		absent:        map[string]bool{},
		settings:      map[uintptr]string{},
		windowAllowed: map[HWND]bool{},
		dwmValues:     map[attrSet]int32{},
	}
}

func (s *fakeSystem) ntVersion() (major, minor, build uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versionQueries++
	return s.major, s.minor, s.build
}

func (s *fakeSystem) procByName(dll, name string) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	key := dll + "!" + name
	if s.absent[key] {
		return 0
	}
	for i, n := range fakeNames {
		if n == key {
			return fakeNameBase + uintptr(i)
		}
	}
	return 0
}

func (s *fakeSystem) procByOrdinal(dll string, ordinal uint16) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if dll != dllUxTheme || s.absent[dllUxTheme+"!#"+strconv.Itoa(int(ordinal))] {
		return 0
	}
	return fakeOrdinal(ordinal)
}

func (s *fakeSystem) call(fn uintptr, args ...uintptr) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch fn {
	case fakeOrdinal(ordRefreshImmersiveColorPolicyState):
		s.policyRefreshes++
	case fakeOrdinal(ordGetIsImmersiveColorUsingHighContrast):
		if args[0] == uintptr(ihcmRefresh) {
			s.hcRefreshes++
		}
		return cBool(s.highContrastOn)
	case fakeOrdinal(ordShouldAppsUseDarkMode):
		// Garbage in the upper bytes, as from a function returning bool.
		return 0xAB00 | cBool(s.appsUseDark)
	case fakeOrdinal(ordAllowDarkModeForWindow):
		s.windowAllowed[HWND(args[0])] = args[1] != 0
		return 1
	case fakeOrdinal(ordAppMode):
		s.appModeArgs = append(s.appModeArgs, args[0])
	case fakeOrdinal(ordIsDarkModeAllowedForWindow):
		return cBool(s.windowAllowed[HWND(args[0])])
	default:
		s.unexpectedCalls = append(s.unexpectedCalls, fn)
	}
	return 0
}

func (s *fakeSystem) setWindowAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != fakeNameBase+1 {
		s.unexpectedCalls = append(s.unexpectedCalls, fn)
	}
	s.dwmSets = append(s.dwmSets, attrSet{hwnd, attr, value})
	s.dwmValues[attrSet{HWND: hwnd, Attr: attr}] = value
	return nil
}

func (s *fakeSystem) getWindowAttribute(fn uintptr, hwnd HWND, attr uint32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != fakeNameBase {
		s.unexpectedCalls = append(s.unexpectedCalls, fn)
	}
	return s.dwmValues[attrSet{HWND: hwnd, Attr: attr}], nil
}

func (s *fakeSystem) setCompositionAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != fakeNameBase+2 {
		s.unexpectedCalls = append(s.unexpectedCalls, fn)
	}
	s.compositionSets = append(s.compositionSets, attrSet{hwnd, attr, value})
	return true
}

func (s *fakeSystem) highContrast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highContrastOn
}

func (s *fakeSystem) redrawFrame(hwnd HWND) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redraws = append(s.redraws, hwnd)
}

func (s *fakeSystem) settingName(lParam uintptr) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[lParam]
}

func (s *fakeSystem) fixScrollBar(openNcThemeData uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollBarFixes = append(s.scrollBarFixes, openNcThemeData)
	return s.scrollBarErr
}

// set runs f with s locked, for tests changing the fake's state.
func (s *fakeSystem) set(f func(s *fakeSystem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

func newTestTheme(t testing.TB, sys *fakeSystem) *Theme {
	return newTheme(sys, t.Logf)
}
