// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package darkmode

import "errors"

// noSystem is the system of platforms without Win32 theming. It reports
// version 0.0.0, so every Theme is unsupported.
type noSystem struct{}

func newSystem() system { return noSystem{} }

func (noSystem) ntVersion() (major, minor, build uint32)          { return 0, 0, 0 }
func (noSystem) procByName(dll, name string) uintptr              { return 0 }
func (noSystem) procByOrdinal(dll string, ordinal uint16) uintptr { return 0 }
func (noSystem) call(fn uintptr, args ...uintptr) uintptr         { return 0 }
func (noSystem) highContrast() bool                               { return false }
func (noSystem) redrawFrame(hwnd HWND)                            {}
func (noSystem) settingName(lParam uintptr) string                { return "" }

func (noSystem) setWindowAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) error {
	return errors.ErrUnsupported
}

func (noSystem) getWindowAttribute(fn uintptr, hwnd HWND, attr uint32) (int32, error) {
	return 0, errors.ErrUnsupported
}

func (noSystem) setCompositionAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) bool {
	return false
}

func (noSystem) fixScrollBar(openNcThemeData uintptr) error {
	return errors.ErrUnsupported
}
