// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

// HWND is a Win32 window handle.
type HWND uintptr

// system is the operating system surface used by Theme. Every method is
// best effort: lookups return 0 for absent exports and calls do not report
// failures they cannot act upon.
type system interface {
	// ntVersion returns the kernel's major, minor and build numbers.
	ntVersion() (major, minor, build uint32)

	// procByName and procByOrdinal resolve an export of a DLL in the
	// system directory, loading the DLL for the life of the process if
	// needed. They return 0 when the DLL or the export is missing.
	procByName(dll, name string) uintptr
	procByOrdinal(dll string, ordinal uint16) uintptr

	// call invokes fn with scalar arguments and returns the raw result
	// register.
	call(fn uintptr, args ...uintptr) uintptr

	// setWindowAttribute and getWindowAttribute call the DWM companions
	// DwmSetWindowAttribute and DwmGetWindowAttribute with a 4-byte BOOL.
	setWindowAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) error
	getWindowAttribute(fn uintptr, hwnd HWND, attr uint32) (int32, error)

	// setCompositionAttribute calls SetWindowCompositionAttribute with a
	// 4-byte value.
	setCompositionAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) bool

	// highContrast reports whether high contrast mode is on.
	highContrast() bool

	// redrawFrame asks the window manager to recompute hwnd's non-client
	// frame.
	redrawFrame(hwnd HWND)

	// settingName decodes the lParam of WM_SETTINGCHANGE. It returns ""
	// when lParam is nil.
	settingName(lParam uintptr) string

	// fixScrollBar redirects comctl32's delay-loaded OpenNcThemeData to a
	// wrapper around openNcThemeData that themes scroll bars like Explorer.
	fixScrollBar(openNcThemeData uintptr) error
}

// cBool converts a Go bool to a C++ bool argument.
func cBool(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}

// isTrue interprets the return register of a function returning a C++
// bool, of which only the low byte is defined.
func isTrue(r uintptr) bool {
	return r&0xff != 0
}
