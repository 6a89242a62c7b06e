// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

const (
	scrollBarClass         = "ScrollBar"
	explorerScrollBarClass = "Explorer::ScrollBar"
)

// scrollBarThemeArgs rewrites the arguments of comctl32's calls to
// OpenNcThemeData. The plain ScrollBar class has no dark variant; the
// Explorer one does, but only when it is not bound to a window.
func scrollBarThemeArgs(hwnd HWND, classList string) (HWND, string) {
	if classList == scrollBarClass {
		return 0, explorerScrollBarClass
	}
	return hwnd, classList
}
