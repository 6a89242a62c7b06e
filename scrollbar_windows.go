// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/tailscale/darkmode/internal/delayload"
	"github.com/tailscale/darkmode/internal/peimage"
	"golang.org/x/sys/windows"
)

var (
	// realOpenNcThemeData is uxtheme's OpenNcThemeData, called by the hook.
	realOpenNcThemeData atomic.Uintptr

	explorerScrollBarClassW = windows.StringToUTF16Ptr(explorerScrollBarClass)

	// openNcThemeDataHook is the address comctl32 calls instead of
	// OpenNcThemeData. Callbacks are never freed, so there is only one.
	openNcThemeDataHook = sync.OnceValue(func() uintptr {
		return windows.NewCallback(openNcThemeData)
	})
)

func openNcThemeData(hwnd HWND, classList *uint16) uintptr {
	if classList != nil {
		if h, cls := scrollBarThemeArgs(hwnd, windows.UTF16PtrToString(classList)); cls == explorerScrollBarClass {
			hwnd, classList = h, explorerScrollBarClassW
		}
	}
	r, _, _ := syscall.SyscallN(realOpenNcThemeData.Load(), uintptr(hwnd), uintptr(unsafe.Pointer(classList)))
	return r
}

func (winSystem) fixScrollBar(fn uintptr) error {
	// comctl32 is never unloaded: the patched slot lives in its image.
	h, err := windows.LoadLibraryEx("comctl32.dll", 0, windows.LOAD_LIBRARY_SEARCH_SYSTEM32)
	if err != nil {
		return fmt.Errorf("loading comctl32.dll: %w", err)
	}
	img, err := peimage.FromModule(h)
	if err != nil {
		return err
	}
	defer img.Close()

	th, err := delayload.FindThunk(img, dllUxTheme, ordOpenNcThemeData)
	if err != nil {
		return err
	}
	realOpenNcThemeData.Store(fn)
	return delayload.Patch(delayload.VirtualProtect, th, openNcThemeDataHook())
}
