// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/tailscale/darkmode"
	"golang.org/x/sys/windows"
)

const (
	wmDestroy = 0x0002

	wsOverlappedWindow = 0x00CF0000
	wsVScroll          = 0x00200000
	cwUseDefault       = -0x80000000 // CW_USEDEFAULT
	swShowNormal       = 1
	idcArrow           = 32512
	colorWindow        = 5
	csHRedraw          = 0x0002
	csVRedraw          = 0x0001
)

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   windows.Handle
	icon       windows.Handle
	cursor     windows.Handle
	background windows.Handle
	menuName   *uint16
	className  *uint16
	iconSm     windows.Handle
}

type msgW struct {
	hwnd     windows.HWND
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       struct{ x, y int32 }
	lPrivate uint32
}

var demoWndProc = windows.NewCallback(func(hwnd windows.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	h := darkmode.HWND(hwnd)
	switch msg {
	case darkmode.WM_SETTINGCHANGE:
		before := darkmode.IsEnabled()
		darkmode.HandleSettingChange(h, msg, wParam, lParam)
		if after := darkmode.IsEnabled(); after != before {
			printf("system theme changed: dark=%v\n", after)
		}
	case darkmode.WM_THEMECHANGED:
		darkmode.HandleWindowThemeChanged(h)
		if dark, ok := darkmode.TitleBarDark(h); ok {
			printf("theme changed: title bar dark=%v\n", dark)
		}
	case wmDestroy:
		postQuitMessage(0)
		return 0
	}
	return defWindowProc(hwnd, msg, wParam, lParam)
})

func (da *demoArgs) run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("too many non-flag arguments: %q", args)
	}
	src, err := darkmode.ParseThemeSource(da.theme)
	if err != nil {
		return err
	}

	// Windows are owned by the thread that created them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var inst windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &inst); err != nil {
		return fmt.Errorf("GetModuleHandleEx: %w", err)
	}
	cursor, err := loadCursor(0, idcArrow)
	if err != nil {
		return fmt.Errorf("LoadCursor: %w", err)
	}
	className := windows.StringToUTF16Ptr("DarkModeDemo")
	wc := wndClassEx{
		style:      csHRedraw | csVRedraw,
		wndProc:    demoWndProc,
		instance:   inst,
		cursor:     cursor,
		background: colorWindow + 1,
		className:  className,
	}
	wc.size = uint32(unsafe.Sizeof(wc))
	if _, err := registerClassEx(&wc); err != nil {
		return fmt.Errorf("RegisterClassEx: %w", err)
	}

	darkmode.SetForApp(src)
	printf("dark mode: %v (supported=%v, enabled=%v)\n", darkmode.Default().State(), darkmode.IsSupported(), darkmode.IsEnabled())

	hwnd, err := createWindowEx(0, className, windows.StringToUTF16Ptr("Dark mode demo ("+src.String()+")"),
		wsOverlappedWindow|wsVScroll, cwUseDefault, cwUseDefault, 640, 400, 0, 0, inst, 0)
	if err != nil {
		return fmt.Errorf("CreateWindowEx: %w", err)
	}
	darkmode.SetForWindow(darkmode.HWND(hwnd), src)
	if dark, ok := darkmode.TitleBarDark(darkmode.HWND(hwnd)); ok {
		printf("title bar dark=%v\n", dark)
	}
	showWindow(hwnd, swShowNormal)
	outln("close the window to exit")

	var m msgW
	for {
		r, err := getMessage(&m, 0, 0, 0)
		if err != nil {
			return fmt.Errorf("GetMessage: %w", err)
		}
		if r == 0 {
			return nil
		}
		translateMessage(&m)
		dispatchMessage(&m)
	}
}
