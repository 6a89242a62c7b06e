// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go mksyscall.go

//sys createWindowEx(exStyle uint32, className *uint16, windowName *uint16, style uint32, x int32, y int32, width int32, height int32, parent windows.HWND, menu windows.Handle, instance windows.Handle, param uintptr) (hwnd windows.HWND, err error) [failretval==0] = user32.CreateWindowExW
//sys defWindowProc(hwnd windows.HWND, msg uint32, wParam uintptr, lParam uintptr) (lResult uintptr) = user32.DefWindowProcW
//sys dispatchMessage(msg *msgW) (lResult uintptr) = user32.DispatchMessageW
//sys getMessage(msg *msgW, hwnd windows.HWND, msgFilterMin uint32, msgFilterMax uint32) (ret int32, err error) [failretval==-1] = user32.GetMessageW
//sys loadCursor(instance windows.Handle, cursorName uintptr) (cursor windows.Handle, err error) [failretval==0] = user32.LoadCursorW
//sys postQuitMessage(exitCode int32) = user32.PostQuitMessage
//sys registerClassEx(wc *wndClassEx) (atom uint16, err error) [failretval==0] = user32.RegisterClassExW
//sys showWindow(hwnd windows.HWND, cmdShow int32) (wasVisible bool) = user32.ShowWindow
//sys translateMessage(msg *msgW) (translated bool) = user32.TranslateMessage
