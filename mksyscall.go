// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go mksyscall.go

//sys setWindowPos(hwnd HWND, insertAfter HWND, x int32, y int32, cx int32, cy int32, flags uint32) (err error) [failretval==0] = user32.SetWindowPos
//sys systemParametersInfo(action uint32, uiParam uint32, pvParam unsafe.Pointer, winIni uint32) (err error) [failretval==0] = user32.SystemParametersInfoW
