// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package darkmode

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/dblohm7/wingoes"
	"golang.org/x/sys/windows"
)

const (
	spiGetHighContrast = 0x0042
	hcfHighContrastOn  = 0x00000001

	swpNoSize         = 0x0001
	swpNoMove         = 0x0002
	swpNoZOrder       = 0x0004
	swpNoActivate     = 0x0010
	swpFrameChanged   = 0x0020 // also SWP_DRAWFRAME
	swpRedrawFrameAll = swpNoMove | swpNoSize | swpNoZOrder | swpNoActivate | swpFrameChanged
)

// highContrastW is HIGHCONTRASTW.
type highContrastW struct {
	cbSize            uint32
	flags             uint32
	lpszDefaultScheme *uint16
}

// windowCompositionAttribData is WINDOWCOMPOSITIONATTRIBDATA.
type windowCompositionAttribData struct {
	attrib uint32
	data   unsafe.Pointer
	size   uintptr
}

type winSystem struct{}

func newSystem() system { return winSystem{} }

var (
	systemDLLsMu sync.Mutex
	systemDLLs   = map[string]*windows.LazyDLL{}
)

// systemDLL loads name from the system directory. Loaded DLLs stay loaded
// for the life of the process.
func systemDLL(name string) (windows.Handle, error) {
	systemDLLsMu.Lock()
	d, ok := systemDLLs[name]
	if !ok {
		d = windows.NewLazySystemDLL(name)
		systemDLLs[name] = d
	}
	systemDLLsMu.Unlock()

	if err := d.Load(); err != nil {
		return 0, err
	}
	return windows.Handle(d.Handle()), nil
}

func (winSystem) ntVersion() (major, minor, build uint32) {
	return windows.RtlGetNtVersionNumbers()
}

func (winSystem) procByName(dll, name string) uintptr {
	h, err := systemDLL(dll)
	if err != nil {
		return 0
	}
	p, err := windows.GetProcAddress(h, name)
	if err != nil {
		return 0
	}
	return p
}

func (winSystem) procByOrdinal(dll string, ordinal uint16) uintptr {
	h, err := systemDLL(dll)
	if err != nil {
		return 0
	}
	p, err := windows.GetProcAddressByOrdinal(h, uintptr(ordinal))
	if err != nil {
		return 0
	}
	return p
}

func (winSystem) call(fn uintptr, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, args...)
	return r
}

func (winSystem) setWindowAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) error {
	r, _, _ := syscall.SyscallN(fn, uintptr(hwnd), uintptr(attr), uintptr(unsafe.Pointer(&value)), unsafe.Sizeof(value))
	if hr := wingoes.HRESULT(int32(uint32(r))); hr.Failed() {
		return wingoes.ErrorFromHRESULT(hr)
	}
	return nil
}

func (winSystem) getWindowAttribute(fn uintptr, hwnd HWND, attr uint32) (int32, error) {
	var value int32
	r, _, _ := syscall.SyscallN(fn, uintptr(hwnd), uintptr(attr), uintptr(unsafe.Pointer(&value)), unsafe.Sizeof(value))
	if hr := wingoes.HRESULT(int32(uint32(r))); hr.Failed() {
		return 0, wingoes.ErrorFromHRESULT(hr)
	}
	return value, nil
}

func (winSystem) setCompositionAttribute(fn uintptr, hwnd HWND, attr uint32, value int32) bool {
	data := windowCompositionAttribData{
		attrib: attr,
		data:   unsafe.Pointer(&value),
		size:   unsafe.Sizeof(value),
	}
	r, _, _ := syscall.SyscallN(fn, uintptr(hwnd), uintptr(unsafe.Pointer(&data)))
	return r != 0
}

func (winSystem) highContrast() bool {
	hc := highContrastW{cbSize: uint32(unsafe.Sizeof(highContrastW{}))}
	if err := systemParametersInfo(spiGetHighContrast, hc.cbSize, unsafe.Pointer(&hc), 0); err != nil {
		return false
	}
	return hc.flags&hcfHighContrastOn != 0
}

func (winSystem) redrawFrame(hwnd HWND) {
	setWindowPos(hwnd, 0, 0, 0, 0, 0, swpRedrawFrameAll)
}

func (winSystem) settingName(lParam uintptr) string {
	if lParam == 0 {
		return ""
	}
	// lParam is a string the OS owns for the duration of the message.
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(lParam)))
}
