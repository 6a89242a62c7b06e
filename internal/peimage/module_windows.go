// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package peimage

import (
	"fmt"
	"unsafe"

	"github.com/dblohm7/wingoes/pe"
	"golang.org/x/sys/windows"
)

// FromModule returns an Image viewing the memory of h, a module loaded in
// the current process. The module is pinned until Close is called.
func FromModule(h windows.Handle) (*Image, error) {
	peh, err := pe.NewPEFromHMODULE(h)
	if err != nil {
		return nil, fmt.Errorf("reading headers of module %#x: %w", uintptr(h), err)
	}

	// HMODULEs carry loader flags in their two low bits.
	base := uintptr(h) &^ 3
	size := peh.OptionalHeader().GetSizeOfImage()
	// base is the loader's mapping of h, pinned by peh until Close.
	mem := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)

	img, err := New(mem, base)
	if err != nil {
		peh.Close()
		return nil, err
	}
	img.closer = peh
	return img, nil
}

// FromDLL is like FromModule, loading name from the system directory first
// if it is not already resident.
func FromDLL(name string) (*Image, error) {
	h, err := windows.LoadLibraryEx(name, 0, windows.LOAD_LIBRARY_SEARCH_SYSTEM32)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	img, err := FromModule(h)
	// FromModule holds its own reference.
	windows.FreeLibrary(h)
	return img, err
}
