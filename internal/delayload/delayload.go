// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package delayload reads and patches the delay-load import table of a
// mapped PE image.
package delayload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/saferwall/pe"
	"github.com/tailscale/darkmode/internal/peimage"
)

var (
	// ErrNotFound is returned when an image has no delay-load entry for the
	// requested DLL and ordinal. Callers generally treat it as benign.
	ErrNotFound = errors.New("delay-load import not found")
	// ErrProtect is returned by Patch when the slot's page could not be made
	// writable. The slot is left untouched.
	ErrProtect = errors.New("cannot make import slot writable")
)

const (
	sizeofDescriptor = 32

	// attrRVA marks descriptors whose fields are RVAs rather than absolute
	// addresses. Only very old linkers emit descriptors without it.
	attrRVA = 1

	pageReadWrite = 0x04
)

// Descriptor is one ImgDelayDescr record.
type Descriptor struct {
	Attributes      uint32
	DLL             string
	ModuleHandleRVA uint32
	IATRVA          uint32 // import address table
	INTRVA          uint32 // import name table
	BoundIATRVA     uint32
	UnloadIATRVA    uint32
	TimeDateStamp   uint32
}

// usesRVAs reports whether d's table pointers are relative to the image.
func (d Descriptor) usesRVAs() bool { return d.Attributes&attrRVA != 0 }

// Import is one function imported through a Descriptor.
type Import struct {
	DLL       string
	ByOrdinal bool
	Ordinal   uint16 // valid when ByOrdinal
	Hint      uint16 // valid when !ByOrdinal
	Name      string // valid when !ByOrdinal
	Thunk     Thunk
}

func (imp Import) String() string {
	if imp.ByOrdinal {
		return fmt.Sprintf("%s!#%d", imp.DLL, imp.Ordinal)
	}
	return fmt.Sprintf("%s!%s", imp.DLL, imp.Name)
}

// Thunk is an import address table slot.
type Thunk struct {
	img *peimage.Image
	rva uint32
}

// RVA returns the slot's offset within its image.
func (th Thunk) RVA() uint32 { return th.rva }

// Addr returns the slot's address in memory, which is only meaningful for
// images of loaded modules.
func (th Thunk) Addr() uintptr { return th.img.Addr(th.rva) }

// Size returns the width of the slot in bytes.
func (th Thunk) Size() int { return th.img.ThunkSize() }

// Value returns the function pointer currently stored in the slot.
func (th Thunk) Value() (uint64, error) { return th.img.Thunk(th.rva) }

// Descriptors returns the delay-load descriptors of img, in table order.
// An image without a delay-load directory has none.
func Descriptors(img *peimage.Image) ([]Descriptor, error) {
	_, rva, err := img.Directory(pe.ImageDirectoryEntryDelayImport)
	if errors.Is(err, peimage.ErrNotPresent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ds []Descriptor
	for off := uint32(0); ; off += sizeofDescriptor {
		// The directory size is advisory; the table ends at a zero name RVA.
		b, err := img.Bytes(rva+off, sizeofDescriptor)
		if err != nil {
			return ds, fmt.Errorf("descriptor %d: %w", len(ds), err)
		}
		le := binary.LittleEndian
		nameRVA := le.Uint32(b[4:])
		if nameRVA == 0 {
			return ds, nil
		}
		d := Descriptor{
			Attributes:      le.Uint32(b[0:]),
			ModuleHandleRVA: le.Uint32(b[8:]),
			IATRVA:          le.Uint32(b[12:]),
			INTRVA:          le.Uint32(b[16:]),
			BoundIATRVA:     le.Uint32(b[20:]),
			UnloadIATRVA:    le.Uint32(b[24:]),
			TimeDateStamp:   le.Uint32(b[28:]),
		}
		if d.usesRVAs() {
			if d.DLL, err = img.CString(nameRVA); err != nil {
				return ds, fmt.Errorf("descriptor %d name: %w", len(ds), err)
			}
		}
		ds = append(ds, d)
	}
}

// Imports returns the functions imported through d.
func Imports(img *peimage.Image, d Descriptor) ([]Import, error) {
	if !d.usesRVAs() {
		return nil, fmt.Errorf("descriptor for %q uses absolute addresses", d.DLL)
	}
	ordinalFlag := uint64(1) << 31
	if img.Is64() {
		ordinalFlag = 1 << 63
	}
	step := uint32(img.ThunkSize())

	var imps []Import
	for i := uint32(0); ; i++ {
		nameEntry, err := img.Thunk(d.INTRVA + i*step)
		if err != nil {
			return imps, fmt.Errorf("%s import %d: %w", d.DLL, i, err)
		}
		if nameEntry == 0 {
			return imps, nil
		}
		imp := Import{
			DLL:   d.DLL,
			Thunk: Thunk{img: img, rva: d.IATRVA + i*step},
		}
		if nameEntry&ordinalFlag != 0 {
			imp.ByOrdinal = true
			imp.Ordinal = uint16(nameEntry)
		} else {
			// IMAGE_IMPORT_BY_NAME: a hint followed by the name.
			hintRVA := uint32(nameEntry)
			b, err := img.Bytes(hintRVA, 2)
			if err != nil {
				return imps, fmt.Errorf("%s import %d: %w", d.DLL, i, err)
			}
			imp.Hint = binary.LittleEndian.Uint16(b)
			if imp.Name, err = img.CString(hintRVA + 2); err != nil {
				return imps, fmt.Errorf("%s import %d: %w", d.DLL, i, err)
			}
		}
		imps = append(imps, imp)
	}
}

// FindThunk returns the import address table slot through which img calls
// the function exported by dll at ordinal. Only the first descriptor naming
// dll (compared case-insensitively) is searched.
//
// It returns ErrNotFound if there is no such import.
func FindThunk(img *peimage.Image, dll string, ordinal uint16) (Thunk, error) {
	ds, err := Descriptors(img)
	if err != nil {
		return Thunk{}, err
	}
	for _, d := range ds {
		if !d.usesRVAs() || !strings.EqualFold(d.DLL, dll) {
			continue
		}
		imps, err := Imports(img, d)
		if err != nil {
			return Thunk{}, err
		}
		for _, imp := range imps {
			if imp.ByOrdinal && imp.Ordinal == ordinal {
				return imp.Thunk, nil
			}
		}
		break
	}
	return Thunk{}, fmt.Errorf("%w: %s!#%d", ErrNotFound, dll, ordinal)
}

// Protector changes the protection of the pages containing [addr, addr+size)
// and returns the previous protection of the first page.
type Protector interface {
	Protect(addr, size uintptr, prot uint32) (old uint32, err error)
}

// ProtectFunc adapts a function to the Protector interface.
type ProtectFunc func(addr, size uintptr, prot uint32) (uint32, error)

func (f ProtectFunc) Protect(addr, size uintptr, prot uint32) (uint32, error) {
	return f(addr, size, prot)
}

// Patch stores fn into th. The slot's page is made writable for the
// duration of the write and its previous protection restored afterwards.
//
// Patch returns an error wrapping ErrProtect if the page cannot be made
// writable, in which case nothing is written.
func Patch(p Protector, th Thunk, fn uintptr) (err error) {
	addr, size := th.Addr(), uintptr(th.Size())
	old, err := p.Protect(addr, size, pageReadWrite)
	if err != nil {
		return fmt.Errorf("%w: %#x: %v", ErrProtect, addr, err)
	}
	defer func() {
		if _, rerr := p.Protect(addr, size, old); rerr != nil && err == nil {
			err = fmt.Errorf("restoring protection %#x at %#x: %w", old, addr, rerr)
		}
	}()

	cur, err := th.Value()
	if err != nil {
		return err
	}
	if cur == uint64(fn) {
		return nil
	}
	return th.img.PutThunk(th.rva, uint64(fn))
}
