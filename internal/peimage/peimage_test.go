// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package peimage_test

import (
	"bytes"
	dpe "debug/pe"
	"encoding/binary"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/tailscale/darkmode/internal/peimage"
	"github.com/tailscale/darkmode/internal/peimage/peimagetest"
)

var uxtheme = peimagetest.DelayImport{
	DLL: "uxtheme.dll",
	Imports: []peimagetest.Import{
		{Ordinal: 49},
		{Name: "SetWindowTheme"},
	},
}

func TestNew(t *testing.T) {
	for _, pe32 := range []bool{false, true} {
		c := qt.New(t)
		mem := peimagetest.Build(peimagetest.Options{PE32: pe32}, uxtheme)
		img, err := peimage.New(mem, 0)
		c.Assert(err, qt.IsNil)
		c.Check(img.Is64(), qt.Equals, !pe32)
		c.Check(img.Size(), qt.Equals, peimagetest.ImageSize)
		if pe32 {
			c.Check(img.ThunkSize(), qt.Equals, 4)
		} else {
			c.Check(img.ThunkSize(), qt.Equals, 8)
		}

		dir, rva, err := img.Directory(dpe.IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT)
		c.Assert(err, qt.IsNil)
		c.Check(rva, qt.Equals, uint32(peimagetest.DelayImportRVA))
		c.Check(dir, qt.HasLen, 2*32)

		nameRVA := binary.LittleEndian.Uint32(dir[4:])
		name, err := img.CString(nameRVA)
		c.Assert(err, qt.IsNil)
		c.Check(name, qt.Equals, "uxtheme.dll")
	}
}

func TestNewRejectsGarbage(t *testing.T) {
	good := peimagetest.Build(peimagetest.Options{}, uxtheme)

	tests := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{"empty", func([]byte) []byte { return nil }},
		{"no-mz", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"lfanew-past-end", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[0x3C:], 0xFFFF_FF00)
			return b
		}},
		{"no-pe-sig", func(b []byte) []byte { b[peimagetest.NTHeaderOffset] = 'X'; return b }},
		{"bad-magic", func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[peimagetest.NTHeaderOffset+24:], 0x107)
			return b
		}},
		{"truncated", func(b []byte) []byte { return b[:peimagetest.SectionRVA] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := tt.mangle(bytes.Clone(good))
			_, err := peimage.New(mem, 0)
			if !errors.Is(err, peimage.ErrInvalidImage) {
				t.Fatalf("New = %v; want ErrInvalidImage", err)
			}
		})
	}
}

func TestDirectoryNotPresent(t *testing.T) {
	c := qt.New(t)
	mem := peimagetest.Build(peimagetest.Options{NoDelayDirectory: true}, uxtheme)
	img, err := peimage.New(mem, 0)
	c.Assert(err, qt.IsNil)

	_, _, err = img.Directory(dpe.IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT)
	c.Assert(err, qt.ErrorIs, peimage.ErrNotPresent)
	_, _, err = img.Directory(99)
	c.Assert(err, qt.ErrorIs, peimage.ErrNotPresent)
}

func TestBoundsChecks(t *testing.T) {
	c := qt.New(t)
	img, err := peimage.New(peimagetest.Build(peimagetest.Options{}, uxtheme), 0)
	c.Assert(err, qt.IsNil)

	_, err = img.Bytes(peimagetest.ImageSize-2, 4)
	c.Check(err, qt.ErrorIs, peimage.ErrOutOfBounds)
	_, err = img.Uint32(0xFFFF_FFFF)
	c.Check(err, qt.ErrorIs, peimage.ErrOutOfBounds)
	_, err = img.Thunk(peimagetest.ImageSize - 4)
	c.Check(err, qt.ErrorIs, peimage.ErrOutOfBounds)
	_, err = img.CString(peimagetest.ImageSize)
	c.Check(err, qt.ErrorIs, peimage.ErrOutOfBounds)
	c.Check(img.PutThunk(peimagetest.ImageSize, 1), qt.ErrorIs, peimage.ErrOutOfBounds)
}

func TestThunkRoundTrip(t *testing.T) {
	for _, pe32 := range []bool{false, true} {
		c := qt.New(t)
		mem := peimagetest.Build(peimagetest.Options{PE32: pe32}, uxtheme)
		img, err := peimage.New(mem, 0)
		c.Assert(err, qt.IsNil)

		const rva = peimagetest.SectionRVA + 0x2800
		c.Assert(img.PutThunk(rva, 0x1122_3344), qt.IsNil)
		got, err := img.Thunk(rva)
		c.Assert(err, qt.IsNil)
		c.Check(got, qt.Equals, uint64(0x1122_3344))
		// The view aliases the caller's memory.
		c.Check(binary.LittleEndian.Uint32(mem[rva:]), qt.Equals, uint32(0x1122_3344))
	}
}

func TestMap(t *testing.T) {
	c := qt.New(t)
	file := peimagetest.Build(peimagetest.Options{}, uxtheme)
	img, err := peimage.Map(bytes.NewReader(file), t.Logf)
	c.Assert(err, qt.IsNil)
	c.Check(img.Base(), qt.Equals, uintptr(0))
	c.Check(img.Size(), qt.Equals, peimagetest.ImageSize)

	dir, _, err := img.Directory(dpe.IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT)
	c.Assert(err, qt.IsNil)
	c.Check(binary.LittleEndian.Uint32(dir), qt.Equals, uint32(peimagetest.DelayAttrRVA))
	c.Check(img.Close(), qt.IsNil)
}

func TestMapRejectsGarbage(t *testing.T) {
	c := qt.New(t)
	_, err := peimage.Map(bytes.NewReader([]byte("not a PE file")), t.Logf)
	c.Check(err, qt.ErrorIs, peimage.ErrInvalidImage)

	file := peimagetest.Build(peimagetest.Options{}, uxtheme)
	// SizeOfHeaders past SizeOfImage.
	binary.LittleEndian.PutUint32(file[peimagetest.NTHeaderOffset+24+60:], peimagetest.ImageSize+0x1000)
	_, err = peimage.Map(bytes.NewReader(file), t.Logf)
	c.Check(err, qt.ErrorIs, peimage.ErrInvalidImage)
}

// Live modules on ARM64 Windows carry machine type 0xAA64; the header
// parse must not depend on the machine.
func TestNewAnyMachine(t *testing.T) {
	c := qt.New(t)
	mem := peimagetest.Build(peimagetest.Options{}, uxtheme)
	binary.LittleEndian.PutUint16(mem[peimagetest.NTHeaderOffset+4:], dpe.IMAGE_FILE_MACHINE_ARM64)
	img, err := peimage.New(mem, 0)
	c.Assert(err, qt.IsNil)
	c.Check(img.Is64(), qt.IsTrue)
	_, _, err = img.Directory(dpe.IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT)
	c.Check(err, qt.IsNil)
}
