// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package peimagetest builds small synthetic PE images for tests.
//
// The images use identical file and section alignment, so the same bytes
// are both a valid PE file and the loader's in-memory layout of it.
package peimagetest

import (
	"bytes"
	dpe "debug/pe"
	"encoding/binary"
)

// Layout constants of built images.
const (
	NTHeaderOffset = 0x80
	SectionRVA     = 0x1000
	SectionSize    = 0x3000
	ImageSize      = SectionRVA + SectionSize

	// DelayImportRVA is where the delay-load descriptor table starts.
	DelayImportRVA = SectionRVA
	stringsRVA     = SectionRVA + 0x400
	thunksRVA      = SectionRVA + 0x1000

	// DelayAttrRVA is the dlattrRva attribute of modern delay-load descriptors.
	DelayAttrRVA = 1

	sizeofDelayDescriptor = 32
)

// StubValue returns the initial IAT value Build stores for import j of
// delay-load descriptor i. Real images point these at the delay-load
// helper thunks.
func StubValue(i, j int) uint64 {
	return 0x7000_0000 + uint64(i)<<8 + uint64(j)
}

// Import is one entry of a delay-load descriptor: either an ordinal import
// (Name empty) or a by-name import.
type Import struct {
	Ordinal uint16
	Name    string
	Hint    uint16
}

// DelayImport describes one delay-loaded DLL.
type DelayImport struct {
	DLL     string
	Imports []Import
	// Attributes defaults to DelayAttrRVA when zero.
	Attributes uint32
}

// Options configures Build.
type Options struct {
	PE32 bool // build a 32-bit image; the default is PE32+
	// NoDelayDirectory leaves the delay-import data directory empty.
	NoDelayDirectory bool
}

// Build returns the bytes of a DLL image containing a single section that
// holds the delay-load table described by imports.
func Build(opts Options, imports ...DelayImport) []byte {
	mem := make([]byte, ImageSize)
	le := binary.LittleEndian

	thunkSize := 8
	ordinalFlag := uint64(1) << 63
	if opts.PE32 {
		thunkSize = 4
		ordinalFlag = 1 << 31
	}
	putThunk := func(rva int, v uint64) {
		if opts.PE32 {
			le.PutUint32(mem[rva:], uint32(v))
		} else {
			le.PutUint64(mem[rva:], v)
		}
	}

	// Section contents first, so the directory size is known.
	strs := stringsRVA
	putString := func(s string) uint32 {
		rva := strs
		copy(mem[rva:], s)
		strs += len(s) + 1
		return uint32(rva)
	}
	putHintName := func(hint uint16, name string) uint32 {
		if strs%2 != 0 {
			strs++
		}
		rva := strs
		le.PutUint16(mem[rva:], hint)
		copy(mem[rva+2:], name)
		strs += 2 + len(name) + 1
		return uint32(rva)
	}

	desc := DelayImportRVA
	thunks := thunksRVA
	for i, di := range imports {
		attrs := di.Attributes
		if attrs == 0 {
			attrs = DelayAttrRVA
		}
		n := len(di.Imports) + 1 // including the terminator
		intRVA := thunks
		iatRVA := thunks + n*thunkSize
		thunks = iatRVA + n*thunkSize

		for j, imp := range di.Imports {
			var v uint64
			if imp.Name == "" {
				v = ordinalFlag | uint64(imp.Ordinal)
			} else {
				v = uint64(putHintName(imp.Hint, imp.Name))
			}
			putThunk(intRVA+j*thunkSize, v)
			putThunk(iatRVA+j*thunkSize, StubValue(i, j))
		}

		le.PutUint32(mem[desc+0:], attrs)
		le.PutUint32(mem[desc+4:], putString(di.DLL))
		le.PutUint32(mem[desc+8:], 0) // module handle RVA
		le.PutUint32(mem[desc+12:], uint32(iatRVA))
		le.PutUint32(mem[desc+16:], uint32(intRVA))
		desc += sizeofDelayDescriptor
	}
	desc += sizeofDelayDescriptor // zero terminator

	var dirs [16]dpe.DataDirectory
	if !opts.NoDelayDirectory {
		dirs[dpe.IMAGE_DIRECTORY_ENTRY_DELAY_IMPORT] = dpe.DataDirectory{
			VirtualAddress: DelayImportRVA,
			Size:           uint32(desc - DelayImportRVA),
		}
	}

	// Headers.
	le.PutUint16(mem[0:], 0x5A4D) // MZ
	le.PutUint32(mem[0x3C:], NTHeaderOffset)

	var hdr bytes.Buffer
	hdr.WriteString("PE\x00\x00")
	fh := dpe.FileHeader{
		NumberOfSections: 1,
		Characteristics:  dpe.IMAGE_FILE_EXECUTABLE_IMAGE | dpe.IMAGE_FILE_DLL,
	}
	if opts.PE32 {
		fh.Machine = dpe.IMAGE_FILE_MACHINE_I386
		fh.SizeOfOptionalHeader = uint16(binary.Size(dpe.OptionalHeader32{}))
		fh.Characteristics |= dpe.IMAGE_FILE_32BIT_MACHINE
	} else {
		fh.Machine = dpe.IMAGE_FILE_MACHINE_AMD64
		fh.SizeOfOptionalHeader = uint16(binary.Size(dpe.OptionalHeader64{}))
		fh.Characteristics |= dpe.IMAGE_FILE_LARGE_ADDRESS_AWARE
	}
	binary.Write(&hdr, le, fh)
	if opts.PE32 {
		binary.Write(&hdr, le, dpe.OptionalHeader32{
			Magic:               0x10B,
			ImageBase:           0x1000_0000,
			SectionAlignment:    0x1000,
			FileAlignment:       0x1000,
			SizeOfImage:         ImageSize,
			SizeOfHeaders:       SectionRVA,
			Subsystem:           dpe.IMAGE_SUBSYSTEM_WINDOWS_GUI,
			NumberOfRvaAndSizes: 16,
			DataDirectory:       dirs,
		})
	} else {
		binary.Write(&hdr, le, dpe.OptionalHeader64{
			Magic:               0x20B,
			ImageBase:           0x1_8000_0000,
			SectionAlignment:    0x1000,
			FileAlignment:       0x1000,
			SizeOfImage:         ImageSize,
			SizeOfHeaders:       SectionRVA,
			Subsystem:           dpe.IMAGE_SUBSYSTEM_WINDOWS_GUI,
			NumberOfRvaAndSizes: 16,
			DataDirectory:       dirs,
		})
	}
	var name [8]uint8
	copy(name[:], ".didat")
	binary.Write(&hdr, le, dpe.SectionHeader32{
		Name:             name,
		VirtualSize:      SectionSize,
		VirtualAddress:   SectionRVA,
		SizeOfRawData:    SectionSize,
		PointerToRawData: SectionRVA,
		Characteristics:  dpe.IMAGE_SCN_CNT_INITIALIZED_DATA | dpe.IMAGE_SCN_MEM_READ,
	})
	copy(mem[NTHeaderOffset:], hdr.Bytes())
	return mem
}
