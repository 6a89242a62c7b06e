// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package peimage reads PE executable images that are laid out the way the
// Windows loader maps them: headers at offset zero and every section at its
// relative virtual address (RVA).
//
// It is an internal utility for walking the headers of modules already
// loaded in this process (and copies of such modules made from disk). It
// does not defend against hostile input beyond keeping every read inside
// the image.
package peimage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpe "github.com/Binject/debug/pe"
	"github.com/saferwall/pe"
	pelog "github.com/saferwall/pe/log"
	"github.com/tailscale/darkmode/types/logger"
)

var (
	// ErrInvalidImage is returned when the header chain does not parse.
	ErrInvalidImage = errors.New("invalid PE image")
	// ErrNotPresent is returned by (*Image).Directory when the requested
	// data directory entry is empty.
	ErrNotPresent = errors.New("data directory not present in this image")
	// ErrOutOfBounds is returned when an RVA or length falls outside the image.
	ErrOutOfBounds = errors.New("RVA out of image bounds")
)

// Image is a read/write view of a mapped PE image.
type Image struct {
	mem    []byte
	base   uintptr
	pe64   bool
	dirs   []pe.DataDirectory
	closer io.Closer
}

// New parses the headers of the image in mem. base is the address mem
// starts at when the image is a live module, or zero for a detached copy.
//
// The returned Image aliases mem; writes through a Thunk obtained from it
// modify mem.
func New(mem []byte, base uintptr) (*Image, error) {
	return parse(mem, base, logger.Discard)
}

// parseLogger adapts logf to the leveled logger of the PE parser. Debug
// and info records are dropped.
func parseLogger(logf logger.Logf) pelog.Logger {
	return pelog.NewFilter(
		pelog.NewStdLogger(logger.FuncWriter(logger.WithPrefix(logf, "peimage: "))),
		pelog.FilterLevel(pelog.LevelWarn),
	)
}

func parse(mem []byte, base uintptr, logf logger.Logf) (*Image, error) {
	// Headers sit at the same offsets in a file and in its mapped image,
	// so a header-only parse works on either layout.
	f, err := pe.NewBytes(mem, &pe.Options{
		Fast:                       true,
		DisableCertValidation:      true,
		DisableSignatureValidation: true,
		Logger:                     parseLogger(logf),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := f.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img := &Image{base: base, pe64: f.Is64}
	var (
		sizeOfImage uint32
		numDirs     uint32
		dirs        [16]pe.DataDirectory
	)
	switch oh := f.NtHeader.OptionalHeader.(type) {
	case pe.ImageOptionalHeader32:
		sizeOfImage, numDirs, dirs = oh.SizeOfImage, oh.NumberOfRvaAndSizes, oh.DataDirectory
	case pe.ImageOptionalHeader64:
		sizeOfImage, numDirs, dirs = oh.SizeOfImage, oh.NumberOfRvaAndSizes, oh.DataDirectory
	default:
		return nil, fmt.Errorf("%w: no optional header", ErrInvalidImage)
	}

	if uint64(sizeOfImage) > uint64(len(mem)) {
		return nil, fmt.Errorf("%w: SizeOfImage %#x exceeds %#x mapped bytes", ErrInvalidImage, sizeOfImage, len(mem))
	}
	img.mem = mem[:sizeOfImage]
	img.dirs = dirs[:min(numDirs, uint32(len(dirs)))]
	return img, nil
}

// Map reads the PE file in r and lays it out as the loader would, without
// applying relocations or binding imports. Parser diagnostics go to logf.
func Map(r io.ReaderAt, logf logger.Logf) (*Image, error) {
	f, err := binpe.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var sizeOfImage, sizeOfHeaders uint32
	switch oh := f.OptionalHeader.(type) {
	case *binpe.OptionalHeader32:
		sizeOfImage, sizeOfHeaders = oh.SizeOfImage, oh.SizeOfHeaders
	case *binpe.OptionalHeader64:
		sizeOfImage, sizeOfHeaders = oh.SizeOfImage, oh.SizeOfHeaders
	default:
		return nil, fmt.Errorf("%w: no optional header", ErrInvalidImage)
	}
	if sizeOfHeaders > sizeOfImage {
		return nil, fmt.Errorf("%w: SizeOfHeaders %#x > SizeOfImage %#x", ErrInvalidImage, sizeOfHeaders, sizeOfImage)
	}

	mem := make([]byte, sizeOfImage)
	if _, err := r.ReadAt(mem[:sizeOfHeaders], 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading headers: %w", err)
	}
	for _, s := range f.Sections {
		n := min(s.VirtualSize, s.Size)
		if n == 0 {
			continue
		}
		if uint64(s.VirtualAddress)+uint64(n) > uint64(sizeOfImage) {
			return nil, fmt.Errorf("%w: section %q outside image", ErrInvalidImage, s.Name)
		}
		if _, err := s.ReadAt(mem[s.VirtualAddress:s.VirtualAddress+n], 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading section %q: %w", s.Name, err)
		}
	}
	return parse(mem, 0, logf)
}

// Close releases any reference the Image holds on a loaded module.
// It is a no-op for images not created by FromModule.
func (img *Image) Close() error {
	if img.closer == nil {
		return nil
	}
	c := img.closer
	img.closer = nil
	return c.Close()
}

// Base returns the address the image is mapped at, or zero for a copy.
func (img *Image) Base() uintptr { return img.base }

// Size returns the image's SizeOfImage.
func (img *Image) Size() int { return len(img.mem) }

// Is64 reports whether the image is PE32+.
func (img *Image) Is64() bool { return img.pe64 }

// ThunkSize returns the width in bytes of an IMAGE_THUNK_DATA entry.
func (img *Image) ThunkSize() int {
	if img.pe64 {
		return 8
	}
	return 4
}

// Addr returns the address of rva within a live module.
func (img *Image) Addr(rva uint32) uintptr {
	return img.base + uintptr(rva)
}

// Directory returns the content of data directory entry idx and the RVA
// it starts at.
func (img *Image) Directory(idx pe.ImageDirectoryEntry) ([]byte, uint32, error) {
	if idx < 0 || int(idx) >= len(img.dirs) {
		return nil, 0, ErrNotPresent
	}
	dd := img.dirs[idx]
	if dd.VirtualAddress == 0 || dd.Size == 0 {
		return nil, 0, ErrNotPresent
	}
	b, err := img.Bytes(dd.VirtualAddress, dd.Size)
	if err != nil {
		return nil, 0, err
	}
	return b, dd.VirtualAddress, nil
}

// Bytes returns the n bytes of the image starting at rva.
func (img *Image) Bytes(rva, n uint32) ([]byte, error) {
	end := uint64(rva) + uint64(n)
	if end > uint64(len(img.mem)) {
		return nil, fmt.Errorf("%w: [%#x, %#x) in image of size %#x", ErrOutOfBounds, rva, end, len(img.mem))
	}
	return img.mem[rva:end:end], nil
}

// CString returns the NUL-terminated string at rva.
func (img *Image) CString(rva uint32) (string, error) {
	if uint64(rva) >= uint64(len(img.mem)) {
		return "", fmt.Errorf("%w: string at %#x", ErrOutOfBounds, rva)
	}
	b := img.mem[rva:]
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at %#x", ErrOutOfBounds, rva)
	}
	return string(b[:i]), nil
}

// Uint32 returns the little-endian uint32 at rva.
func (img *Image) Uint32(rva uint32) (uint32, error) {
	b, err := img.Bytes(rva, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Thunk returns the IMAGE_THUNK_DATA value at rva, widened to 64 bits.
func (img *Image) Thunk(rva uint32) (uint64, error) {
	b, err := img.Bytes(rva, uint32(img.ThunkSize()))
	if err != nil {
		return 0, err
	}
	if img.pe64 {
		return binary.LittleEndian.Uint64(b), nil
	}
	return uint64(binary.LittleEndian.Uint32(b)), nil
}

// PutThunk stores v into the IMAGE_THUNK_DATA entry at rva. For live
// modules the caller is responsible for making the page writable.
func (img *Image) PutThunk(rva uint32, v uint64) error {
	b, err := img.Bytes(rva, uint32(img.ThunkSize()))
	if err != nil {
		return err
	}
	if img.pe64 {
		binary.LittleEndian.PutUint64(b, v)
	} else {
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
	return nil
}
