// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package main

import (
	"fmt"
	"runtime"

	"github.com/tailscale/darkmode/internal/peimage"
)

func loadDLL(name string) (*peimage.Image, error) {
	return nil, fmt.Errorf("cannot load %s on %s; use -file", name, runtime.GOOS)
}
