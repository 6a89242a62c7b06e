// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import "github.com/tailscale/darkmode/internal/peimage"

func loadDLL(name string) (*peimage.Image, error) {
	return peimage.FromDLL(name)
}
