// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package main

import (
	"runtime"

	"github.com/tailscale/darkmode/types/logger"
)

func osInfo(logger.Logf) (string, *bool) {
	return runtime.GOOS, nil
}
