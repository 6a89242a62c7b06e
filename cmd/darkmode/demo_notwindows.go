// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

func (*demoArgs) run(context.Context, []string) error {
	return fmt.Errorf("demo: not supported on %s: %w", runtime.GOOS, errors.ErrUnsupported)
}
