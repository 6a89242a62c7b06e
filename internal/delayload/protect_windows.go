// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package delayload

import "golang.org/x/sys/windows"

// VirtualProtect is the Protector for images of modules loaded in this
// process.
var VirtualProtect Protector = ProtectFunc(func(addr, size uintptr, prot uint32) (uint32, error) {
	var old uint32
	err := windows.VirtualProtect(addr, size, prot, &old)
	return old, err
})
