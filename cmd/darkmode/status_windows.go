// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"

	"github.com/StackExchange/wmi"
	"github.com/dblohm7/wingoes"
	"github.com/tailscale/darkmode/types/logger"
	"golang.org/x/sys/windows/registry"
)

const personalizeKey = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`

// win32_OperatingSystem is the WMI class of the same name. The wmi package
// builds its query from the type and field names.
type win32_OperatingSystem struct {
	Caption        string
	OSArchitecture string
}

// osInfo describes the running Windows and the user's app mode setting.
func osInfo(logf logger.Logf) (string, *bool) {
	desc := wingoes.GetOSVersionString()
	var oss []win32_OperatingSystem
	if err := wmi.Query(wmi.CreateQuery(&oss, ""), &oss); err != nil {
		logf("WMI: %v", err)
	} else if len(oss) > 0 {
		desc = fmt.Sprintf("%s %s (%s)", oss[0].Caption, oss[0].OSArchitecture, desc)
	}
	return desc, appsUseLightTheme(logf)
}

// appsUseLightTheme reads the "Choose your default app mode" setting. It
// returns nil on builds that predate the setting.
func appsUseLightTheme(logf logger.Logf) *bool {
	k, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
	if err != nil {
		logf("opening %s: %v", personalizeKey, err)
		return nil
	}
	defer k.Close()
	v, _, err := k.GetIntegerValue("AppsUseLightTheme")
	if err != nil {
		logf("reading AppsUseLightTheme: %v", err)
		return nil
	}
	light := v != 0
	return &light
}
