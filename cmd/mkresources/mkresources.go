// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// The mkresources command writes the Windows resource objects (.syso files)
// linked into cmd/darkmode: an application manifest that opts into Common
// Controls v6, whose scroll bars are the ones the darkmode package rethemes,
// and a VERSIONINFO block.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tc-hib/winres"
	"github.com/tc-hib/winres/version"
)

var (
	flagDir     = flag.String("dir", ".", "directory to write the .syso files to")
	flagName    = flag.String("name", "darkmode", "executable name, without the .exe suffix")
	flagVersion = flag.String("version", "0.0.0.0", "file and product version")
)

var arches = []winres.Arch{winres.ArchAMD64, winres.ArchARM64, winres.ArchI386}

func main() {
	flag.Parse()
	rs := resources(*flagName, *flagVersion)
	for _, arch := range arches {
		name := filepath.Join(*flagDir, sysoName(arch))
		if err := writeObject(rs, arch, name); err != nil {
			log.Fatal(err)
		}
	}
}

func sysoName(arch winres.Arch) string {
	return fmt.Sprintf("rsrc_windows_%s.syso", arch)
}

// resources returns the resource set of the named executable.
func resources(name, ver string) *winres.ResourceSet {
	rs := &winres.ResourceSet{}
	rs.SetManifest(winres.AppManifest{
		Description:         name,
		Compatibility:       winres.Win7AndAbove,
		ExecutionLevel:      winres.AsInvoker,
		DPIAwareness:        winres.DPIPerMonitorV2,
		UseCommonControlsV6: true,
	})

	var vi version.Info
	vi.Set(version.LangDefault, version.FileDescription, "Win32 dark mode diagnostics")
	vi.Set(version.LangDefault, version.InternalName, name)
	vi.Set(version.LangDefault, version.OriginalFilename, name+".exe")
	vi.Set(version.LangDefault, version.ProductName, name)
	vi.Set(version.LangDefault, version.CompanyName, "Tailscale Inc.")
	// After Set, so that the version lands in the only string table.
	vi.SetFileVersion(ver)
	vi.SetProductVersion(ver)
	rs.SetVersionInfo(vi)
	return rs
}

func writeObject(rs *winres.ResourceSet, arch winres.Arch, name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := rs.WriteObject(f, arch); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
