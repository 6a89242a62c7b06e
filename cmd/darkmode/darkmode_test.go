// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
	"github.com/tailscale/darkmode"
	"github.com/tailscale/darkmode/internal/peimage"
	"github.com/tailscale/darkmode/internal/peimage/peimagetest"
	"gopkg.in/yaml.v3"
)

var testImports = []peimagetest.DelayImport{
	{
		DLL:     "api-ms-win-core-synch-l1-2-0.dll",
		Imports: []peimagetest.Import{{Name: "WaitOnAddress", Hint: 3}},
	},
	{
		DLL:     "UxTheme.dll",
		Imports: []peimagetest.Import{{Name: "GetThemeColor", Hint: 20}, {Ordinal: 49}},
	},
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = old })
	return &buf
}

func writeImage(t *testing.T, opts peimagetest.Options) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comctl32.dll")
	if err := os.WriteFile(path, peimagetest.Build(opts, testImports...), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDelayImportsFile(t *testing.T) {
	c := qt.New(t)
	out := captureStdout(t)
	path := writeImage(t, peimagetest.Options{})

	err := run(context.Background(), []string{"delayimports", "-file", path, "-filter", ""})
	c.Assert(err, qt.IsNil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	c.Assert(lines, qt.HasLen, 4)
	c.Check(strings.Fields(lines[0]), qt.DeepEquals, []string{"DLL", "IMPORT", "SLOT", "RVA", "VALUE"})
	c.Check(lines[1], qt.Contains, "WaitOnAddress")
	c.Check(lines[2], qt.Contains, "GetThemeColor")
	c.Check(strings.Fields(lines[3])[:2], qt.DeepEquals, []string{"UxTheme.dll", "#49"})
	c.Check(lines[3], qt.Contains, fmt.Sprintf("%#x", peimagetest.StubValue(1, 1)))
}

func TestDelayImportsFilter(t *testing.T) {
	c := qt.New(t)
	out := captureStdout(t)
	path := writeImage(t, peimagetest.Options{PE32: true})

	err := run(context.Background(), []string{"delayimports", "-file", path, "-filter", "uxtheme.dll"})
	c.Assert(err, qt.IsNil)
	c.Check(out.String(), qt.Not(qt.Contains), "WaitOnAddress")
	c.Check(out.String(), qt.Contains, "#49")
}

func TestDelayImportsErrors(t *testing.T) {
	c := qt.New(t)
	captureStdout(t)

	err := run(context.Background(), []string{"delayimports", "-file", filepath.Join(t.TempDir(), "missing.dll")})
	c.Check(err, qt.ErrorIs, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.dll")
	if err := os.WriteFile(garbage, []byte("not a PE file"), 0o644); err != nil {
		t.Fatal(err)
	}
	err = run(context.Background(), []string{"delayimports", "-file", garbage})
	c.Check(err, qt.ErrorIs, peimage.ErrInvalidImage)

	err = run(context.Background(), []string{"delayimports", "-file", garbage, "extra"})
	c.Check(err, qt.ErrorMatches, "too many non-flag arguments.*")
}

// Each run must parse its own flags, as a long-lived process (or a test
// binary) calls run more than once.
func TestRunRepeatedFlags(t *testing.T) {
	c := qt.New(t)
	out := captureStdout(t)
	path := writeImage(t, peimagetest.Options{})

	c.Assert(run(context.Background(), []string{"delayimports", "-file", path, "-filter", "uxtheme.dll"}), qt.IsNil)
	c.Check(out.String(), qt.Not(qt.Contains), "WaitOnAddress")

	out.Reset()
	c.Assert(run(context.Background(), []string{"delayimports", "-file", path}), qt.IsNil)
	c.Check(out.String(), qt.Contains, "WaitOnAddress")

	missing := filepath.Join(t.TempDir(), "missing.dll")
	err := run(context.Background(), []string{"delayimports", "-file", missing})
	c.Check(err, qt.ErrorIs, os.ErrNotExist)

	out.Reset()
	c.Assert(run(context.Background(), []string{"status", "-format", "json"}), qt.IsNil)
	c.Check(strings.HasPrefix(out.String(), "{"), qt.IsTrue, qt.Commentf("%s", out))

	out.Reset()
	c.Assert(run(context.Background(), []string{"status", "-format", "yaml"}), qt.IsNil)
	var got map[string]any
	c.Assert(yaml.Unmarshal(out.Bytes(), &got), qt.IsNil)
	c.Check(strings.HasPrefix(out.String(), "{"), qt.IsFalse, qt.Commentf("%s", out))
	c.Check(got["state"], qt.Not(qt.IsNil))
}

func TestDelayImportsVerbose(t *testing.T) {
	c := qt.New(t)
	out := captureStdout(t)
	old := Stderr
	Stderr = new(bytes.Buffer)
	t.Cleanup(func() { Stderr = old })
	path := writeImage(t, peimagetest.Options{PE32: true})

	c.Assert(run(context.Background(), []string{"delayimports", "-v", "-file", path}), qt.IsNil)
	c.Check(out.String(), qt.Contains, "GetThemeColor")
}

func TestPrintDelayImportsEmpty(t *testing.T) {
	img, err := peimage.New(peimagetest.Build(peimagetest.Options{NoDelayDirectory: true}, testImports...), 0)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := printDelayImports(&buf, img, ""); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "no delay-load imports\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func testReport() statusReport {
	light := false
	return statusReport{
		Status: darkmode.Status{
			State:        darkmode.StateDark,
			Version:      "10.0.19041",
			Build:        19041,
			Supported:    true,
			Enabled:      true,
			AppMode:      "SetPreferredAppMode",
			TitleBar:     "SetWindowCompositionAttribute(WCA_USEDARKMODECOLORS)",
			ScrollBarFix: "applied",
			Functions: []darkmode.FuncStatus{
				{Name: "OpenNcThemeData (#49)", Resolved: true, Required: true},
				{Name: "RefreshImmersiveColorPolicyState (#104)", Resolved: false, Required: true},
			},
		},
		OS:                "Windows 10 Pro 64-bit (10.0.19041)",
		AppsUseLightTheme: &light,
		Knobs:             map[string]string{"TS_DEBUG_DARKMODE_VERBOSE": "1"},
	}
}

func TestPrintStatusText(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(&buf, "text", testReport()); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"OS:",
		"Windows 10 Pro 64-bit (10.0.19041)",
		"Kernel version:",
		"State:",
		"dark",
		"AppsUseLightTheme:",
		"SetPreferredAppMode",
		"OpenNcThemeData (#49)",
		"TS_DEBUG_DARKMODE_VERBOSE",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintStatusJSON(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	c.Assert(printStatus(&buf, "json", testReport()), qt.IsNil)

	var got map[string]any
	c.Assert(jsonv2.Unmarshal(buf.Bytes(), &got), qt.IsNil)
	c.Check(got["state"], qt.Equals, "dark")
	c.Check(got["build"], qt.Equals, float64(19041))
	c.Check(got["appsUseLightTheme"], qt.Equals, false)
	c.Check(got["functions"], qt.HasLen, 2)
}

func TestPrintStatusYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := printStatus(&buf, "yaml", testReport()); err != nil {
		t.Fatal(err)
	}
	var got struct {
		State     string
		Build     uint32
		OS        string `yaml:"os"`
		Functions []struct {
			Name     string
			Resolved bool
		}
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("%v\n%s", err, buf.Bytes())
	}
	if got.State != "dark" || got.Build != 19041 || got.OS == "" {
		t.Errorf("unexpected YAML:\n%s", buf.Bytes())
	}
	var names []string
	for _, f := range got.Functions {
		names = append(names, f.Name)
	}
	want := []string{"OpenNcThemeData (#49)", "RefreshImmersiveColorPolicyState (#104)"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
}

func TestPrintStatusUnknownFormat(t *testing.T) {
	err := printStatus(new(bytes.Buffer), "xml", testReport())
	if err == nil || !strings.Contains(err.Error(), `unknown format "xml"`) {
		t.Errorf("err = %v", err)
	}
}

func TestRunHelp(t *testing.T) {
	captureStdout(t)
	old := Stderr
	Stderr = new(bytes.Buffer)
	t.Cleanup(func() { Stderr = old })

	if err := run(context.Background(), nil); err != nil {
		t.Errorf("run with no args: %v", err)
	}
	if err := run(context.Background(), []string{"status", "--help"}); err != nil {
		t.Errorf("status --help: %v", err)
	}
}
