// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package delayload

import (
	"testing"

	"github.com/tailscale/darkmode/internal/peimage"
)

func TestComctl32(t *testing.T) {
	img, err := peimage.FromDLL("comctl32.dll")
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close()

	ds, err := Descriptors(img)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range ds {
		imps, err := Imports(img, d)
		if err != nil {
			t.Errorf("%s: %v", d.DLL, err)
			continue
		}
		t.Logf("%s: %d imports", d.DLL, len(imps))
	}
	if th, err := FindThunk(img, "uxtheme.dll", 49); err == nil {
		v, err := th.Value()
		if err != nil {
			t.Fatal(err)
		}
		t.Logf("uxtheme.dll!#49 slot at %#x holds %#x", th.Addr(), v)
	}
}
