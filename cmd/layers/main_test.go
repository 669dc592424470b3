// seehuhn.de/go/layers - a layered image compositing library
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/codec"
	"seehuhn.de/go/layers/document"
	"seehuhn.de/go/layers/pixel"
)

func writePNG(t *testing.T, dir, name string, c [4]float32) string {
	t.Helper()
	r := image.Rect(0, 0, 8, 8)
	buf := pixel.New(r)
	buf.Fill(r, c)
	data, err := (&codec.Codec{}).Encode(buf, codec.PNG)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	base := writePNG(t, dir, "base.png", [4]float32{0.5, 0.5, 0.5, 1})
	top := writePNG(t, dir, "top.png", [4]float32{1, 0, 0, 1})

	for _, group := range []bool{false, true} {
		o := overlay{mode: blend.Multiply, opacity: 1, group: group}
		data, err := run(context.Background(), zap.NewNop(), document.DefaultConfig(),
			[]string{base, top}, o, codec.PNG)
		if err != nil {
			t.Fatal(err)
		}
		buf, _, err := (&codec.Codec{}).Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		p := buf.NRGBA().NRGBAAt(4, 4)
		if p.G != 0 || p.B != 0 {
			t.Errorf("group=%t: got %v", group, p)
		}
		switch {
		case group && p.R != 255:
			// the group hides the grey background from the Multiply
			t.Errorf("group: red is %d, want 255", p.R)
		case !group && (p.R < 180 || p.R > 195):
			t.Errorf("red is %d, want about 188", p.R)
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	_, err := run(context.Background(), zap.NewNop(), document.DefaultConfig(),
		[]string{filepath.Join(t.TempDir(), "missing.png")}, overlay{opacity: 1}, codec.PNG)
	if err == nil {
		t.Error("missing input accepted")
	}
}
