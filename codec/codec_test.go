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

package codec

import (
	"errors"
	"image"
	"testing"

	"seehuhn.de/go/layers/pixel"
)

func testBuffer() *pixel.Buffer {
	r := image.Rect(0, 0, 16, 8)
	buf := pixel.New(r)
	for y := range 8 {
		for x := range 16 {
			v := float32(x) / 15
			buf.SetPixel(x, y, [4]float32{v, 1 - v, float32(y) / 7, 1})
		}
	}
	return buf
}

func TestRoundTripLossless(t *testing.T) {
	c := &Codec{}
	src := testBuffer()
	for _, format := range []string{PNG, BMP, TIFF} {
		t.Run(format, func(t *testing.T) {
			data, err := c.Encode(src, format)
			if err != nil {
				t.Fatal(err)
			}
			got, md, err := c.Decode(data)
			if err != nil {
				t.Fatal(err)
			}
			if md.Format != format {
				t.Errorf("format %q, want %q", md.Format, format)
			}
			if md.Bounds != src.Rect || !md.Opaque {
				t.Errorf("metadata %+v", md)
			}

			// compare in 8 bit sRGB, which is what the file stores
			a, b := src.NRGBA(), got.NRGBA()
			for i := range a.Pix {
				if d := int(a.Pix[i]) - int(b.Pix[i]); d < -1 || d > 1 {
					t.Fatalf("byte %d: %d != %d", i, a.Pix[i], b.Pix[i])
				}
			}
		})
	}
}

func TestJPEG(t *testing.T) {
	c := &Codec{JPEGQuality: 100}
	data, err := c.Encode(testBuffer(), "JPG")
	if err != nil {
		t.Fatal(err)
	}
	_, md, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if md.Format != JPEG {
		t.Errorf("format %q", md.Format)
	}
}

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"png":   PNG,
		".PNG":  PNG,
		"jpg":   JPEG,
		"tif":   TIFF,
		"WebP":  WebP,
		".jpeg": JPEG,
	}
	for in, want := range cases {
		got, err := Format(in)
		if err != nil || got != want {
			t.Errorf("Format(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := Format("xcf"); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v", err)
	}
}

func TestErrors(t *testing.T) {
	c := &Codec{}
	if _, _, err := c.Decode([]byte("not an image")); !errors.Is(err, ErrFormat) {
		t.Errorf("decode: got %v", err)
	}
	if _, err := c.Encode(testBuffer(), WebP); !errors.Is(err, ErrFormat) {
		t.Errorf("encode webp: got %v", err)
	}
}
