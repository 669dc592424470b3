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

package pixel

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"seehuhn.de/go/geom/matrix"
)

func TestImageRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(3, 5, 19, 21))
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(16 * (x - 3)),
				G: uint8(16 * (y - 5)),
				B: uint8(x * y),
				A: 255,
			})
		}
	}

	out := FromImage(img).NRGBA()
	if out.Rect != img.Rect {
		t.Fatalf("bounds: got %v, want %v", out.Rect, img.Rect)
	}
	for i := range img.Pix {
		if out.Pix[i] != img.Pix[i] {
			t.Fatalf("byte %d: got %d, want %d", i, out.Pix[i], img.Pix[i])
		}
	}
}

func TestGenericImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(17 * i)
	}
	b := FromImage(img)
	out := b.NRGBA()
	for i, g := range img.Pix {
		if got := out.Pix[4*i]; got != g {
			t.Errorf("pixel %d: got %d, want %d", i, got, g)
		}
	}
}

func TestSRGB(t *testing.T) {
	for i := range 256 {
		v := float64(i) / 255
		got := LinearToSRGB(SRGBToLinear(v))
		if math.Abs(got-v) > 1e-9 {
			t.Errorf("%d: got %f, want %f", i, got, v)
		}
	}
}

func TestCropAndCopy(t *testing.T) {
	b := New(image.Rect(0, 0, 10, 10))
	b.Fill(image.Rect(2, 2, 5, 5), [4]float32{1, 0, 0, 1})

	c := b.Crop(image.Rect(4, 4, 12, 12))
	if c.Rect != image.Rect(4, 4, 12, 12) {
		t.Fatalf("unexpected rect %v", c.Rect)
	}
	if c.Pixel(4, 4) != [4]float32{1, 0, 0, 1} {
		t.Errorf("pixel (4,4) = %v", c.Pixel(4, 4))
	}
	if c.Pixel(5, 5) != [4]float32{} {
		t.Errorf("pixel (5,5) = %v", c.Pixel(5, 5))
	}
	if c.Pixel(11, 11) != [4]float32{} {
		t.Errorf("pixel (11,11) = %v", c.Pixel(11, 11))
	}

	// the crop is a copy
	c.SetPixel(4, 4, [4]float32{})
	if b.Pixel(4, 4) != [4]float32{1, 0, 0, 1} {
		t.Error("crop shares memory with its source")
	}
}

func TestTransformIntoShift(t *testing.T) {
	src := New(image.Rect(0, 0, 4, 4))
	src.SetPixel(1, 2, [4]float32{0.5, 0.25, 0, 0.5})

	dst := New(image.Rect(0, 0, 16, 16))
	TransformInto(dst, src, matrix.Identity.Translate(7, 3), dst.Rect)

	if got := dst.Pixel(8, 5); got != [4]float32{0.5, 0.25, 0, 0.5} {
		t.Errorf("shifted pixel: got %v", got)
	}
	if got := dst.Pixel(1, 2); got != [4]float32{} {
		t.Errorf("source position not empty: %v", got)
	}
}

func TestTransformIntoScale(t *testing.T) {
	src := New(image.Rect(0, 0, 8, 8))
	src.Fill(src.Rect, [4]float32{0.2, 0.4, 0.6, 1})

	dst := New(image.Rect(0, 0, 32, 32))
	TransformInto(dst, src, matrix.Scale(2, 2), dst.Rect)

	// well inside the scaled image
	got := dst.Pixel(8, 8)
	want := [4]float32{0.2, 0.4, 0.6, 1}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > 1e-3 {
			t.Fatalf("scaled pixel: got %v, want %v", got, want)
		}
	}
	if got := dst.Pixel(24, 24); got != [4]float32{} {
		t.Errorf("outside scaled image: %v", got)
	}
}

func TestResampleSameSize(t *testing.T) {
	src := New(image.Rect(0, 0, 3, 3))
	src.SetPixel(1, 1, [4]float32{1, 1, 1, 1})
	dst := Resample(src, image.Rect(10, 10, 13, 13))
	if got := dst.Pixel(11, 11); got != [4]float32{1, 1, 1, 1} {
		t.Errorf("got %v", got)
	}
}

func TestTransformIntoClip(t *testing.T) {
	src := New(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := float32(x+y) / 128
			src.SetPixel(x, y, [4]float32{v, v / 2, 0, 1})
		}
	}
	m := matrix.Scale(1.5, 1.5).Translate(0.25, 0)

	full := New(image.Rect(0, 0, 100, 100))
	TransformInto(full, src, m, full.Rect)

	marker := [4]float32{0, 0, 1, 1}
	part := New(full.Rect)
	part.Fill(part.Rect, marker)
	clip := image.Rect(30, 40, 46, 56)
	TransformInto(part, src, m, clip)

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			got := part.Pixel(x, y)
			if !(image.Point{x, y}).In(clip) {
				if got != marker {
					t.Fatalf("pixel (%d,%d) outside the clip was changed", x, y)
				}
				continue
			}
			want := full.Pixel(x, y)
			for i := range 4 {
				if math.Abs(float64(got[i]-want[i])) > 1e-6 {
					t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
				}
			}
		}
	}
}

func TestDrawImage(t *testing.T) {
	b := New(image.Rect(0, 0, 4, 4))
	draw.Draw(b, image.Rect(1, 1, 3, 3), image.NewUniform(color.RGBA64{R: 0x8000, A: 0xffff}), image.Point{}, draw.Src)

	got := b.Pixel(2, 2)
	if math.Abs(float64(got[0])-0.5) > 1e-4 || got[1] != 0 || got[3] != 1 {
		t.Errorf("got %v", got)
	}
	if got := b.Pixel(0, 0); got != [4]float32{} {
		t.Errorf("pixel outside the rectangle: %v", got)
	}
	if c := b.RGBA64At(2, 2); c != (color.RGBA64{R: 0x8000, A: 0xffff}) {
		t.Errorf("RGBA64At: got %v", c)
	}
}
