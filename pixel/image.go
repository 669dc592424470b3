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
)

// A Buffer can be used as an [image.Image] and a [draw.Image], so that
// the resampling code in golang.org/x/image/draw can read and write it
// directly.  The colour values are passed through unchanged: the 16-bit
// values seen through these methods are linear-light and premultiplied,
// not sRGB.  Use [Buffer.NRGBA] to obtain an image for display.
var _ draw.RGBA64Image = (*Buffer)(nil)

// ColorModel implements the [image.Image] interface.
func (b *Buffer) ColorModel() color.Model {
	return color.RGBA64Model
}

// Bounds implements the [image.Image] interface.
func (b *Buffer) Bounds() image.Rectangle {
	return b.Rect
}

// At implements the [image.Image] interface.
func (b *Buffer) At(x, y int) color.Color {
	return b.RGBA64At(x, y)
}

// RGBA64At implements the [image.RGBA64Image] interface.
func (b *Buffer) RGBA64At(x, y int) color.RGBA64 {
	c := b.Pixel(x, y)
	return color.RGBA64{R: to16(c[0]), G: to16(c[1]), B: to16(c[2]), A: to16(c[3])}
}

// Set implements the [draw.Image] interface.
func (b *Buffer) Set(x, y int, c color.Color) {
	r, g, bl, a := c.RGBA()
	b.SetPixel(x, y, [4]float32{from16(r), from16(g), from16(bl), from16(a)})
}

// SetRGBA64 implements the [draw.RGBA64Image] interface.
func (b *Buffer) SetRGBA64(x, y int, c color.RGBA64) {
	b.SetPixel(x, y, [4]float32{from16(uint32(c.R)), from16(uint32(c.G)), from16(uint32(c.B)), from16(uint32(c.A))})
}

func to16(v float32) uint16 {
	return uint16(max(0, min(v, 1))*0xffff + 0.5)
}

func from16(v uint32) float32 {
	return float32(v) / 0xffff
}

// view restricts drawing to part of a buffer.
type view struct {
	*Buffer
	r image.Rectangle
}

func (v view) Bounds() image.Rectangle {
	return v.r
}
