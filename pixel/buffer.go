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

// Package pixel implements the floating point pixel buffers used throughout
// the compositing pipeline.
//
// A [Buffer] stores four float32 values per pixel: red, green, blue and
// alpha.  Colour values are linear-light (not gamma encoded) and
// premultiplied by alpha.  All blending and filtering operates on this
// representation; conversion to and from gamma encoded 8 or 16 bit images
// happens only at the boundaries, see [FromImage] and [Buffer.NRGBA].
package pixel

import (
	"image"
)

// Buffer is a rectangle of premultiplied, linear-light RGBA pixels.
type Buffer struct {
	// Rect is the area covered by the buffer, in document pixels.
	Rect image.Rectangle

	// Pix holds the pixel data, four values per pixel, in row-major order.
	// The value for pixel (x, y) starts at Pix[PixOffset(x, y)].
	Pix []float32

	// Stride is the distance in Pix between vertically adjacent pixels.
	Stride int
}

// New allocates a transparent buffer covering r.
func New(r image.Rectangle) *Buffer {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Buffer{Rect: image.Rectangle{}}
	}
	return &Buffer{
		Rect:   r,
		Pix:    make([]float32, 4*w*h),
		Stride: 4 * w,
	}
}

// Bytes returns the memory needed for a buffer covering r.
func Bytes(r image.Rectangle) int64 {
	if r.Empty() {
		return 0
	}
	return int64(r.Dx()) * int64(r.Dy()) * 16
}

// PixOffset returns the index of the first element of Pix for pixel (x, y).
func (b *Buffer) PixOffset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Stride + (x-b.Rect.Min.X)*4
}

// Pixel returns the premultiplied value of pixel (x, y).
// Pixels outside the buffer are transparent.
func (b *Buffer) Pixel(x, y int) [4]float32 {
	if !(image.Point{x, y}).In(b.Rect) {
		return [4]float32{}
	}
	i := b.PixOffset(x, y)
	s := b.Pix[i : i+4 : i+4]
	return [4]float32{s[0], s[1], s[2], s[3]}
}

// SetPixel sets the premultiplied value of pixel (x, y).
// Writes outside the buffer are ignored.
func (b *Buffer) SetPixel(x, y int, c [4]float32) {
	if !(image.Point{x, y}).In(b.Rect) {
		return
	}
	i := b.PixOffset(x, y)
	s := b.Pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = c[0], c[1], c[2], c[3]
}

// Row returns the pixel data for the part of row y which lies between x0
// and x1.  The caller must make sure that the range is inside the buffer.
func (b *Buffer) Row(y, x0, x1 int) []float32 {
	i := b.PixOffset(x0, y)
	return b.Pix[i : i+4*(x1-x0)]
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	c := &Buffer{Rect: b.Rect, Stride: b.Stride}
	c.Pix = make([]float32, len(b.Pix))
	copy(c.Pix, b.Pix)
	return c
}

// Crop returns a copy of the part of b which lies inside r.
// Areas of r not covered by b are transparent.
func (b *Buffer) Crop(r image.Rectangle) *Buffer {
	c := New(r)
	c.CopyFrom(b, r)
	return c
}

// CopyFrom copies the pixels of src inside r into b.
func (b *Buffer) CopyFrom(src *Buffer, r image.Rectangle) {
	r = r.Intersect(b.Rect).Intersect(src.Rect)
	if r.Empty() {
		return
	}
	n := 4 * r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := b.PixOffset(r.Min.X, y)
		s := src.PixOffset(r.Min.X, y)
		copy(b.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// Clear makes the pixels of b inside r transparent.
func (b *Buffer) Clear(r image.Rectangle) {
	r = r.Intersect(b.Rect)
	if r.Empty() {
		return
	}
	n := 4 * r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := b.PixOffset(r.Min.X, y)
		clear(b.Pix[i : i+n])
	}
}

// Fill sets all pixels of b inside r to c.
func (b *Buffer) Fill(r image.Rectangle, c [4]float32) {
	r = r.Intersect(b.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := b.Row(y, r.Min.X, r.Max.X)
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = c[0], c[1], c[2], c[3]
		}
	}
}

// Opaque reports whether every pixel of b has alpha 1.
func (b *Buffer) Opaque() bool {
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] < 1 {
			return false
		}
	}
	return true
}
