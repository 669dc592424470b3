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
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"
)

// Resample scales src so that it covers dst, using bilinear interpolation.
func Resample(src *Buffer, dst image.Rectangle) *Buffer {
	if dst.Empty() {
		return New(dst)
	}
	if dst.Size() == src.Rect.Size() {
		res := New(dst)
		off := src.Rect.Min.Sub(dst.Min)
		for y := dst.Min.Y; y < dst.Max.Y; y++ {
			copy(res.Row(y, dst.Min.X, dst.Max.X), src.Row(y+off.Y, src.Rect.Min.X, src.Rect.Max.X))
		}
		return res
	}
	res := New(dst)
	draw.BiLinear.Scale(res, dst, src, src.Rect, draw.Src, nil)
	return res
}

// TransformInto draws src into dst, mapping source pixel coordinates to
// destination coordinates using m.  Only pixels inside clip are written.
// Pure integer translations are copied exactly, all other transformations
// use bilinear sampling.  The work done is proportional to the size of
// clip, not to the size of src.
func TransformInto(dst, src *Buffer, m matrix.Matrix, clip image.Rectangle) {
	clip = clip.Intersect(dst.Rect)
	if clip.Empty() || src.Rect.Empty() {
		return
	}

	if dx, dy, ok := integerShift(m); ok {
		r := src.Rect.Add(image.Pt(dx, dy)).Intersect(clip)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			copy(dst.Row(y, r.Min.X, r.Max.X), src.Row(y-dy, r.Min.X-dx, r.Max.X-dx))
		}
		return
	}

	dst.Clear(clip)
	s2d := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
	draw.BiLinear.Transform(view{dst, clip}, s2d, src, src.Rect, draw.Src, nil)
}

// integerShift reports whether m is a translation by whole pixels.
func integerShift(m matrix.Matrix) (dx, dy int, ok bool) {
	if m[0] != 1 || m[1] != 0 || m[2] != 0 || m[3] != 1 {
		return 0, 0, false
	}
	if m[4] != math.Trunc(m[4]) || m[5] != math.Trunc(m[5]) {
		return 0, 0, false
	}
	return int(m[4]), int(m[5]), true
}
