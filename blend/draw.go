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

package blend

import (
	"image"

	"seehuhn.de/go/layers/pixel"
)

// Draw blends src onto dst inside r, using the given mode.  The source
// is scaled by opacity and, if mask is not nil, by the alpha channel of
// mask.  Pixels outside the mask rectangle are treated as fully masked.
func Draw(dst, src *pixel.Buffer, r image.Rectangle, mode Mode, opacity float32, mask *pixel.Buffer) {
	r = r.Intersect(dst.Rect).Intersect(src.Rect)
	if mask != nil {
		r = r.Intersect(mask.Rect)
	}
	if r.Empty() || !(opacity > 0) {
		return
	}
	opacity = min(opacity, 1)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := dst.Row(y, r.Min.X, r.Max.X)
		s := src.Row(y, r.Min.X, r.Max.X)
		var m []float32
		if mask != nil {
			m = mask.Row(y, r.Min.X, r.Max.X)
		}
		for i := 0; i < len(d); i += 4 {
			k := opacity
			if m != nil {
				k *= m[i+3]
			}
			if k <= 0 || s[i+3] <= 0 {
				continue
			}
			c := [4]float32{s[i] * k, s[i+1] * k, s[i+2] * k, s[i+3] * k}
			out := Pixel(mode, c, [4]float32(d[i:i+4]))
			copy(d[i:i+4], out[:])
		}
	}
}

// Lerp moves the pixels of dst inside r towards src, by the given weight.
// If mask is not nil, the weight is multiplied by the alpha channel of the
// mask.  A weight of 1 replaces dst by src.
func Lerp(dst, src *pixel.Buffer, r image.Rectangle, weight float32, mask *pixel.Buffer) {
	r = r.Intersect(dst.Rect).Intersect(src.Rect)
	if mask != nil {
		r = r.Intersect(mask.Rect)
	}
	if r.Empty() || !(weight > 0) {
		return
	}
	weight = min(weight, 1)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := dst.Row(y, r.Min.X, r.Max.X)
		s := src.Row(y, r.Min.X, r.Max.X)
		if mask == nil && weight == 1 {
			copy(d, s)
			continue
		}
		var m []float32
		if mask != nil {
			m = mask.Row(y, r.Min.X, r.Max.X)
		}
		for i := 0; i < len(d); i += 4 {
			w := weight
			if m != nil {
				w *= m[i+3]
			}
			for j := i; j < i+4; j++ {
				d[j] += w * (s[j] - d[j])
			}
		}
	}
}
