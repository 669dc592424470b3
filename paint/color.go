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

// Package paint describes how shapes are coloured: solid colours,
// gradients, raster patterns and stroke styles.
//
// All types in this package are plain values.  A [Fill] is turned into
// pixel values by a [Sampler], which maps device pixel centres back into
// the fill's own coordinate system.
package paint

import (
	"golang.org/x/exp/constraints"

	"seehuhn.de/go/layers/pixel"
)

// Color is a straight alpha colour.  The R, G and B components are sRGB
// encoded, as picked by a user; all components are in the range [0, 1].
type Color struct {
	R, G, B, A float64
}

// Some frequently used colours.
var (
	Transparent = Color{}
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
)

// RGBA returns the colour with the given components, clamped to [0, 1].
func RGBA(r, g, b, a float64) Color {
	return Color{r, g, b, a}.Clamp()
}

// Clamp returns c with all components clamped to [0, 1].
func (c Color) Clamp() Color {
	return Color{
		R: Clamp(c.R, 0, 1),
		G: Clamp(c.G, 0, 1),
		B: Clamp(c.B, 0, 1),
		A: Clamp(c.A, 0, 1),
	}
}

// Premultiplied returns the linear-light, premultiplied representation
// used by pixel buffers.
func (c Color) Premultiplied() [4]float32 {
	c = c.Clamp()
	return [4]float32{
		float32(pixel.SRGBToLinear(c.R) * c.A),
		float32(pixel.SRGBToLinear(c.G) * c.A),
		float32(pixel.SRGBToLinear(c.B) * c.A),
		float32(c.A),
	}
}

// FromPremultiplied converts a pixel value back into a Color.
func FromPremultiplied(p [4]float32) Color {
	s := pixel.Straight(p)
	return Color{
		R: pixel.LinearToSRGB(float64(s[0])),
		G: pixel.LinearToSRGB(float64(s[1])),
		B: pixel.LinearToSRGB(float64(s[2])),
		A: float64(s[3]),
	}.Clamp()
}

// Clamp restricts v to the interval [lo, hi].  NaN is mapped to lo.
func Clamp[T constraints.Float](v, lo, hi T) T {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
