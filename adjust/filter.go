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

package adjust

import (
	"math"

	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
)

// MaxRadius is the largest supported blur radius, in pixels.
const MaxRadius = 250

// GaussianBlur blurs the image.  Pixels outside the buffer are taken to
// be transparent.
type GaussianBlur struct {
	// Radius is the extent of the blur kernel in pixels, range
	// [0, MaxRadius].  The standard deviation is Radius/3.
	Radius float64
}

// Kind implements the [Adjustment] interface.
func (GaussianBlur) Kind() Kind { return KindGaussianBlur }

// Margin implements the [Adjustment] interface.
func (a GaussianBlur) Margin() int {
	return int(math.Ceil(paint.Clamp(a.Radius, 0, MaxRadius)))
}

// Normalize implements the [Adjustment] interface.
func (a GaussianBlur) Normalize() (Adjustment, error) {
	c := &checker{kind: a.Kind()}
	c.clamp("Radius", &a.Radius, 0, MaxRadius)
	return a, c.err()
}

// Apply implements the [Adjustment] interface.
func (a GaussianBlur) Apply(src *pixel.Buffer) *pixel.Buffer {
	k := gaussKernel(paint.Clamp(a.Radius, 0, MaxRadius))
	if len(k) == 1 {
		return src.Clone()
	}
	return convolve(convolve(src, k, true), k, false)
}

// gaussKernel returns the normalized weights for offsets -n, ..., n,
// where n = ceil(radius).
func gaussKernel(radius float64) []float32 {
	n := int(math.Ceil(radius))
	if n == 0 {
		return []float32{1}
	}
	sigma := radius / 3
	w := make([]float64, 2*n+1)
	var total float64
	for i := range w {
		x := float64(i - n)
		w[i] = math.Exp(-x * x / (2 * sigma * sigma))
		total += w[i]
	}
	k := make([]float32, len(w))
	for i, v := range w {
		k[i] = float32(v / total)
	}
	return k
}

// convolve applies the one-dimensional kernel k to all four channels of
// src, either horizontally or vertically.
func convolve(src *pixel.Buffer, k []float32, horizontal bool) *pixel.Buffer {
	dst := pixel.New(src.Rect)
	n := len(k) / 2
	r := src.Rect
	w, h := r.Dx(), r.Dy()

	step := 4
	if !horizontal {
		step = src.Stride
	}
	for y := range h {
		for x := range w {
			pos, size := x, w
			if !horizontal {
				pos, size = y, h
			}
			lo := max(-n, -pos)
			hi := min(n, size-1-pos)

			base := y*src.Stride + 4*x
			var acc [4]float32
			for d := lo; d <= hi; d++ {
				wgt := k[d+n]
				j := base + d*step
				acc[0] += wgt * src.Pix[j]
				acc[1] += wgt * src.Pix[j+1]
				acc[2] += wgt * src.Pix[j+2]
				acc[3] += wgt * src.Pix[j+3]
			}
			copy(dst.Pix[base:base+4], acc[:])
		}
	}
	return dst
}

// Sharpen applies an unsharp mask: the difference between the image and
// a blurred copy is amplified.
type Sharpen struct {
	// Amount is the strength of the effect, range [0, 10].
	Amount float64

	// Radius is the blur radius in pixels, range [0.1, MaxRadius].
	Radius float64

	// Threshold is the smallest difference which is sharpened, range
	// [0, 1].  This avoids amplifying noise in smooth areas.
	Threshold float64
}

// Kind implements the [Adjustment] interface.
func (Sharpen) Kind() Kind { return KindSharpen }

// Margin implements the [Adjustment] interface.
func (a Sharpen) Margin() int {
	return int(math.Ceil(paint.Clamp(a.Radius, 0.1, MaxRadius)))
}

// Normalize implements the [Adjustment] interface.
func (a Sharpen) Normalize() (Adjustment, error) {
	c := &checker{kind: a.Kind()}
	c.clamp("Amount", &a.Amount, 0, 10)
	c.clamp("Radius", &a.Radius, 0.1, MaxRadius)
	c.clamp("Threshold", &a.Threshold, 0, 1)
	return a, c.err()
}

// Apply implements the [Adjustment] interface.
func (a Sharpen) Apply(src *pixel.Buffer) *pixel.Buffer {
	n, _ := a.Normalize()
	a = n.(Sharpen)

	blurred := GaussianBlur{Radius: a.Radius}.Apply(src)
	amount := float32(a.Amount)
	threshold := float32(a.Threshold)

	dst := blurred // reuse the buffer
	for i := 0; i+3 < len(src.Pix); i += 4 {
		alpha := src.Pix[i+3]
		for j := i; j < i+3; j++ {
			v := src.Pix[j]
			diff := v - blurred.Pix[j]
			if diff > threshold || -diff > threshold {
				v += amount * diff
			}
			dst.Pix[j] = min(max(v, 0), alpha)
		}
		dst.Pix[i+3] = alpha
	}
	return dst
}
