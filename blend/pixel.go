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

import "math"

// Pixel blends the premultiplied source colour src over the premultiplied
// backdrop dst, using the given mode.
func Pixel(mode Mode, src, dst [4]float32) [4]float32 {
	as := src[3]
	if as <= 0 {
		return dst
	}
	if mode == Normal {
		k := 1 - as
		return [4]float32{
			src[0] + k*dst[0],
			src[1] + k*dst[1],
			src[2] + k*dst[2],
			as + k*dst[3],
		}
	}
	ab := dst[3]
	if ab <= 0 {
		return src
	}

	var cs, cb [3]float64
	for i := range 3 {
		cs[i] = clamp01(float64(src[i]) / float64(as))
		cb[i] = clamp01(float64(dst[i]) / float64(ab))
	}

	var b [3]float64
	if mode.Separable() {
		f := separable[mode]
		for i := range 3 {
			b[i] = f(cs[i], cb[i])
		}
	} else {
		b = nonSeparable(mode, cs, cb)
	}

	fs, fb := float64(as), float64(ab)
	var res [4]float32
	for i := range 3 {
		res[i] = float32((1-fb)*float64(src[i]) + (1-fs)*float64(dst[i]) + fs*fb*b[i])
	}
	res[3] = float32(fs + fb*(1-fs))
	return res
}

var separable = [Hue]func(cs, cb float64) float64{
	Normal:     func(cs, _ float64) float64 { return cs },
	Multiply:   multiply,
	Screen:     screen,
	Overlay:    func(cs, cb float64) float64 { return hardLight(cb, cs) },
	Darken:     math.Min,
	Lighten:    math.Max,
	ColorDodge: colorDodge,
	ColorBurn:  colorBurn,
	HardLight:  hardLight,
	SoftLight:  softLight,
	Difference: func(cs, cb float64) float64 { return math.Abs(cb - cs) },
	Exclusion:  func(cs, cb float64) float64 { return cb + cs - 2*cb*cs },
}

func multiply(cs, cb float64) float64 {
	return cs * cb
}

func screen(cs, cb float64) float64 {
	return cb + cs - cb*cs
}

func colorDodge(cs, cb float64) float64 {
	switch {
	case cb == 0:
		return 0
	case cs >= 1:
		return 1
	}
	return math.Min(1, cb/(1-cs))
}

func colorBurn(cs, cb float64) float64 {
	switch {
	case cb >= 1:
		return 1
	case cs == 0:
		return 0
	}
	return 1 - math.Min(1, (1-cb)/cs)
}

func hardLight(cs, cb float64) float64 {
	if cs <= 0.5 {
		return multiply(2*cs, cb)
	}
	return screen(2*cs-1, cb)
}

func softLight(cs, cb float64) float64 {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	var d float64
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	} else {
		d = math.Sqrt(cb)
	}
	return cb + (2*cs-1)*(d-cb)
}

func nonSeparable(mode Mode, cs, cb [3]float64) [3]float64 {
	switch mode {
	case Hue:
		return setLum(setSat(cs, sat(cb)), lum(cb))
	case Saturation:
		return setLum(setSat(cb, sat(cs)), lum(cb))
	case Color:
		return setLum(cs, lum(cb))
	default: // Luminosity
		return setLum(cb, lum(cs))
	}
}

func lum(c [3]float64) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func setLum(c [3]float64, l float64) [3]float64 {
	d := l - lum(c)
	return clipColor([3]float64{c[0] + d, c[1] + d, c[2] + d})
}

func clipColor(c [3]float64) [3]float64 {
	l := lum(c)
	n := min(c[0], c[1], c[2])
	x := max(c[0], c[1], c[2])
	if n < 0 && l-n > 0 {
		for i := range c {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
	}
	if x > 1 && x-l > 0 {
		for i := range c {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func sat(c [3]float64) float64 {
	return max(c[0], c[1], c[2]) - min(c[0], c[1], c[2])
}

// setSat scales the colour c so that its saturation becomes s, keeping
// the order of the components.
func setSat(c [3]float64, s float64) [3]float64 {
	iMax, iMid, iMin := 0, 1, 2
	if c[iMax] < c[iMid] {
		iMax, iMid = iMid, iMax
	}
	if c[iMid] < c[iMin] {
		iMid, iMin = iMin, iMid
	}
	if c[iMax] < c[iMid] {
		iMax, iMid = iMid, iMax
	}

	var res [3]float64
	if c[iMax] > c[iMin] {
		res[iMid] = (c[iMid] - c[iMin]) * s / (c[iMax] - c[iMin])
		res[iMax] = s
	}
	return res
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
