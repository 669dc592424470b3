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
	"slices"

	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
)

// mapColors applies f to the unpremultiplied, gamma encoded colour of
// every non-transparent pixel of src and returns the result.
func mapColors(src *pixel.Buffer, f func(c *[3]float64)) *pixel.Buffer {
	dst := src.Clone()
	pix := dst.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		a := pix[i+3]
		if a <= 0 {
			continue
		}
		var c [3]float64
		for j := range 3 {
			c[j] = pixel.LinearToSRGB(paint.Clamp(float64(pix[i+j]/a), 0, 1))
		}
		f(&c)
		for j := range 3 {
			pix[i+j] = float32(pixel.SRGBToLinear(paint.Clamp(c[j], 0, 1))) * a
		}
	}
	return dst
}

// BrightnessContrast shifts and scales the colour values.
type BrightnessContrast struct {
	// Brightness is added to all colour values, range [-1, 1].
	Brightness float64

	// Contrast scales colour values around mid-grey, range [-1, 1].  The
	// value -1 maps everything to grey, 1 gives maximal contrast.
	Contrast float64
}

// Kind implements the [Adjustment] interface.
func (BrightnessContrast) Kind() Kind { return KindBrightnessContrast }

// Margin implements the [Adjustment] interface.
func (BrightnessContrast) Margin() int { return 0 }

// Normalize implements the [Adjustment] interface.
func (a BrightnessContrast) Normalize() (Adjustment, error) {
	c := &checker{kind: a.Kind()}
	c.clamp("Brightness", &a.Brightness, -1, 1)
	c.clamp("Contrast", &a.Contrast, -1, 1)
	return a, c.err()
}

// Apply implements the [Adjustment] interface.
func (a BrightnessContrast) Apply(src *pixel.Buffer) *pixel.Buffer {
	b := paint.Clamp(a.Brightness, -1, 1)
	k := contrastFactor(paint.Clamp(a.Contrast, -1, 1))
	return mapColors(src, func(c *[3]float64) {
		for i, v := range c {
			c[i] = (v+b-0.5)*k + 0.5
		}
	})
}

func contrastFactor(contrast float64) float64 {
	if contrast <= 0 {
		return 1 + contrast
	}
	return 1 / (1 - 0.99*contrast)
}

// Levels remaps the input range [InBlack, InWhite] to the output range
// [OutBlack, OutWhite], with a gamma correction in between.
type Levels struct {
	InBlack, InWhite   float64
	Gamma              float64 // range [0.1, 10]
	OutBlack, OutWhite float64
}

// DefaultLevels returns the identity levels adjustment.
func DefaultLevels() Levels {
	return Levels{InWhite: 1, Gamma: 1, OutWhite: 1}
}

// Kind implements the [Adjustment] interface.
func (Levels) Kind() Kind { return KindLevels }

// Margin implements the [Adjustment] interface.
func (Levels) Margin() int { return 0 }

// Normalize implements the [Adjustment] interface.
func (a Levels) Normalize() (Adjustment, error) {
	c := &checker{kind: a.Kind()}
	c.clamp("InBlack", &a.InBlack, 0, 1-1.0/255)
	c.clamp("InWhite", &a.InWhite, a.InBlack+1.0/255, 1)
	c.clamp("Gamma", &a.Gamma, 0.1, 10)
	c.clamp("OutBlack", &a.OutBlack, 0, 1)
	c.clamp("OutWhite", &a.OutWhite, 0, 1)
	return a, c.err()
}

// Apply implements the [Adjustment] interface.
func (a Levels) Apply(src *pixel.Buffer) *pixel.Buffer {
	n, _ := a.Normalize()
	a = n.(Levels)
	inv := 1 / a.Gamma
	lut := newLUT(func(v float64) float64 {
		v = paint.Clamp((v-a.InBlack)/(a.InWhite-a.InBlack), 0, 1)
		return a.OutBlack + (a.OutWhite-a.OutBlack)*math.Pow(v, inv)
	})
	return mapColors(src, func(c *[3]float64) {
		for i, v := range c {
			c[i] = lut.at(v)
		}
	})
}

// CurvePoint is a control point of a tone curve.
type CurvePoint struct {
	In, Out float64
}

// Curves applies piecewise linear tone curves.  The per-channel curves
// are applied first, then the composite curve to all channels.  An empty
// curve leaves the values unchanged.
type Curves struct {
	Composite        []CurvePoint
	Red, Green, Blue []CurvePoint
}

// Kind implements the [Adjustment] interface.
func (Curves) Kind() Kind { return KindCurves }

// Margin implements the [Adjustment] interface.
func (Curves) Margin() int { return 0 }

// Normalize implements the [Adjustment] interface.
// The control points are clamped to the unit square and sorted.
func (a Curves) Normalize() (Adjustment, error) {
	c := &checker{kind: a.Kind()}
	norm := func(name string, pts []CurvePoint) []CurvePoint {
		if len(pts) == 0 {
			return nil
		}
		res := slices.Clone(pts)
		for i := range res {
			c.clamp(name+".In", &res[i].In, 0, 1)
			c.clamp(name+".Out", &res[i].Out, 0, 1)
		}
		slices.SortStableFunc(res, func(p, q CurvePoint) int {
			switch {
			case p.In < q.In:
				return -1
			case p.In > q.In:
				return 1
			}
			return 0
		})
		return res
	}
	a.Composite = norm("Composite", a.Composite)
	a.Red = norm("Red", a.Red)
	a.Green = norm("Green", a.Green)
	a.Blue = norm("Blue", a.Blue)
	return a, c.err()
}

// Apply implements the [Adjustment] interface.
func (a Curves) Apply(src *pixel.Buffer) *pixel.Buffer {
	n, _ := a.Normalize()
	a = n.(Curves)
	comp := curveLUT(a.Composite)
	channels := [3]*lut{curveLUT(a.Red), curveLUT(a.Green), curveLUT(a.Blue)}
	return mapColors(src, func(c *[3]float64) {
		for i, v := range c {
			if channels[i] != nil {
				v = channels[i].at(v)
			}
			if comp != nil {
				v = comp.at(v)
			}
			c[i] = v
		}
	})
}

// curveLUT tabulates the piecewise linear curve through pts, which must
// be sorted.  Outside the range of the control points, the curve is
// constant.  Nil is returned for the identity curve.
func curveLUT(pts []CurvePoint) *lut {
	if len(pts) == 0 {
		return nil
	}
	return newLUT(func(v float64) float64 {
		n := len(pts)
		switch {
		case v <= pts[0].In:
			return pts[0].Out
		case v >= pts[n-1].In:
			return pts[n-1].Out
		}
		i := 1
		for pts[i].In < v {
			i++
		}
		p, q := pts[i-1], pts[i]
		if q.In <= p.In {
			return q.Out
		}
		return p.Out + (v-p.In)*(q.Out-p.Out)/(q.In-p.In)
	})
}

const lutSize = 1024

// lut is a lookup table for a function on [0, 1], with linear
// interpolation between the entries.
type lut [lutSize + 1]float64

func newLUT(f func(float64) float64) *lut {
	t := &lut{}
	for i := range t {
		t[i] = f(float64(i) / lutSize)
	}
	return t
}

func (t *lut) at(v float64) float64 {
	x := paint.Clamp(v, 0, 1) * lutSize
	i := int(x)
	if i >= lutSize {
		return t[lutSize]
	}
	u := x - float64(i)
	return t[i] + u*(t[i+1]-t[i])
}

// HueSaturation adjusts hue, saturation and lightness.
type HueSaturation struct {
	// Hue is a rotation of the colour wheel in degrees, range [-180, 180].
	// In colorize mode, this is the absolute hue.
	Hue float64

	// Saturation and Lightness are relative changes, range [-1, 1].
	// Positive values move towards 1, negative values towards 0.
	Saturation float64
	Lightness  float64

	// Colorize replaces the hue of all pixels by Hue.  The saturation
	// is then set to (Saturation+1)/2.
	Colorize bool
}

// Kind implements the [Adjustment] interface.
func (HueSaturation) Kind() Kind { return KindHueSaturation }

// Margin implements the [Adjustment] interface.
func (HueSaturation) Margin() int { return 0 }

// Normalize implements the [Adjustment] interface.
func (a HueSaturation) Normalize() (Adjustment, error) {
	c := &checker{kind: a.Kind()}
	c.clamp("Hue", &a.Hue, -180, 180)
	c.clamp("Saturation", &a.Saturation, -1, 1)
	c.clamp("Lightness", &a.Lightness, -1, 1)
	return a, c.err()
}

// Apply implements the [Adjustment] interface.
func (a HueSaturation) Apply(src *pixel.Buffer) *pixel.Buffer {
	n, _ := a.Normalize()
	a = n.(HueSaturation)
	return mapColors(src, func(c *[3]float64) {
		h, s, l := rgbToHSL(c[0], c[1], c[2])
		if a.Colorize {
			h = a.Hue / 360
			s = (a.Saturation + 1) / 2
		} else {
			h += a.Hue / 360
			s = relative(s, a.Saturation)
		}
		h -= math.Floor(h)
		l = relative(l, a.Lightness)
		c[0], c[1], c[2] = hslToRGB(h, s, l)
	})
}

// relative moves v towards 1 for positive d, and towards 0 for negative d.
func relative(v, d float64) float64 {
	if d > 0 {
		return v + (1-v)*d
	}
	return v + v*d
}

// rgbToHSL converts a colour to hue, saturation and lightness, all in the
// range [0, 1].
func rgbToHSL(r, g, b float64) (h, s, l float64) {
	hi := max(r, g, b)
	lo := min(r, g, b)
	l = (hi + lo) / 2
	d := hi - lo
	if d == 0 {
		return 0, 0, l
	}
	if l > 0.5 {
		s = d / (2 - hi - lo)
	} else {
		s = d / (hi + lo)
	}
	switch hi {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	t -= math.Floor(t)
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// Invert replaces every colour value v by 1-v.  Alpha is unchanged.
type Invert struct{}

// Kind implements the [Adjustment] interface.
func (Invert) Kind() Kind { return KindInvert }

// Margin implements the [Adjustment] interface.
func (Invert) Margin() int { return 0 }

// Normalize implements the [Adjustment] interface.
func (a Invert) Normalize() (Adjustment, error) { return a, nil }

// Apply implements the [Adjustment] interface.
func (Invert) Apply(src *pixel.Buffer) *pixel.Buffer {
	return mapColors(src, func(c *[3]float64) {
		for i, v := range c {
			c[i] = 1 - v
		}
	})
}
