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

package paint

import (
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/shape"
)

// Fill is one of [Solid], [Gradient] or [Pattern].
type Fill interface {
	// Sampler returns a sampler for the fill.  The matrix maps device
	// coordinates to the coordinate system of the fill.
	Sampler(deviceToFill matrix.Matrix) Sampler

	// MapColors returns a copy of the fill with f applied to all colours.
	MapColors(f func(Color) Color) Fill

	isFill()
}

// Sampler evaluates a fill at device positions.
type Sampler interface {
	// At returns the premultiplied, linear-light value at the device
	// position (x, y).  Pixel centres are at half-integer coordinates.
	At(x, y float64) [4]float32
}

// Solid fills with a single colour.
type Solid struct {
	Color Color
}

func (Solid) isFill() {}

// Sampler implements the [Fill] interface.
func (s Solid) Sampler(matrix.Matrix) Sampler {
	return constSampler(s.Color.Premultiplied())
}

// MapColors implements the [Fill] interface.
func (s Solid) MapColors(f func(Color) Color) Fill {
	return Solid{Color: f(s.Color).Clamp()}
}

type constSampler [4]float32

func (c constSampler) At(float64, float64) [4]float32 {
	return c
}

// Pattern fills with a repeated raster tile.
type Pattern struct {
	Tile *pixel.Buffer

	// Transform maps tile pixel coordinates to fill coordinates.
	// The zero matrix is treated as the identity.
	Transform matrix.Matrix
}

func (Pattern) isFill() {}

// MapColors implements the [Fill] interface.
func (p Pattern) MapColors(f func(Color) Color) Fill {
	if p.Tile == nil {
		return p
	}
	tile := p.Tile.Clone()
	for i := 0; i < len(tile.Pix); i += 4 {
		c := f(FromPremultiplied([4]float32(tile.Pix[i : i+4])))
		v := c.Premultiplied()
		copy(tile.Pix[i:i+4], v[:])
	}
	return Pattern{Tile: tile, Transform: p.Transform}
}

// Sampler implements the [Fill] interface.
func (p Pattern) Sampler(deviceToFill matrix.Matrix) Sampler {
	if p.Tile == nil || p.Tile.Rect.Empty() {
		return constSampler{}
	}
	m := p.Transform
	if m == (matrix.Matrix{}) {
		m = matrix.Identity
	}
	fillToTile, ok := shape.Invert(m)
	if !ok {
		return constSampler{}
	}
	return &patternSampler{
		tile: p.Tile,
		m:    shape.Concat(deviceToFill, fillToTile),
	}
}

type patternSampler struct {
	tile *pixel.Buffer
	m    matrix.Matrix
}

func (s *patternSampler) At(x, y float64) [4]float32 {
	q := shape.Apply(s.m, vec.Vec2{X: x, Y: y})
	r := s.tile.Rect
	tx := wrap(int(math.Floor(q.X))-r.Min.X, r.Dx()) + r.Min.X
	ty := wrap(int(math.Floor(q.Y))-r.Min.Y, r.Dy()) + r.Min.Y
	return s.tile.Pixel(tx, ty)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// GradientKind selects the geometry of a gradient.
type GradientKind int

// These are the supported gradient geometries.
const (
	Linear GradientKind = iota
	Radial
)

// Extend specifies how a gradient continues outside of [0, 1].
type Extend int

// These are the supported extend modes.
const (
	Pad Extend = iota
	Repeat
	Reflect
)

// Stop is a colour stop of a gradient.
type Stop struct {
	Offset float64
	Color  Color
}

// Gradient is a linear or radial colour gradient.  Colours are
// interpolated linearly in premultiplied space, so that a stop with zero
// alpha does not tint its neighbours.
type Gradient struct {
	Kind GradientKind

	// Start and End give the gradient axis for linear gradients.  For
	// radial gradients, Start is the centre.
	Start, End vec.Vec2

	// Radius is the radius of a radial gradient.
	Radius float64

	// Stops must be ordered by offset.
	Stops []Stop

	Extend Extend
}

func (*Gradient) isFill() {}

// MapColors implements the [Fill] interface.
func (g *Gradient) MapColors(f func(Color) Color) Fill {
	res := *g
	res.Stops = make([]Stop, len(g.Stops))
	for i, s := range g.Stops {
		res.Stops[i] = Stop{Offset: s.Offset, Color: f(s.Color).Clamp()}
	}
	return &res
}

// At returns the premultiplied colour at position t along the gradient,
// without applying the extend mode.
func (g *Gradient) At(t float64) [4]float32 {
	return newGradientSampler(g, matrix.Identity).colorAt(t)
}

// Sampler implements the [Fill] interface.
func (g *Gradient) Sampler(deviceToFill matrix.Matrix) Sampler {
	return newGradientSampler(g, deviceToFill)
}

type gradientSampler struct {
	g       *Gradient
	m       matrix.Matrix
	offsets []float64
	colors  [][4]float32
}

func newGradientSampler(g *Gradient, m matrix.Matrix) *gradientSampler {
	stops := slices.Clone(g.Stops)
	slices.SortStableFunc(stops, func(a, b Stop) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	s := &gradientSampler{g: g, m: m}
	for _, st := range stops {
		s.offsets = append(s.offsets, Clamp(st.Offset, 0, 1))
		s.colors = append(s.colors, st.Color.Premultiplied())
	}
	return s
}

func (s *gradientSampler) At(x, y float64) [4]float32 {
	p := shape.Apply(s.m, vec.Vec2{X: x, Y: y})
	return s.colorAt(s.extend(s.param(p)))
}

// param returns the unextended gradient parameter at fill position p.
func (s *gradientSampler) param(p vec.Vec2) float64 {
	g := s.g
	switch g.Kind {
	case Radial:
		if g.Radius <= 0 {
			return 1
		}
		return p.Sub(g.Start).Length() / g.Radius
	default:
		d := g.End.Sub(g.Start)
		l2 := d.Dot(d)
		if l2 == 0 {
			return 0
		}
		return p.Sub(g.Start).Dot(d) / l2
	}
}

func (s *gradientSampler) extend(t float64) float64 {
	switch s.g.Extend {
	case Repeat:
		return t - math.Floor(t)
	case Reflect:
		t = math.Mod(math.Abs(t), 2)
		if t > 1 {
			t = 2 - t
		}
		return t
	default:
		return Clamp(t, 0, 1)
	}
}

func (s *gradientSampler) colorAt(t float64) [4]float32 {
	n := len(s.offsets)
	switch {
	case n == 0:
		return [4]float32{}
	case t <= s.offsets[0]:
		return s.colors[0]
	case t >= s.offsets[n-1]:
		return s.colors[n-1]
	}
	i := 1
	for s.offsets[i] < t {
		i++
	}
	t0, t1 := s.offsets[i-1], s.offsets[i]
	if t1 <= t0 {
		return s.colors[i]
	}
	u := float32((t - t0) / (t1 - t0))
	c0, c1 := s.colors[i-1], s.colors[i]
	return [4]float32{
		c0[0] + u*(c1[0]-c0[0]),
		c0[1] + u*(c1[1]-c0[1]),
		c0[2] + u*(c1[2]-c0[2]),
		c0[3] + u*(c1[3]-c0[3]),
	}
}
