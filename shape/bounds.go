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

package shape

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Bounds returns the tight axis-aligned bounding box of p.  For curves,
// the extrema of the curve are included rather than the control points.
// The second return value is false if p contains no points.
func Bounds(p *Path) (rect.Rect, bool) {
	var b bbox
	if p == nil {
		return rect.Rect{}, false
	}
	for _, sp := range p.Subpaths {
		var cur vec.Vec2
		for _, s := range sp.Segments {
			switch s.Op {
			case MoveTo, LineTo:
				b.add(s.Pts[0])
				cur = s.Pts[0]
			case CurveTo:
				b.add(s.Pts[2])
				for _, t := range cubicExtrema(cur, s.Pts[0], s.Pts[1], s.Pts[2]) {
					b.add(cubicAt(cur, s.Pts[0], s.Pts[1], s.Pts[2], t))
				}
				cur = s.Pts[2]
			}
		}
	}
	return b.r, b.ok
}

// ControlBounds returns the bounding box of all points and control points
// of p.  This contains the tight bounding box, but may be larger.
func ControlBounds(p *Path) (rect.Rect, bool) {
	var b bbox
	if p == nil {
		return rect.Rect{}, false
	}
	for _, sp := range p.Subpaths {
		for _, s := range sp.Segments {
			switch s.Op {
			case MoveTo, LineTo:
				b.add(s.Pts[0])
			case CurveTo:
				b.add(s.Pts[0])
				b.add(s.Pts[1])
				b.add(s.Pts[2])
			}
		}
	}
	return b.r, b.ok
}

type bbox struct {
	r  rect.Rect
	ok bool
}

func (b *bbox) add(v vec.Vec2) {
	if !finite(v.X, v.Y) {
		return
	}
	if !b.ok {
		b.r = rect.Rect{LLx: v.X, LLy: v.Y, URx: v.X, URy: v.Y}
		b.ok = true
		return
	}
	b.r.LLx = min(b.r.LLx, v.X)
	b.r.LLy = min(b.r.LLy, v.Y)
	b.r.URx = max(b.r.URx, v.X)
	b.r.URy = max(b.r.URy, v.Y)
}

// cubicAt evaluates the cubic Bézier curve at t.
func cubicAt(p0, p1, p2, p3 vec.Vec2, t float64) vec.Vec2 {
	s := 1 - t
	return p0.Mul(s * s * s).
		Add(p1.Mul(3 * s * s * t)).
		Add(p2.Mul(3 * s * t * t)).
		Add(p3.Mul(t * t * t))
}

// cubicExtrema returns the parameters in (0, 1) where one of the
// coordinates of the curve has a local extremum.
func cubicExtrema(p0, p1, p2, p3 vec.Vec2) []float64 {
	var ts []float64
	ts = appendRoots(ts, p0.X, p1.X, p2.X, p3.X)
	ts = appendRoots(ts, p0.Y, p1.Y, p2.Y, p3.Y)
	return ts
}

// appendRoots appends the zeros of the derivative of a one-dimensional
// cubic Bézier with coefficients x0, ..., x3, restricted to (0, 1).
//
// Up to a factor of 3, the derivative is a*t^2 + b*t + c where
// d_i = x_{i+1} - x_i, a = d0 - 2*d1 + d2, b = 2*(d1 - d0), c = d0.
func appendRoots(ts []float64, x0, x1, x2, x3 float64) []float64 {
	d0, d1, d2 := x1-x0, x2-x1, x3-x2
	a := d0 - 2*d1 + d2
	b := 2 * (d1 - d0)
	c := d0

	add := func(t float64) {
		if t > 0 && t < 1 {
			ts = append(ts, t)
		}
	}

	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) >= eps {
			add(-c / b)
		}
		return ts
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return ts
	}
	sq := math.Sqrt(disc)
	add((-b + sq) / (2 * a))
	add((-b - sq) / (2 * a))
	return ts
}
