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
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Matrices use the PDF convention: the point (x, y) is mapped to
// (m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]).

// Apply maps the point v using m.
func Apply(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*v.X + m[2]*v.Y + m[4],
		Y: m[1]*v.X + m[3]*v.Y + m[5],
	}
}

// ApplyLinear maps the vector v using the linear part of m.
func ApplyLinear(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*v.X + m[2]*v.Y,
		Y: m[1]*v.X + m[3]*v.Y,
	}
}

// Concat returns the matrix which first applies a and then b.
func Concat(a, b matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		b[0]*a[0] + b[2]*a[1],
		b[1]*a[0] + b[3]*a[1],
		b[0]*a[2] + b[2]*a[3],
		b[1]*a[2] + b[3]*a[3],
		b[0]*a[4] + b[2]*a[5] + b[4],
		b[1]*a[4] + b[3]*a[5] + b[5],
	}
}

// Invert returns the inverse of m.  The second return value is false if m
// is singular.
func Invert(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return matrix.Matrix{}, false
	}
	return matrix.Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, true
}

// Transform returns a new path with every point and control point of p
// mapped by m.
func Transform(p *Path, m matrix.Matrix) *Path {
	res := p.Clone()
	if res == nil {
		return nil
	}
	for i := range res.Subpaths {
		segs := res.Subpaths[i].Segments
		for j := range segs {
			n := 1
			switch segs[j].Op {
			case CurveTo:
				n = 3
			case ClosePath:
				n = 0
			}
			for k := range n {
				segs[j].Pts[k] = Apply(m, segs[j].Pts[k])
			}
		}
	}
	return res
}

// TransformRect returns the bounding box of the image of r under m.
func TransformRect(r rect.Rect, m matrix.Matrix) rect.Rect {
	corners := [4]vec.Vec2{
		Apply(m, vec.Vec2{X: r.LLx, Y: r.LLy}),
		Apply(m, vec.Vec2{X: r.URx, Y: r.LLy}),
		Apply(m, vec.Vec2{X: r.URx, Y: r.URy}),
		Apply(m, vec.Vec2{X: r.LLx, Y: r.URy}),
	}
	res := rect.Rect{LLx: corners[0].X, LLy: corners[0].Y, URx: corners[0].X, URy: corners[0].Y}
	for _, c := range corners[1:] {
		res.LLx = min(res.LLx, c.X)
		res.LLy = min(res.LLy, c.Y)
		res.URx = max(res.URx, c.X)
		res.URy = max(res.URy, c.Y)
	}
	return res
}

// PixelRect returns the smallest integer rectangle containing r.
// Non-finite or empty rectangles give the empty rectangle.
func PixelRect(r rect.Rect) image.Rectangle {
	if !finite(r.LLx, r.LLy, r.URx, r.URy) || r.URx < r.LLx || r.URy < r.LLy {
		return image.Rectangle{}
	}
	const limit = 1 << 30
	clampInt := func(v float64) int {
		return int(max(-limit, min(v, limit)))
	}
	return image.Rect(
		clampInt(math.Floor(r.LLx)),
		clampInt(math.Floor(r.LLy)),
		clampInt(math.Ceil(r.URx)),
		clampInt(math.Ceil(r.URy)),
	)
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
