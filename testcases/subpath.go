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

package testcases

import (
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/layers/shape"
)

var subpathCases = []TestCase{
	{
		Name:   "two_triangles",
		Path:   polygon(4, 44, 16, 20, 28, 44).MoveTo(pt(36, 44)).LineTo(pt(48, 20)).LineTo(pt(60, 44)).Close(),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "overlapping_rect_nonzero",
		Path:   overlapping(),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "overlapping_rect_evenodd",
		Path:   overlapping(),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: EvenOdd},
	},
	{
		Name:   "ring",
		Path:   ring(32, 32, 25, 12),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: EvenOdd},
	},
	{
		// fills close open subpaths implicitly
		Name:   "open_fill",
		Path:   polyline(10, 54, 32, 10, 54, 54),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "closed_fill",
		Path:   polygon(10, 54, 32, 10, 54, 54),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		// open subpaths are stroked with caps and without a closing line
		Name:   "open_stroke",
		Path:   polyline(10, 54, 32, 10, 54, 54),
		Width:  64,
		Height: 64,
		Op:     line(4, graphics.LineCapButt, graphics.LineJoinMiter),
	},
	{
		Name:   "closed_stroke",
		Path:   polygon(10, 54, 32, 10, 54, 54),
		Width:  64,
		Height: 64,
		Op:     line(4, graphics.LineCapButt, graphics.LineJoinMiter),
	},
}

func overlapping() *shape.Path {
	p := shape.Rectangle(10, 10, 40, 40)
	q := shape.Rectangle(24, 24, 54, 54)
	p.Subpaths = append(p.Subpaths, q.Subpaths...)
	return p
}

// ring returns two concentric circles, the inner one drawn in the
// opposite direction.
func ring(cx, cy, outer, inner float64) *shape.Path {
	p := shape.Ellipse(pt(cx, cy), outer, outer)
	q := shape.Ellipse(pt(cx, cy), inner, -inner)
	p.Subpaths = append(p.Subpaths, q.Subpaths...)
	return p
}
