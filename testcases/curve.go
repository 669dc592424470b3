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

var curveCases = []TestCase{
	{
		Name:   "cubic",
		Path:   cubic(10, 54, 10, 10, 54, 10, 54, 54).Close(),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "quadratic",
		Path:   (&shape.Path{}).MoveTo(pt(10, 54)).QuadTo(pt(32, 0), pt(54, 54)).Close(),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "circle",
		Path:   shape.Ellipse(pt(32, 32), 24, 24),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "circle_small",
		Path:   shape.Ellipse(pt(8.5, 8.5), 3, 3),
		Width:  16,
		Height: 16,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "ellipse",
		Path:   shape.Ellipse(pt(32, 32), 28, 12),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "cubic_loop",
		Path:   cubic(10, 40, 70, 0, -6, 0, 54, 40).Close(),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: EvenOdd},
	},
	{
		Name:   "cubic_scurve_stroked",
		Path:   cubic(8, 32, 24, -10, 40, 74, 56, 32),
		Width:  64,
		Height: 64,
		Op:     line(5, graphics.LineCapRound, graphics.LineJoinRound),
	},
	{
		Name:   "circle_stroked",
		Path:   shape.Ellipse(pt(32, 32), 20, 20),
		Width:  64,
		Height: 64,
		Op:     line(4, graphics.LineCapButt, graphics.LineJoinMiter),
	},
	{
		Name:   "cubic_degenerate",
		Path:   cubic(10, 10, 10, 10, 10, 10, 54, 54),
		Width:  64,
		Height: 64,
		Op:     line(3, graphics.LineCapButt, graphics.LineJoinMiter),
	},
}

// cubic returns an open path consisting of a single cubic Bézier curve.
func cubic(x0, y0, x1, y1, x2, y2, x3, y3 float64) *shape.Path {
	return (&shape.Path{}).
		MoveTo(pt(x0, y0)).
		CurveTo(pt(x1, y1), pt(x2, y2), pt(x3, y3))
}
