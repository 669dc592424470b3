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
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/layers/shape"
)

var ctmCases = []TestCase{
	{
		Name:   "scale_2x",
		Path:   shape.Rectangle(-4, -4, 4, 4),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
		CTM:    matrix.Scale(2, 2).Translate(32, 32),
	},
	{
		Name:   "rotate_45deg",
		Path:   shape.Rectangle(-15, -15, 15, 15),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
		CTM:    matrix.RotateDeg(45).Translate(32, 32),
	},
	{
		Name:   "circle_to_ellipse",
		Path:   shape.Ellipse(pt(0, 0), 12, 12),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
		CTM:    matrix.Scale(2, 1).Translate(32, 32),
	},
	{
		Name:   "shear",
		Path:   shape.Rectangle(-12, -12, 12, 12),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
		CTM:    matrix.Matrix{1, 0, 0.5, 1, 32, 32},
	},
	{
		Name:   "round_cap_nonuniform",
		Path:   polyline(-10, 0, 10, 0),
		Width:  64,
		Height: 64,
		Op:     line(4, graphics.LineCapRound, graphics.LineJoinRound),
		CTM:    matrix.Scale(2, 4).Translate(32, 32),
	},
	{
		Name:   "dash_scaled",
		Path:   polyline(-12, 0, 12, 0),
		Width:  64,
		Height: 64,
		Op:     dashed(2, 0, 4, 2),
		CTM:    matrix.Scale(2, 2).Translate(32, 32),
	},
}
