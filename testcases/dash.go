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
)

var dashCases = []TestCase{
	{
		Name:   "dash_equal",
		Path:   polyline(5, 32, 59, 32),
		Width:  64,
		Height: 64,
		Op:     dashed(4, 0, 8, 4),
	},
	{
		Name:   "dash_single_element",
		Path:   polyline(5, 32, 59, 32),
		Width:  64,
		Height: 64,
		Op:     dashed(4, 0, 10),
	},
	{
		Name:   "dash_three_element",
		Path:   polyline(5, 32, 59, 32),
		Width:  64,
		Height: 64,
		Op:     dashed(4, 0, 5, 3, 8),
	},
	{
		Name:   "dash_phase",
		Path:   polyline(5, 32, 59, 32),
		Width:  64,
		Height: 64,
		Op:     dashed(4, 6, 8, 4),
	},
	{
		Name:   "dash_phase_negative",
		Path:   polyline(5, 32, 59, 32),
		Width:  64,
		Height: 64,
		Op:     dashed(4, -5, 8, 4),
	},
	{
		Name:   "dash_corner",
		Path:   polyline(10, 50, 32, 14, 54, 50),
		Width:  64,
		Height: 64,
		Op:     dashed(6, 0, 30, 6),
	},
	{
		Name:   "dash_zero_round",
		Path:   polyline(8, 32, 56, 32),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      6,
			Cap:        graphics.LineCapRound,
			Join:       graphics.LineJoinRound,
			MiterLimit: 10,
			Dash:       []float64{0, 12},
		},
	},
	{
		Name:   "dash_zero_square",
		Path:   polyline(8, 32, 56, 32),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      6,
			Cap:        graphics.LineCapSquare,
			Join:       graphics.LineJoinMiter,
			MiterLimit: 10,
			Dash:       []float64{0, 12},
		},
	},
	{
		Name:   "dash_closed_square",
		Path:   polygon(16, 16, 48, 16, 48, 48, 16, 48),
		Width:  64,
		Height: 64,
		Op:     dashed(4, 0, 10, 5),
	},
	{
		Name:   "dash_closed_join",
		Path:   polygon(16, 16, 48, 16, 48, 48, 16, 48),
		Width:  64,
		Height: 64,
		Op:     dashed(4, 0, 32, 5),
	},
	{
		Name:   "dash_two_subpaths",
		Path:   polygon(8, 8, 28, 8, 28, 28, 8, 28).MoveTo(pt(36, 36)).LineTo(pt(56, 36)).LineTo(pt(56, 56)).Close(),
		Width:  64,
		Height: 64,
		Op:     dashed(3, 2, 12, 4),
	},
}
