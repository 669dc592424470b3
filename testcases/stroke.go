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

var strokeCases = []TestCase{
	{
		Name:   "line_butt",
		Path:   polyline(10, 32, 54, 32),
		Width:  64,
		Height: 64,
		Op:     line(8, graphics.LineCapButt, graphics.LineJoinMiter),
	},
	{
		Name:   "line_round",
		Path:   polyline(10, 32, 54, 32),
		Width:  64,
		Height: 64,
		Op:     line(8, graphics.LineCapRound, graphics.LineJoinMiter),
	},
	{
		Name:   "line_square",
		Path:   polyline(10, 32, 54, 32),
		Width:  64,
		Height: 64,
		Op:     line(8, graphics.LineCapSquare, graphics.LineJoinMiter),
	},
	{
		Name:   "corner_miter",
		Path:   polyline(10, 50, 32, 14, 54, 50),
		Width:  64,
		Height: 64,
		Op:     line(6, graphics.LineCapButt, graphics.LineJoinMiter),
	},
	{
		Name:   "corner_round",
		Path:   polyline(10, 50, 32, 14, 54, 50),
		Width:  64,
		Height: 64,
		Op:     line(6, graphics.LineCapButt, graphics.LineJoinRound),
	},
	{
		Name:   "corner_bevel",
		Path:   polyline(10, 50, 32, 14, 54, 50),
		Width:  64,
		Height: 64,
		Op:     line(6, graphics.LineCapButt, graphics.LineJoinBevel),
	},
	{
		Name:   "sharp_miter_limit",
		Path:   polyline(10, 54, 32, 10, 36, 54),
		Width:  64,
		Height: 64,
		Op:     line(4, graphics.LineCapButt, graphics.LineJoinMiter),
	},
	{
		Name:   "reversal",
		Path:   polyline(10, 32, 50, 32, 20, 32),
		Width:  64,
		Height: 64,
		Op:     line(6, graphics.LineCapRound, graphics.LineJoinRound),
	},
	{
		Name:   "zigzag_thick",
		Path:   polyline(6, 50, 18, 14, 30, 50, 42, 14, 58, 50),
		Width:  64,
		Height: 64,
		Op:     line(7, graphics.LineCapSquare, graphics.LineJoinMiter),
	},
	{
		Name:   "dot_round",
		Path:   polyline(32, 32, 32, 32),
		Width:  64,
		Height: 64,
		Op:     line(10, graphics.LineCapRound, graphics.LineJoinRound),
	},
}
