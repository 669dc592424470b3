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

	"seehuhn.de/go/pdf/graphics"
)

// MinStrokeWidth is the smallest stroke width accepted.  Smaller widths,
// including zero and negative values, are raised to this value.
const MinStrokeWidth = 1.0 / 256

// DefaultMiterLimit is used when no miter limit is set.  This matches
// PDF and PostScript.
const DefaultMiterLimit = 10.0

// StrokeStyle describes how the outline of a path is drawn.
type StrokeStyle struct {
	// Width is the line width in the path's own coordinate system.
	Width float64

	Cap  graphics.LineCapStyle
	Join graphics.LineJoinStyle

	// MiterLimit bounds the length of miter joins, relative to the line
	// width.  Values below 1 are raised to 1.
	MiterLimit float64

	// Dash holds alternating on/off lengths.  Nil means a solid line.
	Dash      []float64
	DashPhase float64

	// Fill is used to paint the stroke.  Nil means solid black.
	Fill Fill
}

// Normalize returns a copy of s with all parameters moved into their valid
// range.
func (s StrokeStyle) Normalize() StrokeStyle {
	if !(s.Width >= MinStrokeWidth) || math.IsInf(s.Width, 0) {
		s.Width = MinStrokeWidth
	}
	switch {
	case s.MiterLimit == 0:
		s.MiterLimit = DefaultMiterLimit
	case !(s.MiterLimit >= 1):
		s.MiterLimit = 1
	}
	if math.IsNaN(s.DashPhase) || math.IsInf(s.DashPhase, 0) {
		s.DashPhase = 0
	}
	if s.Dash != nil {
		dash := make([]float64, len(s.Dash))
		total := 0.0
		for i, d := range s.Dash {
			if !(d > 0) || math.IsInf(d, 0) {
				d = 0
			}
			dash[i] = d
			total += d
		}
		if total == 0 {
			dash = nil
		}
		s.Dash = dash
	}
	if s.Fill == nil {
		s.Fill = Solid{Color: Black}
	}
	return s
}
