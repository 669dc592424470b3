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

// Package testcases holds the geometry used to test and benchmark the
// rasterizer: fills, strokes, curves, dashes, subpaths and transformed
// shapes.
package testcases

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/layers/shape"
)

// TestCase defines a single rendering test.
type TestCase struct {
	Name   string        // lowercase a-z, 0-9 and _ only
	Path   *shape.Path   // the geometry to render
	Width  int           // canvas width in pixels
	Height int           // canvas height in pixels
	Op     Operation     // fill or stroke
	CTM    matrix.Matrix // zero value means identity
}

// Operation is the rendering operation applied to the path.
type Operation interface {
	isOperation()
}

// FillRule specifies the rule for determining interior points.
type FillRule int

// These are the fill rules.
const (
	NonZero FillRule = iota
	EvenOdd
)

// Fill specifies a fill operation.
type Fill struct {
	Rule FillRule
}

func (Fill) isOperation() {}

// Stroke specifies a stroke operation.
type Stroke struct {
	Width      float64
	Cap        graphics.LineCapStyle
	Join       graphics.LineJoinStyle
	MiterLimit float64
	Dash       []float64
	DashPhase  float64
}

func (Stroke) isOperation() {}

// All holds all test cases, grouped by category.
var All = map[string][]TestCase{
	"fill":    fillCases,
	"stroke":  strokeCases,
	"curve":   curveCases,
	"dash":    dashCases,
	"subpath": subpathCases,
	"ctm":     ctmCases,
}

func pt(x, y float64) vec.Vec2 {
	return vec.Vec2{X: x, Y: y}
}

// line returns a stroke with the given width, cap and join, and the
// default miter limit.
func line(width float64, c graphics.LineCapStyle, j graphics.LineJoinStyle) Stroke {
	return Stroke{Width: width, Cap: c, Join: j, MiterLimit: 10}
}

// dashed returns a butt-capped stroke with the given dash pattern.
func dashed(width float64, phase float64, dash ...float64) Stroke {
	s := line(width, graphics.LineCapButt, graphics.LineJoinMiter)
	s.Dash = dash
	s.DashPhase = phase
	return s
}

// polyline returns an open path through the given points, given as
// alternating x and y coordinates.
func polyline(xy ...float64) *shape.Path {
	p := &shape.Path{}
	p.MoveTo(pt(xy[0], xy[1]))
	for i := 2; i+1 < len(xy); i += 2 {
		p.LineTo(pt(xy[i], xy[i+1]))
	}
	return p
}

// polygon returns a closed path through the given points.
func polygon(xy ...float64) *shape.Path {
	return polyline(xy...).Close()
}
