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

package raster

import (
	"errors"
	"image"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/shape"
)

// Request describes a vector shape to be painted into a pixel buffer.
type Request struct {
	Path *shape.Path

	// Fill paints the interior of the path.  Nil means no fill.
	Fill paint.Fill
	Rule FillRule

	// Stroke paints the outline of the path.  Nil means no stroke.
	Stroke *paint.StrokeStyle

	// Transform maps path coordinates to document coordinates.
	Transform matrix.Matrix

	// Resolution is the number of device pixels per document unit.
	// Zero means 1.
	Resolution float64

	// Clip is the device pixel rectangle to render.
	Clip image.Rectangle

	// Flatness is the curve approximation tolerance in device pixels.
	// Zero means DefaultFlatness.
	Flatness float64
}

// CTM returns the matrix which maps path coordinates to device pixels.
func (req *Request) CTM() matrix.Matrix {
	res := req.Resolution
	if res <= 0 {
		res = 1
	}
	m := req.Transform
	if m == (matrix.Matrix{}) {
		m = matrix.Identity
	}
	return shape.Concat(m, matrix.Scale(res, res))
}

// Rasterize paints the shape described by req into a new buffer covering
// req.Clip.  The fill is painted first, the stroke on top.
//
// If the path cannot be rendered exactly, a [shape.GeometryError] is
// returned together with an approximate result.
func Rasterize(req *Request) (*pixel.Buffer, error) {
	dst := pixel.New(req.Clip)
	err := NewRasterizer(req.Clip).Paint(dst, req)
	return dst, err
}

// Paint draws the shape described by req onto dst, using source-over
// compositing.  Only pixels inside both req.Clip and dst are modified.
func (r *Rasterizer) Paint(dst *pixel.Buffer, req *Request) error {
	if req.Path == nil {
		return nil
	}
	ctm := req.CTM()
	deviceToFill, ok := shape.Invert(ctm)
	if !ok {
		return &shape.GeometryError{Op: "rasterize", Err: shape.ErrDegenerate}
	}

	p := req.Path
	err := shape.Validate(p)
	if err != nil {
		p = shape.BoundingBoxPath(p)
		err = &shape.GeometryError{Op: "rasterize", Err: errors.Unwrap(err)}
	}

	r.CTM = ctm
	r.Clip = req.Clip.Intersect(dst.Rect)
	r.Flatness = req.Flatness
	if !(r.Flatness > 0) {
		r.Flatness = DefaultFlatness
	}

	if req.Fill != nil {
		s := req.Fill.Sampler(deviceToFill)
		r.Fill(p, req.Rule, func(y, xMin int, cov []float32) {
			blendRow(dst, y, xMin, cov, s)
		})
	}
	if req.Stroke != nil {
		st := req.Stroke.Normalize()
		r.Width = st.Width
		r.Cap = st.Cap
		r.Join = st.Join
		r.MiterLimit = st.MiterLimit
		r.Dash = st.Dash
		r.DashPhase = st.DashPhase
		s := st.Fill.Sampler(deviceToFill)
		r.Stroke(p, func(y, xMin int, cov []float32) {
			blendRow(dst, y, xMin, cov, s)
		})
	}
	return err
}

// blendRow composites one row of coverage, painted with s, onto dst.
func blendRow(dst *pixel.Buffer, y, xMin int, cov []float32, s paint.Sampler) {
	row := dst.Row(y, xMin, xMin+len(cov))
	fy := float64(y) + 0.5
	for i, c := range cov {
		if c == 0 {
			continue
		}
		src := s.At(float64(xMin+i)+0.5, fy)
		d := row[4*i : 4*i+4 : 4*i+4]
		k := 1 - src[3]*c
		d[0] = src[0]*c + d[0]*k
		d[1] = src[1]*c + d[1]*k
		d[2] = src[2]*c + d[2]*k
		d[3] = src[3]*c + d[3]*k
	}
}
