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
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"
)

// Errors wrapped by [GeometryError].
var (
	ErrNonFinite   = errors.New("non-finite coordinate")
	ErrNoMoveTo    = errors.New("subpath does not start with MoveTo")
	ErrSubdivision = errors.New("curve subdivision depth exceeded")
	ErrDegenerate  = errors.New("degenerate transformation")
)

// GeometryError reports a path which cannot be processed exactly.
// Callers recover by using the approximation returned alongside the
// error, and should log the error.
type GeometryError struct {
	Op  string
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("shape: %s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

// MaxSubdivisionDepth limits the recursion when flattening curves.  A
// single curve is never split into more than 2^MaxSubdivisionDepth lines.
const MaxSubdivisionDepth = 16

// Line is a straight line segment.
type Line struct {
	A, B vec.Vec2
}

// Validate checks the structural invariants of p.
func Validate(p *Path) error {
	if p == nil {
		return nil
	}
	for _, sp := range p.Subpaths {
		if len(sp.Segments) == 0 {
			return &GeometryError{Op: "validate", Err: ErrNoMoveTo}
		}
		for i, s := range sp.Segments {
			if (i == 0) != (s.Op == MoveTo) || s.Op == ClosePath {
				return &GeometryError{Op: "validate", Err: ErrNoMoveTo}
			}
			n := 1
			if s.Op == CurveTo {
				n = 3
			}
			for _, pt := range s.Pts[:n] {
				if !finite(pt.X, pt.Y) {
					return &GeometryError{Op: "validate", Err: ErrNonFinite}
				}
			}
		}
	}
	return nil
}

// BoundingBoxPath returns a closed rectangle covering the finite points of
// p.  This is used in place of p when p cannot be processed.
func BoundingBoxPath(p *Path) *Path {
	r, ok := ControlBounds(p)
	if !ok {
		return &Path{}
	}
	return Rectangle(r.LLx, r.LLy, r.URx, r.URy)
}

// Flatten approximates p by straight line segments, such that no point of
// the approximation is further than tolerance from the curve.  Closed
// subpaths include the closing line.
//
// Subdivision of each curve is limited to MaxSubdivisionDepth levels.  If
// the limit is reached, the segments computed so far are returned together
// with a [GeometryError].  If p contains non-finite coordinates, the
// outline of the bounding box of the finite points is returned instead,
// again together with a [GeometryError].
func Flatten(p *Path, tolerance float64) ([]Line, error) {
	if err := Validate(p); err != nil {
		lines, _ := Flatten(BoundingBoxPath(p), tolerance)
		return lines, &GeometryError{Op: "flatten", Err: errors.Unwrap(err)}
	}
	if !(tolerance > 0) {
		tolerance = 0
	}

	f := &flattener{tol2: tolerance * tolerance}
	for _, sp := range p.Subpaths {
		cur := sp.Start()
		for _, s := range sp.Segments[1:] {
			switch s.Op {
			case LineTo:
				f.emit(cur, s.Pts[0])
			case CurveTo:
				f.cubic(cur, s.Pts[0], s.Pts[1], s.Pts[2], 0)
			}
			cur = s.End()
		}
		if sp.Closed && cur != sp.Start() {
			f.emit(cur, sp.Start())
		}
	}
	if f.capped {
		return f.lines, &GeometryError{Op: "flatten", Err: ErrSubdivision}
	}
	return f.lines, nil
}

type flattener struct {
	tol2   float64
	lines  []Line
	capped bool
}

func (f *flattener) emit(a, b vec.Vec2) {
	f.lines = append(f.lines, Line{A: a, B: b})
}

func (f *flattener) cubic(p0, p1, p2, p3 vec.Vec2, depth int) {
	if flatEnough(p0, p1, p2, p3, f.tol2) {
		f.emit(p0, p3)
		return
	}
	if depth >= MaxSubdivisionDepth {
		f.capped = true
		f.emit(p0, p3)
		return
	}

	// de Casteljau split at t = 1/2
	p01 := p0.Add(p1).Mul(0.5)
	p12 := p1.Add(p2).Mul(0.5)
	p23 := p2.Add(p3).Mul(0.5)
	p012 := p01.Add(p12).Mul(0.5)
	p123 := p12.Add(p23).Mul(0.5)
	mid := p012.Add(p123).Mul(0.5)

	f.cubic(p0, p01, p012, mid, depth+1)
	f.cubic(mid, p123, p23, p3, depth+1)
}

// flatEnough reports whether both control points are within sqrt(tol2) of
// the chord from p0 to p3.  Since the curve lies in the convex hull of its
// control points, the chord is then a good enough approximation.
func flatEnough(p0, p1, p2, p3 vec.Vec2, tol2 float64) bool {
	return segDist2(p1, p0, p3) <= tol2 && segDist2(p2, p0, p3) <= tol2
}

// segDist2 returns the squared distance from q to the segment from a to b.
func segDist2(q, a, b vec.Vec2) float64 {
	d := b.Sub(a)
	l2 := d.Dot(d)
	w := q.Sub(a)
	if l2 == 0 {
		return w.Dot(w)
	}
	t := math.Max(0, math.Min(1, w.Dot(d)/l2))
	e := w.Sub(d.Mul(t))
	return e.Dot(e)
}
