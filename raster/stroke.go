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
	"math"
	"slices"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/layers/shape"
)

// strokeSegment is a flattened piece of a path, in path coordinates.
type strokeSegment struct {
	A, B vec.Vec2
	T    vec.Vec2 // unit tangent from A to B
	N    vec.Vec2 // unit normal, T rotated by 90° counter-clockwise
}

// Stroke computes the coverage of the outline of p, using Width, Cap,
// Join, MiterLimit, Dash and DashPhase.  Closed subpaths are joined at
// their start point, open subpaths get caps at both ends.
//
// The outline of every subpath (or dash) is built as a polygon, and all
// polygons are filled together using the nonzero rule, so that
// overlapping parts are painted only once.
func (r *Rasterizer) Stroke(p *shape.Path, emit func(y, xMin int, coverage []float32)) {
	r.flattenForStroke(p)
	if len(r.segStarts) == 0 && len(r.dots) == 0 {
		return
	}

	r.outline = r.outline[:0]
	r.outlineStarts = r.outlineStarts[:0]

	// subpaths without direction only show up with round caps
	if r.Cap == graphics.LineCapRound {
		for _, pt := range r.dots {
			start := len(r.outline)
			r.addArc(pt, r.Width/2, vec.Vec2{X: 1}, 2*math.Pi, true)
			r.outlineStarts = append(r.outlineStarts, start)
		}
	}

	if len(r.Dash) > 0 {
		r.strokeDashes()
	} else {
		for i := range r.segStarts {
			r.strokePolyline(subslice(r.segs, r.segStarts, i), r.segClosed[i])
		}
	}

	r.startEdges()
	for i, start := range r.outlineStarts {
		end := len(r.outline)
		if i+1 < len(r.outlineStarts) {
			end = r.outlineStarts[i+1]
		}
		poly := r.outline[start:end]
		for j := range poly {
			r.addEdge(poly[j], poly[(j+1)%len(poly)])
		}
	}
	r.scan(NonZero, emit)
}

// subslice returns the i-th run of segs, where starts gives the first
// index of each run.
func subslice(segs []strokeSegment, starts []int, i int) []strokeSegment {
	end := len(segs)
	if i+1 < len(starts) {
		end = starts[i+1]
	}
	return segs[starts[i]:end]
}

// strokePolyline appends the outline of one flattened subpath.  Polygons
// with fewer than three vertices are dropped.
func (r *Rasterizer) strokePolyline(segs []strokeSegment, closed bool) {
	start := len(r.outline)
	r.strokeSubpath(segs, closed)
	if len(r.outline)-start >= 3 {
		r.outlineStarts = append(r.outlineStarts, start)
	} else {
		r.outline = r.outline[:start]
	}
}

// strokeDashes splits the flattened subpaths into dashes and strokes
// each dash as an open subpath.
func (r *Rasterizer) strokeDashes() {
	r.applyDash()

	for _, run := range r.dashRuns {
		segs := r.dashSegs[run.from:run.to]

		// zero length dashes keep the direction of the underlying path
		if len(segs) == 1 && segs[0].A == segs[0].B {
			s := &segs[0]
			start := len(r.outline)
			switch r.Cap {
			case graphics.LineCapRound:
				r.addArc(s.A, r.Width/2, vec.Vec2{X: 1}, 2*math.Pi, true)
				r.outlineStarts = append(r.outlineStarts, start)
			case graphics.LineCapSquare:
				r.addSquare(s.A, s.T, r.Width/2)
				r.outlineStarts = append(r.outlineStarts, start)
			}
			continue
		}

		r.strokePolyline(segs, false)
	}
}

// flattenForStroke converts p into runs of line segments, one run per
// subpath.  Subpaths consisting of a single point are collected in r.dots.
func (r *Rasterizer) flattenForStroke(p *shape.Path) {
	r.segs = r.segs[:0]
	r.segStarts = r.segStarts[:0]
	r.segClosed = r.segClosed[:0]
	r.dots = r.dots[:0]

	for i := range p.Subpaths {
		sp := &p.Subpaths[i]
		if len(sp.Segments) == 0 {
			continue
		}
		first := len(r.segs)
		start := sp.Start()
		cur := start
		for _, s := range sp.Segments[1:] {
			switch s.Op {
			case shape.LineTo:
				r.addStrokeSegment(cur, s.Pts[0])
			case shape.CurveTo:
				r.flattenCubic(cur, s.Pts[0], s.Pts[1], s.Pts[2], r.addStrokeSegment)
			}
			cur = s.End()
		}
		if sp.Closed && cur != start {
			r.addStrokeSegment(cur, start)
		}

		switch {
		case len(r.segs) > first:
			r.segStarts = append(r.segStarts, first)
			r.segClosed = append(r.segClosed, sp.Closed)
		case len(sp.Segments) > 1 || sp.Closed:
			// the subpath was drawn, but has no extent
			r.dots = append(r.dots, start)
		}
	}
}

func (r *Rasterizer) addStrokeSegment(a, b vec.Vec2) {
	d := b.Sub(a)
	l := d.Length()
	if l < zeroLengthThreshold {
		return
	}
	t := d.Mul(1 / l)
	r.segs = append(r.segs, strokeSegment{A: a, B: b, T: t, N: vec.Vec2{X: -t.Y, Y: t.X}})
}

// cross returns the z-component of the cross product of two tangents.
// Positive values indicate a turn towards the +N side.
func cross(t1, t2 vec.Vec2) float64 {
	return t1.X*t2.Y - t1.Y*t2.X
}

// strokeSubpath appends the outline of a flattened subpath as a single
// polygon: first the +N side from start to end, then the -N side back.
// Joins are added on the outer side of each corner, on the inner side the
// two offset lines are intersected.
func (r *Rasterizer) strokeSubpath(segs []strokeSegment, closed bool) {
	if len(segs) == 0 {
		return
	}
	d := r.Width / 2
	first := &segs[0]
	last := &segs[len(segs)-1]

	if closed {
		wrap := cross(last.T, first.T)

		// +N side, forwards
		r.outline = append(r.outline, first.A.Add(first.N.Mul(d)))
		for i := range segs {
			seg := &segs[i]
			next := first
			turn := wrap
			if i < len(segs)-1 {
				next = &segs[i+1]
				turn = cross(seg.T, next.T)
			}
			switch {
			case math.Abs(turn) < collinearityThreshold:
				r.outline = append(r.outline, seg.B.Add(seg.N.Mul(d)), next.A.Add(next.N.Mul(d)))
			case turn > 0:
				r.innerCorner(seg.B, seg.T, next.T, seg.N, next.N, d, true)
			default:
				r.outline = append(r.outline, seg.B.Add(seg.N.Mul(d)))
				r.addJoin(seg.B, seg.T, next.T, d, true)
				r.outline = append(r.outline, next.A.Add(next.N.Mul(d)))
			}
		}

		// -N side, backwards, starting with the closing corner
		switch {
		case math.Abs(wrap) < collinearityThreshold:
			r.outline = append(r.outline, first.A.Sub(first.N.Mul(d)), last.B.Sub(last.N.Mul(d)))
		case wrap > 0:
			r.outline = append(r.outline, first.A.Sub(first.N.Mul(d)))
			r.addJoin(first.A, last.T, first.T, d, false)
			r.outline = append(r.outline, last.B.Sub(last.N.Mul(d)))
		default:
			r.innerCorner(first.A, last.T, first.T, last.N, first.N, d, false)
		}
		for i := len(segs) - 1; i > 0; i-- {
			seg, prev := &segs[i], &segs[i-1]
			turn := cross(prev.T, seg.T)
			switch {
			case math.Abs(turn) < collinearityThreshold:
				r.outline = append(r.outline, seg.A.Sub(seg.N.Mul(d)), prev.B.Sub(prev.N.Mul(d)))
			case turn > 0:
				r.outline = append(r.outline, seg.A.Sub(seg.N.Mul(d)))
				r.addJoin(seg.A, prev.T, seg.T, d, false)
				r.outline = append(r.outline, prev.B.Sub(prev.N.Mul(d)))
			default:
				r.innerCorner(seg.A, prev.T, seg.T, prev.N, seg.N, d, false)
			}
		}
		r.outline = append(r.outline, first.A.Sub(first.N.Mul(d)))
		return
	}

	// open subpath: cap, +N side, cap, -N side
	r.addCap(first.A, first.T.Mul(-1), d)

	skip := false
	for i := range segs {
		seg := &segs[i]
		if !skip {
			r.outline = append(r.outline, seg.A.Add(seg.N.Mul(d)))
		}
		skip = false
		if i == len(segs)-1 {
			r.outline = append(r.outline, seg.B.Add(seg.N.Mul(d)))
			break
		}
		next := &segs[i+1]
		turn := cross(seg.T, next.T)
		switch {
		case math.Abs(turn) < collinearityThreshold:
			r.outline = append(r.outline, seg.B.Add(seg.N.Mul(d)))
		case turn > 0:
			skip = r.innerCorner(seg.B, seg.T, next.T, seg.N, next.N, d, true)
		default:
			r.outline = append(r.outline, seg.B.Add(seg.N.Mul(d)))
			r.addJoin(seg.B, seg.T, next.T, d, true)
		}
	}

	r.addCap(last.B, last.T, d)

	skip = false
	for i := len(segs) - 1; i >= 0; i-- {
		seg := &segs[i]
		if !skip {
			r.outline = append(r.outline, seg.B.Sub(seg.N.Mul(d)))
		}
		skip = false
		if i == 0 {
			r.outline = append(r.outline, seg.A.Sub(seg.N.Mul(d)))
			break
		}
		prev := &segs[i-1]
		turn := cross(prev.T, seg.T)
		switch {
		case math.Abs(turn) < collinearityThreshold:
			r.outline = append(r.outline, seg.A.Sub(seg.N.Mul(d)))
		case turn > 0:
			r.outline = append(r.outline, seg.A.Sub(seg.N.Mul(d)))
			r.addJoin(seg.A, prev.T, seg.T, d, false)
		default:
			skip = r.innerCorner(seg.A, prev.T, seg.T, prev.N, seg.N, d, false)
		}
	}
}

// addCap appends a line cap at p.  The vector t points away from the line,
// d is half the line width.
func (r *Rasterizer) addCap(p, t vec.Vec2, d float64) {
	n := vec.Vec2{X: -t.Y, Y: t.X}
	switch r.Cap {
	case graphics.LineCapSquare:
		ext := p.Add(t.Mul(d))
		r.outline = append(r.outline, ext.Add(n.Mul(d)), ext.Sub(n.Mul(d)))
	case graphics.LineCapRound:
		r.addArc(p, d, n, -math.Pi, true)
	}
	// butt caps need no extra vertices
}

// innerIntersection returns the point where the two offset lines on the
// inner side of a corner at p meet.
func innerIntersection(p, t1, t2 vec.Vec2, d float64, plusSide bool) (vec.Vec2, bool) {
	cosTheta := t1.Dot(t2)
	if cosTheta > 1-1e-9 {
		return vec.Vec2{}, false
	}
	cosHalf := math.Sqrt((1 + cosTheta) / 2)
	if cosHalf < 1e-9 {
		return vec.Vec2{}, false
	}
	dir := vec.Vec2{X: -t1.Y, Y: t1.X}.Add(vec.Vec2{X: -t2.Y, Y: t2.X})
	if !plusSide {
		dir = dir.Mul(-1)
	}
	l := dir.Length()
	if l < 1e-9 {
		return vec.Vec2{}, false
	}
	return p.Add(dir.Mul(d / (l * cosHalf))), true
}

// innerCorner appends the vertices for the inner side of a corner.  The
// return value is true if the two offset lines were merged into a single
// intersection point, in which case the start of the next segment must not
// be added again.
func (r *Rasterizer) innerCorner(p, t1, t2, n1, n2 vec.Vec2, d float64, plusSide bool) bool {
	if q, ok := innerIntersection(p, t1, t2, d, plusSide); ok {
		r.outline = append(r.outline, q)
		return true
	}
	if plusSide {
		r.outline = append(r.outline, p.Add(n1.Mul(d)), p.Add(n2.Mul(d)))
	} else {
		r.outline = append(r.outline, p.Sub(n1.Mul(d)), p.Sub(n2.Mul(d)))
	}
	return false
}

// addJoin appends the outer side of a join at p, where the direction
// changes from t1 to t2.
func (r *Rasterizer) addJoin(p, t1, t2 vec.Vec2, d float64, plusSide bool) {
	cosTheta := t1.Dot(t2)
	sinTheta := cross(t1, t2)
	if math.Abs(sinTheta) < collinearityThreshold {
		return
	}
	if cosTheta < cuspCosineThreshold {
		// the path reverses: draw two caps instead of a join
		r.addCap(p, t1, d)
		r.addCap(p, t2.Mul(-1), d)
		return
	}

	n1 := vec.Vec2{X: -t1.Y, Y: t1.X}
	n2 := vec.Vec2{X: -t2.Y, Y: t2.X}

	switch r.Join {
	case graphics.LineJoinMiter:
		// the miter length, relative to the line width, is 1/cos(θ/2)
		cosHalf := math.Sqrt((1 + cosTheta) / 2)
		if cosHalf > 0 && 1/cosHalf <= r.MiterLimit+1e-10 {
			dir := n1.Add(n2)
			if !plusSide {
				dir = dir.Mul(-1)
			}
			if l := dir.Length(); l > zeroLengthThreshold {
				r.outline = append(r.outline, p.Add(dir.Mul(d/(l*cosHalf))))
			}
		}
		// beyond the miter limit, fall back to a bevel join

	case graphics.LineJoinRound:
		angle := math.Acos(max(-1, min(1, cosTheta)))
		if plusSide {
			if sinTheta < 0 {
				angle = -angle
			}
			r.addArc(p, d, n1, angle, false)
		} else {
			if sinTheta > 0 {
				angle = -angle
			}
			r.addArc(p, d, n2.Mul(-1), angle, false)
		}
	}
	// bevel joins need no extra vertices
}

// addArc appends vertices along a circular arc around center, starting in
// direction from and sweeping by the given angle (positive is
// counter-clockwise).  The start point is only added if includeStart is set.
func (r *Rasterizer) addArc(center vec.Vec2, radius float64, from vec.Vec2, sweep float64, includeStart bool) {
	rotate := func(v vec.Vec2, a float64) vec.Vec2 {
		c, s := math.Cos(a), math.Sin(a)
		return vec.Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
	}

	devRadius := max(
		r.transformLinear(vec.Vec2{X: radius}).Length(),
		r.transformLinear(vec.Vec2{Y: radius}).Length(),
	)

	n := 1
	if devRadius >= r.Flatness {
		// a chord spanning angle θ deviates from the circle by
		// radius*(1-cos(θ/2))
		step := 2 * math.Acos(1-r.Flatness/devRadius)
		if !(step > 0) {
			step = math.Pi / 4
		}
		n = max(int(math.Ceil(math.Abs(sweep)/step)), 1)
	}

	i0 := 1
	if includeStart {
		i0 = 0
	}
	for i := i0; i <= n; i++ {
		dir := rotate(from, sweep*float64(i)/float64(n))
		r.outline = append(r.outline, center.Add(dir.Mul(radius)))
	}
}

// addSquare appends a square of side 2*d centred at c and aligned with t.
// This is used for zero length dashes with square caps.
func (r *Rasterizer) addSquare(c, t vec.Vec2, d float64) {
	n := vec.Vec2{X: -t.Y, Y: t.X}
	r.outline = append(r.outline,
		c.Add(t.Mul(d)).Add(n.Mul(d)),
		c.Add(t.Mul(d)).Sub(n.Mul(d)),
		c.Sub(t.Mul(d)).Sub(n.Mul(d)),
		c.Sub(t.Mul(d)).Add(n.Mul(d)),
	)
}

// dashRun is the range of r.dashSegs belonging to one dash.
type dashRun struct {
	from, to int
}

// applyDash cuts the flattened subpaths into dashes.  The results are
// stored in r.dashSegs and r.dashRuns.  For closed subpaths which start
// and end inside a dash, the last and first dash are merged.
func (r *Rasterizer) applyDash() {
	r.dashSegs = r.dashSegs[:0]
	r.dashRuns = r.dashRuns[:0]

	dash := r.Dash
	k := len(dash)
	period := 0.0
	for _, d := range dash {
		period += d
	}
	if k%2 == 1 {
		period *= 2
	}
	if period <= 0 {
		return
	}
	phase := math.Mod(r.DashPhase, period)
	if phase < 0 {
		phase += period
	}

	for sp := range r.segStarts {
		segs := subslice(r.segs, r.segStarts, sp)
		closed := r.segClosed[sp]

		idx := 0
		dist := phase
		for dash[idx%k] > 0 && dist >= dash[idx%k] {
			dist -= dash[idx%k]
			idx++
		}
		left := dash[idx%k] - dist
		on := idx%2 == 0

		// a zero length dash at the very start gives a dot
		if on && left == 0 {
			s := segs[0]
			r.dashSegs = append(r.dashSegs, strokeSegment{A: s.A, B: s.A, T: s.T, N: s.N})
			r.dashRuns = append(r.dashRuns, dashRun{len(r.dashSegs) - 1, len(r.dashSegs)})
			idx++
			left = dash[idx%k]
			on = idx%2 == 0
		}

		startedOn := on
		firstFrom, firstTo := -1, -1
		dashFrom := len(r.dashSegs)

		j := 0
		pos := 0.0 // distance already consumed along segs[j]
		for j < len(segs) {
			s := segs[j]
			l := s.B.Sub(s.A).Length()
			rest := l - pos

			if left >= rest {
				if on {
					if pos > 0 {
						a := s.A.Add(s.B.Sub(s.A).Mul(pos / l))
						r.dashSegs = append(r.dashSegs, strokeSegment{A: a, B: s.B, T: s.T, N: s.N})
					} else {
						r.dashSegs = append(r.dashSegs, s)
					}
				}
				left -= rest
				j++
				pos = 0
				continue
			}

			// the current dash element ends inside this segment
			end := pos + left
			b := s.A.Add(s.B.Sub(s.A).Mul(end / l))
			if on {
				a := s.A.Add(s.B.Sub(s.A).Mul(pos / l))
				if dl := b.Sub(a).Length(); dl > zeroLengthThreshold {
					t := b.Sub(a).Mul(1 / dl)
					r.dashSegs = append(r.dashSegs, strokeSegment{A: a, B: b, T: t, N: vec.Vec2{X: -t.Y, Y: t.X}})
				} else if len(r.dashSegs) == dashFrom {
					r.dashSegs = append(r.dashSegs, strokeSegment{A: a, B: a, T: s.T, N: s.N})
				}
				if firstFrom < 0 && len(r.dashSegs) > dashFrom {
					firstFrom, firstTo = dashFrom, len(r.dashSegs)
				}
				if len(r.dashSegs) > dashFrom {
					r.dashRuns = append(r.dashRuns, dashRun{dashFrom, len(r.dashSegs)})
					dashFrom = len(r.dashSegs)
				}
			}
			pos = end
			idx++
			left = dash[idx%k]
			on = idx%2 == 0
		}

		if len(r.dashSegs) > dashFrom {
			if closed && startedOn && on && firstFrom >= 0 {
				// the path ends inside a dash which continues into the
				// first dash of the subpath
				r.dashSegs = append(r.dashSegs, r.dashSegs[firstFrom:firstTo]...)
				r.dashRuns = slices.DeleteFunc(r.dashRuns, func(run dashRun) bool {
					return run.from == firstFrom
				})
			}
			r.dashRuns = append(r.dashRuns, dashRun{dashFrom, len(r.dashSegs)})
		}
	}
}
