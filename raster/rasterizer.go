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

// Package raster converts vector paths into anti-aliased pixel coverage
// and paints filled and stroked paths into pixel buffers.
//
// Coverage is computed analytically: for every pixel the exact area
// covered by the (flattened) path is accumulated using signed cover and
// area values per pixel, in the style of font rasterizers.
package raster

import (
	"cmp"
	"image"
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/layers/shape"
)

// FillRule selects how the interior of a self-intersecting path is
// determined.
type FillRule int

// These are the supported fill rules.
const (
	NonZero FillRule = iota
	EvenOdd
)

// edge is a line segment in device coordinates.
type edge struct {
	x0, y0 float64
	x1, y1 float64
	dxdy   float64 // (x1-x0)/(y1-y0)
}

// Rasterizer computes the pixel coverage of filled and stroked paths.
// Coverage values range from 0 (pixel outside the shape) to 1 (pixel
// completely covered).  Internal buffers are reused between calls.
//
// A Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	// CTM maps path coordinates to device pixels.
	CTM matrix.Matrix

	// Clip restricts the output to this rectangle of device pixels.
	Clip image.Rectangle

	// Flatness is the maximal distance, in device pixels, between a curve
	// and its polygonal approximation.
	Flatness float64

	// Width is the stroke width in path coordinates.
	Width float64

	Cap        graphics.LineCapStyle
	Join       graphics.LineJoinStyle
	MiterLimit float64

	// Dash gives alternating on/off lengths in path coordinates.
	// Nil means a solid line.
	Dash      []float64
	DashPhase float64

	// denseLimit is the largest bounding box area, in pixels, which is
	// rasterized using full 2D accumulation buffers.
	denseLimit int

	cover       []float32 // signed cover per pixel, reused for the output
	area        []float32 // signed area per pixel
	edges       []edge
	active      []int  // indices into edges
	rowHasEdges []bool // used by the dense method

	outline       []vec.Vec2 // stroke polygons, all stored contiguously
	outlineStarts []int

	segs      []strokeSegment
	segStarts []int
	segClosed []bool
	dots      []vec.Vec2 // subpaths without extent
	dashSegs  []strokeSegment
	dashRuns  []dashRun

	haveBBox     bool
	bbMin, bbMax vec.Vec2
}

// NewRasterizer returns a Rasterizer for the given clip rectangle, with
// an identity CTM and PDF default stroke parameters.
func NewRasterizer(clip image.Rectangle) *Rasterizer {
	return &Rasterizer{
		CTM:        matrix.Identity,
		Clip:       clip,
		Flatness:   DefaultFlatness,
		Width:      1,
		Cap:        graphics.LineCapButt,
		Join:       graphics.LineJoinMiter,
		MiterLimit: defaultMiterLimit,
		denseLimit: denseLimit,
	}
}

// Fill computes the coverage of the interior of p.  Open subpaths are
// implicitly closed.  The emit callback receives the coverage row by row;
// the slice is only valid during the call.
func (r *Rasterizer) Fill(p *shape.Path, rule FillRule, emit func(y, xMin int, coverage []float32)) {
	r.startEdges()
	for i := range p.Subpaths {
		sp := &p.Subpaths[i]
		if len(sp.Segments) == 0 {
			continue
		}
		start := sp.Start()
		cur := start
		for _, s := range sp.Segments[1:] {
			switch s.Op {
			case shape.LineTo:
				r.addEdge(cur, s.Pts[0])
			case shape.CurveTo:
				r.flattenCubic(cur, s.Pts[0], s.Pts[1], s.Pts[2], r.addEdge)
			}
			cur = s.End()
		}
		if cur != start {
			r.addEdge(cur, start)
		}
	}
	r.scan(rule, emit)
}

// scan rasterizes the collected edges.
func (r *Rasterizer) scan(rule FillRule, emit func(y, xMin int, coverage []float32)) {
	box, ok := r.edgeBox()
	if !ok {
		return
	}
	if box.Dx()*box.Dy() < r.denseLimit {
		r.fillDense(box, rule, emit)
	} else {
		r.fillSparse(box, rule, emit)
	}
}

// transformLinear applies the linear part of the CTM to v.
func (r *Rasterizer) transformLinear(v vec.Vec2) vec.Vec2 {
	return shape.ApplyLinear(r.CTM, v)
}

// flattenCubic splits a cubic Bézier curve into lines.  The number of
// lines is chosen using Wang's formula, so that the device space error is
// at most r.Flatness.
func (r *Rasterizer) flattenCubic(p0, p1, p2, p3 vec.Vec2, emit func(a, b vec.Vec2)) {
	dd1 := r.transformLinear(p0.Sub(p1.Mul(2)).Add(p2))
	dd2 := r.transformLinear(p1.Sub(p2.Mul(2)).Add(p3))
	m := max(dd1.Length(), dd2.Length())

	n := 1
	if m > 0 {
		if nf := math.Sqrt(3 * m / (4 * r.Flatness)); nf > 1 {
			n = int(math.Ceil(min(nf, maxCurveSegments)))
		}
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		s := 1 - t
		pt := p0.Mul(s * s * s).
			Add(p1.Mul(3 * s * s * t)).
			Add(p2.Mul(3 * s * t * t)).
			Add(p3.Mul(t * t * t))
		emit(prev, pt)
		prev = pt
	}
}

func (r *Rasterizer) startEdges() {
	r.edges = r.edges[:0]
	r.haveBBox = false
}

// addEdge maps a line from path coordinates to device space and adds it
// to the edge list.
func (r *Rasterizer) addEdge(a, b vec.Vec2) {
	a = shape.Apply(r.CTM, a)
	b = shape.Apply(r.CTM, b)

	dy := b.Y - a.Y
	if dy > -horizontalEdgeThreshold && dy < horizontalEdgeThreshold {
		return
	}
	r.edges = append(r.edges, edge{
		x0: a.X, y0: a.Y,
		x1: b.X, y1: b.Y,
		dxdy: (b.X - a.X) / dy,
	})

	lo := vec.Vec2{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
	hi := vec.Vec2{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
	if !r.haveBBox {
		r.bbMin, r.bbMax = lo, hi
		r.haveBBox = true
		return
	}
	r.bbMin = vec.Vec2{X: min(r.bbMin.X, lo.X), Y: min(r.bbMin.Y, lo.Y)}
	r.bbMax = vec.Vec2{X: max(r.bbMax.X, hi.X), Y: max(r.bbMax.Y, hi.Y)}
}

// edgeBox returns the pixel rectangle touched by the edges, clipped.
func (r *Rasterizer) edgeBox() (image.Rectangle, bool) {
	if len(r.edges) == 0 {
		return image.Rectangle{}, false
	}
	const limit = 1 << 30
	lo := func(v float64) int { return int(max(-limit, min(math.Floor(v), limit))) }
	box := image.Rect(
		lo(r.bbMin.X), lo(r.bbMin.Y),
		lo(r.bbMax.X)+1, lo(r.bbMax.Y)+1,
	).Intersect(r.Clip)
	return box, !box.Empty()
}

// Coverage model
//
// Every edge which crosses a pixel adds a signed "cover" (its vertical
// extent inside the pixel, positive for downward edges) and a signed
// "area" (the cover, weighted by the fraction of the pixel to the right
// of the edge).  Scanning a row from left to right, the coverage of a
// pixel is the running sum of the covers of all pixels to its left, plus
// the area of the pixel itself.  Edges to the left of the clip rectangle
// are folded into the first column.

// accumulate adds the contribution of e within scanline y to the cover
// and area buffers, which are indexed by x-x0 for x in [x0, x1).
func accumulate(e *edge, y int, cover, area []float32, x0, x1 int) {
	top := max(float64(y), min(e.y0, e.y1))
	bot := min(float64(y+1), max(e.y0, e.y1))
	if bot <= top {
		return
	}

	sign := float32(1)
	if e.y1 < e.y0 {
		sign = -1
	}

	xa := e.x0 + e.dxdy*(top-e.y0)
	xb := e.x0 + e.dxdy*(bot-e.y0)
	left, right := min(xa, xb), max(xa, xb)
	pl := int(math.Floor(left))
	pr := int(math.Floor(right))

	switch {
	case pr < x0:
		c := sign * float32(bot-top)
		cover[0] += c
		area[0] += c
		return
	case pl >= x1:
		return
	case pl == pr:
		addSpan(e, top, bot, sign, pl, cover, area, x0, x1)
		return
	}

	// the edge crosses several pixel columns
	dydx := 1 / e.dxdy
	for px := pl; px <= pr; px++ {
		ya := e.y0 + dydx*(float64(px)-e.x0)
		yb := e.y0 + dydx*(float64(px+1)-e.x0)
		addSpan(e, max(min(ya, yb), top), min(max(ya, yb), bot), sign, px, cover, area, x0, x1)
	}
}

// addSpan records the part of e between top and bot, which lies inside
// pixel column px.
func addSpan(e *edge, top, bot float64, sign float32, px int, cover, area []float32, x0, x1 int) {
	if bot <= top || px >= x1 {
		return
	}
	c := sign * float32(bot-top)
	if px < x0 {
		cover[0] += c
		area[0] += c
		return
	}
	xMid := e.x0 + e.dxdy*((top+bot)/2-e.y0)
	i := px - x0
	cover[i] += c
	area[i] += c * float32(1-(xMid-float64(px)))
}

// integrate turns the accumulated cover and area values of one row into
// coverage values, in place.
func integrate(cover, area []float32, rule FillRule) {
	var acc float32
	for i := range cover {
		raw := acc + area[i]
		acc += cover[i]
		if raw < 0 {
			raw = -raw
		}
		if rule == NonZero {
			cover[i] = min(raw, 1)
		} else {
			m := raw - 2*float32(int(raw/2))
			cover[i] = 1 - abs32(1-m)
		}
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// trimZeros strips zero coverage from both ends of a row.
func trimZeros(coverage []float32) ([]float32, int) {
	lo, hi := 0, len(coverage)
	for lo < hi && coverage[lo] == 0 {
		lo++
	}
	for hi > lo && coverage[hi-1] == 0 {
		hi--
	}
	if lo == hi {
		return nil, 0
	}
	return coverage[lo:hi], lo
}

// fillDense rasterizes using accumulation buffers for the whole box.
// This is fastest for small shapes.
func (r *Rasterizer) fillDense(box image.Rectangle, rule FillRule, emit func(y, xMin int, coverage []float32)) {
	w, h := box.Dx(), box.Dy()
	n := w * h
	r.cover = slices.Grow(r.cover[:0], n)[:n]
	r.area = slices.Grow(r.area[:0], n)[:n]
	clear(r.cover)
	clear(r.area)
	r.rowHasEdges = slices.Grow(r.rowHasEdges[:0], h)[:h]
	clear(r.rowHasEdges)

	for i := range r.edges {
		e := &r.edges[i]
		yFirst := max(int(math.Floor(min(e.y0, e.y1))), box.Min.Y)
		yLast := min(int(math.Floor(max(e.y0, e.y1)))+1, box.Max.Y)
		for y := yFirst; y < yLast; y++ {
			row := y - box.Min.Y
			k := row * w
			accumulate(e, y, r.cover[k:k+w], r.area[k:k+w], box.Min.X, box.Max.X)
			r.rowHasEdges[row] = true
		}
	}

	for row := range h {
		if !r.rowHasEdges[row] {
			continue
		}
		k := row * w
		cov := r.cover[k : k+w]
		integrate(cov, r.area[k:k+w], rule)
		if trimmed, off := trimZeros(cov); trimmed != nil {
			emit(box.Min.Y+row, box.Min.X+off, trimmed)
		}
	}
}

// fillSparse rasterizes one scanline at a time, using an active edge
// list.  This keeps memory use proportional to the width of the shape.
func (r *Rasterizer) fillSparse(box image.Rectangle, rule FillRule, emit func(y, xMin int, coverage []float32)) {
	w := box.Dx()
	r.cover = slices.Grow(r.cover[:0], w)[:w]
	r.area = slices.Grow(r.area[:0], w)[:w]

	slices.SortFunc(r.edges, func(a, b edge) int {
		return cmp.Compare(min(a.y0, a.y1), min(b.y0, b.y1))
	})

	r.active = r.active[:0]
	next := 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		yTop, yBot := float64(y), float64(y+1)

		for next < len(r.edges) && min(r.edges[next].y0, r.edges[next].y1) < yBot {
			r.active = append(r.active, next)
			next++
		}
		if len(r.active) == 0 {
			continue
		}

		clear(r.cover)
		clear(r.area)
		touched := false
		for i := 0; i < len(r.active); {
			e := &r.edges[r.active[i]]
			if max(e.y0, e.y1) <= yTop {
				last := len(r.active) - 1
				r.active[i] = r.active[last]
				r.active = r.active[:last]
				continue
			}
			accumulate(e, y, r.cover, r.area, box.Min.X, box.Max.X)
			touched = true
			i++
		}
		if !touched {
			continue
		}

		integrate(r.cover, r.area, rule)
		if trimmed, off := trimZeros(r.cover); trimmed != nil {
			emit(y, box.Min.X+off, trimmed)
		}
	}
}

// DefaultFlatness is the default curve flattening tolerance in device
// pixels.
const DefaultFlatness = 0.25

const (
	defaultMiterLimit = 10.0

	// maxCurveSegments bounds the number of lines a single curve is split
	// into, also for extreme transformations.
	maxCurveSegments = 1 << 16

	denseLimit = 65536

	horizontalEdgeThreshold = 1e-10
	zeroLengthThreshold     = 1e-10
	collinearityThreshold   = 1e-6

	// cuspCosineThreshold detects a path turning back on itself,
	// cos(179.43°) ≈ -0.9999.
	cuspCosineThreshold = -0.9999
)
