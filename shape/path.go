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

// Package shape implements resolution independent vector paths.
//
// A [Path] is a list of subpaths, each consisting of straight line and
// cubic Bézier segments.  Paths are values: [Transform] and the other
// functions in this package never modify their arguments.
package shape

import (
	"math"
	"strconv"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// Op identifies the kind of a path segment.
type Op uint8

// These are the segment kinds.
const (
	MoveTo Op = iota
	LineTo
	CurveTo
	ClosePath
)

func (op Op) String() string {
	switch op {
	case MoveTo:
		return "MoveTo"
	case LineTo:
		return "LineTo"
	case CurveTo:
		return "CurveTo"
	case ClosePath:
		return "ClosePath"
	default:
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
}

// Segment is a single path segment.  MoveTo and LineTo use Pts[0],
// CurveTo uses Pts[0] and Pts[1] as control points and Pts[2] as the end
// point.  ClosePath uses no points.
type Segment struct {
	Op  Op
	Pts [3]vec.Vec2
}

// End returns the point where the segment ends.
func (s Segment) End() vec.Vec2 {
	if s.Op == CurveTo {
		return s.Pts[2]
	}
	return s.Pts[0]
}

// Subpath is a connected piece of a path.
//
// The first segment is always a MoveTo.  The remaining segments are LineTo
// or CurveTo segments; ClosePath never appears inside Segments.  Whether the
// subpath is closed is recorded only in the Closed field.
type Subpath struct {
	Segments []Segment
	Closed   bool
}

// Start returns the starting point of the subpath.
func (sp *Subpath) Start() vec.Vec2 {
	return sp.Segments[0].Pts[0]
}

// Current returns the end point of the last segment.
func (sp *Subpath) Current() vec.Vec2 {
	return sp.Segments[len(sp.Segments)-1].End()
}

// Path is a sequence of subpaths.
type Path struct {
	Subpaths []Subpath
}

// Empty reports whether p has no drawing segments.
func (p *Path) Empty() bool {
	if p == nil {
		return true
	}
	for _, sp := range p.Subpaths {
		if len(sp.Segments) > 1 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of p.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	res := &Path{Subpaths: make([]Subpath, len(p.Subpaths))}
	for i, sp := range p.Subpaths {
		res.Subpaths[i] = Subpath{
			Segments: append([]Segment(nil), sp.Segments...),
			Closed:   sp.Closed,
		}
	}
	return res
}

// current returns the subpath which new segments are appended to, starting
// a new one if needed.  After a subpath has been closed, drawing continues
// from its start point in a new subpath.
func (p *Path) current() *Subpath {
	n := len(p.Subpaths)
	if n == 0 {
		return nil
	}
	last := &p.Subpaths[n-1]
	if last.Closed {
		p.MoveTo(last.Start())
		return &p.Subpaths[n]
	}
	return last
}

// MoveTo starts a new subpath at pt.
func (p *Path) MoveTo(pt vec.Vec2) *Path {
	if n := len(p.Subpaths); n > 0 {
		last := &p.Subpaths[n-1]
		if len(last.Segments) == 1 && !last.Closed {
			// consecutive MoveTo operations replace each other
			last.Segments[0].Pts[0] = pt
			return p
		}
	}
	p.Subpaths = append(p.Subpaths, Subpath{
		Segments: []Segment{{Op: MoveTo, Pts: [3]vec.Vec2{pt}}},
	})
	return p
}

// LineTo appends a straight line to pt.  If there is no current point,
// a new subpath is started at pt.
func (p *Path) LineTo(pt vec.Vec2) *Path {
	sp := p.current()
	if sp == nil {
		return p.MoveTo(pt)
	}
	sp.Segments = append(sp.Segments, Segment{Op: LineTo, Pts: [3]vec.Vec2{pt}})
	return p
}

// CurveTo appends a cubic Bézier curve with control points c1 and c2,
// ending at end.
func (p *Path) CurveTo(c1, c2, end vec.Vec2) *Path {
	sp := p.current()
	if sp == nil {
		p.MoveTo(c1)
		sp = &p.Subpaths[len(p.Subpaths)-1]
	}
	sp.Segments = append(sp.Segments, Segment{Op: CurveTo, Pts: [3]vec.Vec2{c1, c2, end}})
	return p
}

// QuadTo appends a quadratic Bézier curve, converted to cubic form.
func (p *Path) QuadTo(c, end vec.Vec2) *Path {
	sp := p.current()
	if sp == nil {
		return p.MoveTo(end)
	}
	start := sp.Current()
	c1 := start.Add(c.Sub(start).Mul(2.0 / 3))
	c2 := end.Add(c.Sub(end).Mul(2.0 / 3))
	return p.CurveTo(c1, c2, end)
}

// Close marks the current subpath as closed.
func (p *Path) Close() *Path {
	if n := len(p.Subpaths); n > 0 {
		p.Subpaths[n-1].Closed = true
	}
	return p
}

// Append adds a single segment to the path.
func (p *Path) Append(s Segment) *Path {
	switch s.Op {
	case MoveTo:
		return p.MoveTo(s.Pts[0])
	case LineTo:
		return p.LineTo(s.Pts[0])
	case CurveTo:
		return p.CurveTo(s.Pts[0], s.Pts[1], s.Pts[2])
	default:
		return p.Close()
	}
}

// Rectangle returns a closed rectangular path.
func Rectangle(x0, y0, x1, y1 float64) *Path {
	return (&Path{}).
		MoveTo(vec.Vec2{X: x0, Y: y0}).
		LineTo(vec.Vec2{X: x1, Y: y0}).
		LineTo(vec.Vec2{X: x1, Y: y1}).
		LineTo(vec.Vec2{X: x0, Y: y1}).
		Close()
}

// Ellipse returns a closed path approximating an axis-aligned ellipse by
// four cubic Bézier curves.
func Ellipse(center vec.Vec2, rx, ry float64) *Path {
	const k = 4 * (math.Sqrt2 - 1) / 3
	cx, cy := center.X, center.Y
	return (&Path{}).
		MoveTo(vec.Vec2{X: cx + rx, Y: cy}).
		CurveTo(vec.Vec2{X: cx + rx, Y: cy + k*ry}, vec.Vec2{X: cx + k*rx, Y: cy + ry}, vec.Vec2{X: cx, Y: cy + ry}).
		CurveTo(vec.Vec2{X: cx - k*rx, Y: cy + ry}, vec.Vec2{X: cx - rx, Y: cy + k*ry}, vec.Vec2{X: cx - rx, Y: cy}).
		CurveTo(vec.Vec2{X: cx - rx, Y: cy - k*ry}, vec.Vec2{X: cx - k*rx, Y: cy - ry}, vec.Vec2{X: cx, Y: cy - ry}).
		CurveTo(vec.Vec2{X: cx + k*rx, Y: cy - ry}, vec.Vec2{X: cx + rx, Y: cy - k*ry}, vec.Vec2{X: cx + rx, Y: cy}).
		Close()
}

// All returns an iterator over the segments of p, in the representation
// used by seehuhn.de/go/geom.  If fillClosed is set, every subpath is
// closed, as required for filling.
func (p *Path) All(fillClosed bool) path.Path {
	return func(yield func(path.Command, []vec.Vec2) bool) {
		if p == nil {
			return
		}
		var buf [3]vec.Vec2
		for _, sp := range p.Subpaths {
			for _, s := range sp.Segments {
				cmd, n := path.CmdLineTo, 1
				switch s.Op {
				case MoveTo:
					cmd = path.CmdMoveTo
				case CurveTo:
					cmd, n = path.CmdCubeTo, 3
				case ClosePath:
					continue
				}
				buf = s.Pts
				if !yield(cmd, buf[:n]) {
					return
				}
			}
			if sp.Closed || fillClosed {
				if !yield(path.CmdClose, nil) {
					return
				}
			}
		}
	}
}
