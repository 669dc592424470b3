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
	"math"
	"slices"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func testPath() *Path {
	return (&Path{}).
		MoveTo(vec.Vec2{X: 1, Y: 2}).
		LineTo(vec.Vec2{X: 10, Y: 2}).
		CurveTo(vec.Vec2{X: 14, Y: 2}, vec.Vec2{X: 14, Y: 9}, vec.Vec2{X: 10, Y: 9}).
		Close().
		MoveTo(vec.Vec2{X: 20, Y: 20}).
		LineTo(vec.Vec2{X: 25, Y: 30})
}

func pathsClose(a, b *Path, eps float64) bool {
	if len(a.Subpaths) != len(b.Subpaths) {
		return false
	}
	for i := range a.Subpaths {
		sa, sb := a.Subpaths[i], b.Subpaths[i]
		if sa.Closed != sb.Closed || len(sa.Segments) != len(sb.Segments) {
			return false
		}
		for j := range sa.Segments {
			if sa.Segments[j].Op != sb.Segments[j].Op {
				return false
			}
			for k := range 3 {
				d := sa.Segments[j].Pts[k].Sub(sb.Segments[j].Pts[k])
				if d.Length() > eps {
					return false
				}
			}
		}
	}
	return true
}

func TestTransformComposition(t *testing.T) {
	p := testPath()
	ms := []matrix.Matrix{
		matrix.Identity,
		matrix.Scale(2, 0.5),
		matrix.RotateDeg(30),
		matrix.RotateDeg(-75).Translate(3, -8),
		{1, 0.5, -0.25, 1, 7, 11},
	}
	for _, m1 := range ms {
		for _, m2 := range ms {
			lhs := Transform(Transform(p, m1), m2)
			rhs := Transform(p, Concat(m1, m2))
			if !pathsClose(lhs, rhs, 1e-9) {
				t.Errorf("transform(transform(P, %v), %v) != transform(P, M1∘M2)", m1, m2)
			}
		}
	}
}

func TestTransformDoesNotModify(t *testing.T) {
	p := testPath()
	orig := p.Clone()
	_ = Transform(p, matrix.Scale(3, 3))
	if !pathsClose(p, orig, 0) {
		t.Error("input path was modified")
	}
}

func TestTransformIdentity(t *testing.T) {
	p := testPath()
	if !pathsClose(Transform(p, matrix.Identity), p, 0) {
		t.Error("identity changed the path")
	}
}

func TestInvert(t *testing.T) {
	m := matrix.Matrix{2, 1, -1, 3, 5, -7}
	inv, ok := Invert(m)
	if !ok {
		t.Fatal("matrix reported singular")
	}
	id := Concat(m, inv)
	for i := range 6 {
		if math.Abs(id[i]-matrix.Identity[i]) > 1e-12 {
			t.Fatalf("m∘m⁻¹ = %v", id)
		}
	}

	if _, ok := Invert(matrix.Scale(0, 1)); ok {
		t.Error("singular matrix was inverted")
	}
}

func TestBoundsTight(t *testing.T) {
	// the control points stick out to y=10, but the curve only reaches 7.5
	p := (&Path{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		CurveTo(vec.Vec2{X: 0, Y: 10}, vec.Vec2{X: 10, Y: 10}, vec.Vec2{X: 10, Y: 0})

	got, ok := Bounds(p)
	if !ok {
		t.Fatal("no bounds")
	}
	want := rect.Rect{LLx: 0, LLy: 0, URx: 10, URy: 7.5}
	if math.Abs(got.LLx-want.LLx) > 1e-9 || math.Abs(got.LLy-want.LLy) > 1e-9 ||
		math.Abs(got.URx-want.URx) > 1e-9 || math.Abs(got.URy-want.URy) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}

	cb, _ := ControlBounds(p)
	if cb.URy != 10 {
		t.Errorf("control bounds: got %v", cb)
	}
}

func TestBoundsEmpty(t *testing.T) {
	if _, ok := Bounds(&Path{}); ok {
		t.Error("empty path has bounds")
	}
}

func TestFlatten(t *testing.T) {
	circle := Ellipse(vec.Vec2{X: 50, Y: 50}, 40, 40)
	for _, tol := range []float64{1, 0.25, 0.01} {
		lines, err := Flatten(circle, tol)
		if err != nil {
			t.Fatalf("tol=%g: %v", tol, err)
		}
		if len(lines) < 4 {
			t.Fatalf("tol=%g: only %d lines", tol, len(lines))
		}
		for _, l := range lines {
			// all vertices lie on the (approximate) circle
			r := l.A.Sub(vec.Vec2{X: 50, Y: 50}).Length()
			if math.Abs(r-40) > 0.05 {
				t.Fatalf("tol=%g: vertex at radius %f", tol, r)
			}
			// chord midpoints are at most tol inside the circle
			mid := l.A.Add(l.B).Mul(0.5)
			r = mid.Sub(vec.Vec2{X: 50, Y: 50}).Length()
			if r < 40-tol-0.05 {
				t.Fatalf("tol=%g: chord too far from curve (%f)", tol, 40-r)
			}
		}
	}
}

func TestFlattenOpenClosed(t *testing.T) {
	open := (&Path{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		LineTo(vec.Vec2{X: 1, Y: 0}).
		LineTo(vec.Vec2{X: 1, Y: 1})
	closed := open.Clone().Close()

	lo, _ := Flatten(open, 0.1)
	lc, _ := Flatten(closed, 0.1)
	if len(lo) != 2 || len(lc) != 3 {
		t.Errorf("got %d and %d lines, want 2 and 3", len(lo), len(lc))
	}
}

func TestFlattenTerminates(t *testing.T) {
	p := (&Path{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		CurveTo(vec.Vec2{X: 1e6, Y: 1e6}, vec.Vec2{X: -1e6, Y: 1e6}, vec.Vec2{X: 0, Y: 0})

	lines, err := Flatten(p, 0)
	if !errors.Is(err, ErrSubdivision) {
		t.Fatalf("got error %v, want %v", err, ErrSubdivision)
	}
	var gErr *GeometryError
	if !errors.As(err, &gErr) {
		t.Fatal("error is not a GeometryError")
	}
	if n := len(lines); n == 0 || n > 1<<MaxSubdivisionDepth {
		t.Errorf("got %d lines", n)
	}
}

func TestFlattenNonFinite(t *testing.T) {
	p := (&Path{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 5}).
		LineTo(vec.Vec2{X: math.NaN(), Y: 3})

	lines, err := Flatten(p, 0.25)
	if !errors.Is(err, ErrNonFinite) {
		t.Fatalf("got error %v", err)
	}
	// fallback: outline of the bounding box (0,0)-(10,5)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for _, l := range lines {
		for _, q := range []vec.Vec2{l.A, l.B} {
			if q.X != 0 && q.X != 10 || q.Y != 0 && q.Y != 5 {
				t.Errorf("unexpected fallback vertex %v", q)
			}
		}
	}
}

func TestBuilderInvariants(t *testing.T) {
	p := (&Path{}).
		LineTo(vec.Vec2{X: 1, Y: 1}). // no current point: starts a subpath
		LineTo(vec.Vec2{X: 2, Y: 1}).
		Close().
		LineTo(vec.Vec2{X: 5, Y: 5}) // continues from the start point

	if len(p.Subpaths) != 2 {
		t.Fatalf("got %d subpaths", len(p.Subpaths))
	}
	for i, sp := range p.Subpaths {
		if sp.Segments[0].Op != MoveTo {
			t.Errorf("subpath %d starts with %v", i, sp.Segments[0].Op)
		}
	}
	if !p.Subpaths[0].Closed || p.Subpaths[1].Closed {
		t.Errorf("closed flags: %v %v", p.Subpaths[0].Closed, p.Subpaths[1].Closed)
	}
	if got := p.Subpaths[1].Start(); got != (vec.Vec2{X: 1, Y: 1}) {
		t.Errorf("second subpath starts at %v", got)
	}
	if err := Validate(p); err != nil {
		t.Error(err)
	}
}

func TestAll(t *testing.T) {
	p := testPath()

	var cmds []path.Command
	npts := 0
	for cmd, pts := range p.All(false) {
		cmds = append(cmds, cmd)
		npts += len(pts)
	}
	want := []path.Command{
		path.CmdMoveTo, path.CmdLineTo, path.CmdCubeTo, path.CmdClose,
		path.CmdMoveTo, path.CmdLineTo,
	}
	if !slices.Equal(cmds, want) {
		t.Fatalf("got %v, want %v", cmds, want)
	}
	if npts != 7 {
		t.Errorf("got %d points, want 7", npts)
	}

	// for filling, open subpaths are closed as well
	n := 0
	for cmd := range p.All(true) {
		if cmd == path.CmdClose {
			n++
		}
	}
	if n != 2 {
		t.Errorf("got %d ClosePath commands, want 2", n)
	}

	// the control point bounds agree with the geom implementation
	cb, _ := ControlBounds(p)
	if bb := p.All(false).BBox(); bb != cb {
		t.Errorf("BBox %v != ControlBounds %v", bb, cb)
	}
}
