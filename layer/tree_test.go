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

package layer

import (
	"errors"
	"image"
	"math"
	"testing"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/layers/adjust"
	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/dirty"
	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/shape"
)

var canvas = image.Rect(0, 0, 100, 100)

func newTree(t *testing.T) *Tree {
	t.Helper()
	return NewTree(WithCanvas(canvas))
}

func rasterLayer(label string, r image.Rectangle) *Layer {
	buf := pixel.New(r)
	buf.Fill(r, [4]float32{1, 0, 0, 1})
	return New(label, Raster{Buffer: buf})
}

func vectorLayer(label string, x0, y0, x1, y1 float64) *Layer {
	return New(label, Vector{
		Path: shape.Rectangle(x0, y0, x1, y1),
		Fill: paint.Solid{Color: paint.RGBA(0, 0, 1, 1)},
	})
}

func mustInsert(t *testing.T, tree *Tree, parent ID, l *Layer, index int) ID {
	t.Helper()
	id, err := tree.Insert(parent, l, index)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func wantStructural(t *testing.T, err, target error) {
	t.Helper()
	var sErr *StructuralError
	if !errors.As(err, &sErr) {
		t.Fatalf("got %v, want a StructuralError", err)
	}
	if !errors.Is(err, target) {
		t.Fatalf("got %v, want %v", err, target)
	}
}

func TestInsertOrder(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	b := mustInsert(t, tree, 0, rasterLayer("b", canvas), 1)
	c := mustInsert(t, tree, 0, rasterLayer("c", canvas), 1)

	snap := tree.Snapshot()
	got := snap.Children(snap.Root())
	want := []ID{a, c, b}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if l, _ := snap.Get(c); l.Parent() != snap.Root() {
		t.Errorf("parent of c is %d", l.Parent())
	}
}

func TestInsertErrors(t *testing.T) {
	tree := newTree(t)
	r := mustInsert(t, tree, 0, rasterLayer("r", canvas), 0)
	v0 := tree.Snapshot().Version()

	_, err := tree.Insert(r, rasterLayer("x", canvas), 0)
	wantStructural(t, err, ErrNotGroup)
	_, err = tree.Insert(999, rasterLayer("x", canvas), 0)
	wantStructural(t, err, ErrNotFound)
	_, err = tree.Insert(0, rasterLayer("x", canvas), 5)
	wantStructural(t, err, ErrIndex)
	_, err = tree.Insert(0, &Layer{Label: "no content"}, 0)
	wantStructural(t, err, ErrInvalid)
	dup := rasterLayer("dup", canvas)
	dup.ID = r
	_, err = tree.Insert(0, dup, 0)
	wantStructural(t, err, ErrDuplicate)

	if v := tree.Snapshot().Version(); v != v0 {
		t.Errorf("failed inserts changed the version from %d to %d", v0, v)
	}
	if n := tree.Snapshot().Len(); n != 2 {
		t.Errorf("tree has %d layers, want 2", n)
	}
}

func TestMaxDepth(t *testing.T) {
	tree := NewTree(WithMaxDepth(2))
	g1 := mustInsert(t, tree, 0, New("g1", Group{}), 0)
	g2 := mustInsert(t, tree, g1, New("g2", Group{}), 0)
	_, err := tree.Insert(g2, New("g3", Group{}), 0)
	wantStructural(t, err, ErrTooDeep)
}

func TestOpacityClamped(t *testing.T) {
	tree := newTree(t)
	id := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)

	cases := []struct{ in, want float64 }{
		{-0.5, 0},
		{1.7, 1},
		{0.25, 0.25},
	}
	for _, c := range cases {
		if err := tree.SetOpacity(id, c.in); err != nil {
			t.Fatal(err)
		}
		l, _ := tree.Snapshot().Get(id)
		if l.Opacity != c.want {
			t.Errorf("SetOpacity(%g): got %g, want %g", c.in, l.Opacity, c.want)
		}
	}

	l := rasterLayer("b", canvas)
	l.Opacity = 3
	b := mustInsert(t, tree, 0, l, 0)
	if got, _ := tree.Snapshot().Get(b); got.Opacity != 1 {
		t.Errorf("inserted opacity %g", got.Opacity)
	}
}

func TestMaskCycle(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	g := mustInsert(t, tree, 0, New("g", Group{}), 1)
	b := mustInsert(t, tree, g, rasterLayer("b", canvas), 0)

	if err := tree.SetMask(a, b); err != nil {
		t.Fatal(err)
	}
	before := tree.Snapshot()

	wantStructural(t, tree.SetMask(a, a), ErrCycle)
	// b -> a -> b
	wantStructural(t, tree.SetMask(b, a), ErrCycle)
	// g contains b, so b cannot be masked by g
	wantStructural(t, tree.SetMask(b, g), ErrCycle)

	after := tree.Snapshot()
	if after.Version() != before.Version() {
		t.Errorf("version changed from %d to %d", before.Version(), after.Version())
	}
	for _, id := range []ID{a, g, b} {
		l0, _ := before.Get(id)
		l1, _ := after.Get(id)
		if l0 != l1 {
			t.Errorf("layer %d changed", id)
		}
	}
}

func TestMoveIntoDescendant(t *testing.T) {
	tree := newTree(t)
	g := mustInsert(t, tree, 0, New("g", Group{}), 0)
	h := mustInsert(t, tree, g, New("h", Group{}), 0)

	wantStructural(t, tree.Move(g, h, 0), ErrCycle)
	wantStructural(t, tree.Move(tree.Root(), g, 0), ErrRoot)

	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 1)
	if err := tree.Move(a, h, 0); err != nil {
		t.Fatal(err)
	}
	snap := tree.Snapshot()
	if l, _ := snap.Get(a); l.Parent() != h {
		t.Errorf("parent is %d, want %d", l.Parent(), h)
	}
	if d := snap.Depth(a); d != 3 {
		t.Errorf("depth %d, want 3", d)
	}
	if n := len(snap.Children(snap.Root())); n != 1 {
		t.Errorf("root has %d children", n)
	}
}

func TestRemove(t *testing.T) {
	tree := newTree(t)
	g := mustInsert(t, tree, 0, New("g", Group{}), 0)
	m := mustInsert(t, tree, g, rasterLayer("mask", canvas), 0)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 1)
	if err := tree.SetMask(a, m); err != nil {
		t.Fatal(err)
	}

	if err := tree.Remove(g); err != nil {
		t.Fatal(err)
	}
	snap := tree.Snapshot()
	if _, ok := snap.Get(m); ok {
		t.Error("descendant was not removed")
	}
	if l, _ := snap.Get(a); l.Mask != 0 {
		t.Errorf("dangling mask %d", l.Mask)
	}

	wantStructural(t, tree.Remove(g), ErrNotFound)
	wantStructural(t, tree.Remove(tree.Root()), ErrRoot)
}

func TestReorder(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	b := mustInsert(t, tree, 0, rasterLayer("b", canvas), 1)

	if err := tree.Reorder(a, 1); err != nil {
		t.Fatal(err)
	}
	snap := tree.Snapshot()
	if c := snap.Children(snap.Root()); c[0] != b || c[1] != a {
		t.Errorf("got order %v", c)
	}
	wantStructural(t, tree.Reorder(a, 2), ErrIndex)
}

func TestBlendModeAndTransform(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)

	if err := tree.SetBlendMode(a, blend.Multiply); err != nil {
		t.Fatal(err)
	}
	wantStructural(t, tree.SetBlendMode(a, blend.Mode(200)), ErrInvalid)

	bad := matrix.Identity
	bad[4] = math.Inf(1)
	wantStructural(t, tree.SetTransform(a, bad), ErrInvalid)

	l, _ := tree.Snapshot().Get(a)
	if l.Blend != blend.Multiply || l.Transform != matrix.Identity {
		t.Errorf("got mode %v, transform %v", l.Blend, l.Transform)
	}
}

func TestDirtyPropagation(t *testing.T) {
	tr := &dirty.Tracker{}
	tree := NewTree(WithCanvas(canvas), WithTracker(tr))
	g := mustInsert(t, tree, 0, New("g", Group{}), 0)
	a := mustInsert(t, tree, g, vectorLayer("a", 10, 10, 20, 20), 0)
	tr.TakeAndClear()

	snap0 := tree.Snapshot()
	la0, _ := snap0.Get(a)
	lg0, _ := snap0.Get(g)
	lr0, _ := snap0.Get(snap0.Root())

	if err := tree.SetOpacity(a, 0.5); err != nil {
		t.Fatal(err)
	}

	snap1 := tree.Snapshot()
	la1, _ := snap1.Get(a)
	lg1, _ := snap1.Get(g)
	lr1, _ := snap1.Get(snap1.Root())
	if !(la1.Version() > la0.Version() && lg1.Version() > lg0.Version() && lr1.Version() > lr0.Version()) {
		t.Error("versions of ancestors did not change")
	}

	rects := tr.TakeAndClear()
	if len(rects) == 0 {
		t.Fatal("no dirty region")
	}
	want := image.Rect(10, 10, 20, 20)
	for _, r := range rects {
		if !want.In(r) && !r.In(want.Inset(-1)) {
			t.Errorf("unexpected dirty region %v", r)
		}
	}
	covered := false
	for _, r := range rects {
		if want.In(r) {
			covered = true
		}
	}
	if !covered {
		t.Errorf("dirty regions %v do not cover %v", rects, want)
	}
	if len(tr.TakeAndClear()) != 0 {
		t.Error("second TakeAndClear returned regions")
	}
}

func TestDirtyMove(t *testing.T) {
	tr := &dirty.Tracker{}
	tree := NewTree(WithCanvas(canvas), WithTracker(tr))
	a := mustInsert(t, tree, 0, vectorLayer("a", 10, 10, 20, 20), 0)
	tr.TakeAndClear()

	if err := tree.SetTransform(a, matrix.Identity.Translate(50, 0)); err != nil {
		t.Fatal(err)
	}
	rects := tr.TakeAndClear()
	for _, want := range []image.Rectangle{image.Rect(10, 10, 20, 20), image.Rect(60, 10, 70, 20)} {
		found := false
		for _, r := range rects {
			if want.In(r) {
				found = true
			}
		}
		if !found {
			t.Errorf("%v not dirty, got %v", want, rects)
		}
	}
}

func TestMaskVersion(t *testing.T) {
	tree := newTree(t)
	m := mustInsert(t, tree, 0, rasterLayer("m", canvas), 0)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 1)
	if err := tree.SetMask(a, m); err != nil {
		t.Fatal(err)
	}
	v0, _ := tree.Snapshot().Get(a)

	err := tree.EditRaster(m, image.Rect(0, 0, 5, 5), func(buf *pixel.Buffer) {
		buf.Clear(image.Rect(0, 0, 5, 5))
	})
	if err != nil {
		t.Fatal(err)
	}
	v1, _ := tree.Snapshot().Get(a)
	if v1.Version() <= v0.Version() {
		t.Error("editing the mask did not change the masked layer")
	}
}

func TestDirtyMaskedBlur(t *testing.T) {
	tr := &dirty.Tracker{}
	tree := NewTree(WithCanvas(canvas), WithTracker(tr))
	m := mustInsert(t, tree, 0, rasterLayer("m", image.Rect(10, 10, 20, 20)), 0)
	g := New("g", Group{})
	g.Adjustments = adjust.Pipeline{adjust.GaussianBlur{Radius: 6}}
	gid := mustInsert(t, tree, 0, g, 1)
	a := mustInsert(t, tree, gid, rasterLayer("a", canvas), 0)
	if err := tree.SetMask(a, m); err != nil {
		t.Fatal(err)
	}
	tr.TakeAndClear()

	if err := tree.SetTransform(m, matrix.Identity.Translate(50, 50)); err != nil {
		t.Fatal(err)
	}
	rects := tr.TakeAndClear()
	isDirty := func(p image.Point) bool {
		for _, r := range rects {
			if p.In(r) {
				return true
			}
		}
		return false
	}

	// the blur of the group spreads the masked area by 6 pixels
	for _, p := range []image.Point{{5, 15}, {24, 24}, {55, 65}, {74, 74}} {
		if !isDirty(p) {
			t.Errorf("%v not marked dirty: %v", p, rects)
		}
	}
	if isDirty(image.Pt(90, 5)) {
		t.Errorf("dirty regions too large: %v", rects)
	}
}

func TestEditRaster(t *testing.T) {
	tr := &dirty.Tracker{}
	tree := NewTree(WithCanvas(canvas), WithTracker(tr))
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	before := tree.Snapshot()
	tr.TakeAndClear()

	r := image.Rect(4, 4, 8, 8)
	err := tree.EditRaster(a, r, func(buf *pixel.Buffer) {
		buf.Fill(r, [4]float32{0, 1, 0, 1})
	})
	if err != nil {
		t.Fatal(err)
	}

	old, _ := before.Get(a)
	if px := old.Content.(Raster).Buffer.Pixel(5, 5); px != [4]float32{1, 0, 0, 1} {
		t.Errorf("old snapshot sees %v", px)
	}
	cur, _ := tree.Snapshot().Get(a)
	if px := cur.Content.(Raster).Buffer.Pixel(5, 5); px != [4]float32{0, 1, 0, 1} {
		t.Errorf("new snapshot sees %v", px)
	}
	rects := tr.TakeAndClear()
	if len(rects) != 1 || rects[0] != r {
		t.Errorf("dirty regions %v, want [%v]", rects, r)
	}

	if err := tree.SetLocked(a, true); err != nil {
		t.Fatal(err)
	}
	err = tree.EditRaster(a, r, func(*pixel.Buffer) {})
	wantStructural(t, err, ErrLocked)

	g := mustInsert(t, tree, 0, New("g", Group{}), 1)
	err = tree.EditRaster(g, r, func(*pixel.Buffer) {})
	wantStructural(t, err, ErrKind)
}

func TestAdjustmentsClamped(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)

	p := adjust.Pipeline{
		adjust.GaussianBlur{Radius: 1000},
		adjust.Invert{},
	}
	if err := tree.SetAdjustments(a, p); err != nil {
		t.Fatal(err)
	}
	l, _ := tree.Snapshot().Get(a)
	blur := l.Adjustments[0].(adjust.GaussianBlur)
	if blur.Radius != adjust.MaxRadius {
		t.Errorf("radius %g, want %d", blur.Radius, adjust.MaxRadius)
	}
	if p[0].(adjust.GaussianBlur).Radius != 1000 {
		t.Error("caller's pipeline was modified")
	}

	if err := tree.MoveAdjustment(a, 0, 1); err != nil {
		t.Fatal(err)
	}
	l, _ = tree.Snapshot().Get(a)
	if l.Adjustments[0].Kind() != adjust.KindInvert {
		t.Errorf("got %v first", l.Adjustments[0].Kind())
	}
	wantStructural(t, tree.MoveAdjustment(a, 0, 5), ErrIndex)
}

func TestUndoRedo(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	if err := tree.SetOpacity(a, 0.5); err != nil {
		t.Fatal(err)
	}
	v1 := tree.Snapshot().Version()

	if !tree.Undo() {
		t.Fatal("nothing to undo")
	}
	if l, _ := tree.Snapshot().Get(a); l.Opacity != 1 {
		t.Errorf("opacity after undo %g", l.Opacity)
	}
	if !tree.Redo() {
		t.Fatal("nothing to redo")
	}
	if l, _ := tree.Snapshot().Get(a); l.Opacity != 0.5 {
		t.Errorf("opacity after redo %g", l.Opacity)
	}
	if tree.Redo() {
		t.Error("redo succeeded twice")
	}

	// a new mutation after undo must not reuse an old version
	tree.Undo()
	if err := tree.SetOpacity(a, 0.75); err != nil {
		t.Fatal(err)
	}
	if v := tree.Snapshot().Version(); v <= v1 {
		t.Errorf("version %d reused (previous %d)", v, v1)
	}
	if tree.Redo() {
		t.Error("redo after new mutation")
	}
}

func TestHistoryLimit(t *testing.T) {
	tree := NewTree(WithHistory(2))
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	for _, v := range []float64{0.1, 0.2, 0.3} {
		if err := tree.SetOpacity(a, v); err != nil {
			t.Fatal(err)
		}
	}
	n := 0
	for tree.Undo() {
		n++
	}
	if n != 2 {
		t.Errorf("undid %d steps, want 2", n)
	}
	if l, _ := tree.Snapshot().Get(a); l.Opacity != 0.1 {
		t.Errorf("opacity %g", l.Opacity)
	}
}

func TestDuplicate(t *testing.T) {
	tree := newTree(t)
	g := mustInsert(t, tree, 0, New("g", Group{}), 0)
	m := mustInsert(t, tree, g, rasterLayer("m", canvas), 0)
	a := mustInsert(t, tree, g, rasterLayer("a", canvas), 1)
	if err := tree.SetMask(a, m); err != nil {
		t.Fatal(err)
	}

	cp, err := tree.Duplicate(g)
	if err != nil {
		t.Fatal(err)
	}
	snap := tree.Snapshot()
	if c := snap.Children(snap.Root()); len(c) != 2 || c[0] != g || c[1] != cp {
		t.Fatalf("root children %v", c)
	}
	kids := snap.Children(cp)
	if len(kids) != 2 {
		t.Fatalf("copy has %d children", len(kids))
	}
	ca, _ := snap.Get(kids[1])
	if ca.Mask != kids[0] {
		t.Errorf("mask of copy is %d, want %d", ca.Mask, kids[0])
	}
	if ca.Parent() != cp {
		t.Errorf("parent of copy is %d", ca.Parent())
	}
	if snap.Len() != 7 {
		t.Errorf("%d layers, want 7", snap.Len())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, rasterLayer("a", canvas), 0)
	snap := tree.Snapshot()

	if err := tree.Remove(a); err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Get(a); !ok {
		t.Error("old snapshot lost a layer")
	}
	if _, ok := tree.Snapshot().Get(a); ok {
		t.Error("layer still present")
	}
}

func TestWalk(t *testing.T) {
	tree := newTree(t)
	g := mustInsert(t, tree, 0, New("g", Group{}), 0)
	mustInsert(t, tree, g, rasterLayer("a", canvas), 0)
	mustInsert(t, tree, g, rasterLayer("b", canvas), 1)
	mustInsert(t, tree, 0, rasterLayer("c", canvas), 1)

	var labels []string
	var depths []int
	err := tree.Snapshot().Walk(func(l *Layer, depth int) error {
		labels = append(labels, l.Label)
		depths = append(depths, depth)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"root", "g", "a", "b", "c"}
	wantDepth := []int{0, 1, 2, 2, 1}
	for i := range want {
		if labels[i] != want[i] || depths[i] != wantDepth[i] {
			t.Fatalf("got %v %v, want %v %v", labels, depths, want, wantDepth)
		}
	}
}

func TestBounds(t *testing.T) {
	tree := newTree(t)
	a := mustInsert(t, tree, 0, vectorLayer("a", 10, 10, 20, 20), 0)
	if b := tree.Snapshot().Bounds(a); b != image.Rect(10, 10, 20, 20) {
		t.Errorf("bounds %v", b)
	}

	if err := tree.SetAdjustments(a, adjust.Pipeline{adjust.GaussianBlur{Radius: 2}}); err != nil {
		t.Fatal(err)
	}
	if b := tree.Snapshot().Bounds(a); b != image.Rect(8, 8, 22, 22) {
		t.Errorf("blurred bounds %v", b)
	}

	adj := mustInsert(t, tree, 0, New("adj", AdjustmentOnly{}), 1)
	if b := tree.Snapshot().Bounds(adj); b != canvas {
		t.Errorf("adjustment layer bounds %v", b)
	}
}
