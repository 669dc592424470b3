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
	"image"
	"maps"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/layers/shape"
)

// state is one immutable version of the tree.  Mutations copy the map and
// the layers they change.
type state struct {
	layers   map[ID]*Layer
	root     ID
	canvas   image.Rectangle
	maxDepth int
	seq      uint64
}

func (s *state) clone() *state {
	res := *s
	res.layers = maps.Clone(s.layers)
	return &res
}

// Snapshot is an immutable view of the layer tree.  It is safe for
// concurrent use.
type Snapshot struct {
	s *state
}

// Root returns the ID of the root group.
func (s Snapshot) Root() ID {
	return s.s.root
}

// Version identifies the state of the tree.  Every committed mutation
// gives a new version.
func (s Snapshot) Version() uint64 {
	return s.s.seq
}

// Canvas returns the document area, in document pixels.
func (s Snapshot) Canvas() image.Rectangle {
	return s.s.canvas
}

// MaxDepth returns the maximal nesting depth of groups.
func (s Snapshot) MaxDepth() int {
	return s.s.maxDepth
}

// Len returns the number of layers, including the root.
func (s Snapshot) Len() int {
	return len(s.s.layers)
}

// Get returns the layer with the given ID.  The returned layer must not
// be modified.
func (s Snapshot) Get(id ID) (*Layer, bool) {
	l, ok := s.s.layers[id]
	return l, ok
}

// Children returns the children of a group, from bottom to top.
func (s Snapshot) Children(id ID) []ID {
	l, ok := s.s.layers[id]
	if !ok {
		return nil
	}
	return l.children
}

// Depth returns the number of groups above the layer.  The root has
// depth 0.
func (s Snapshot) Depth(id ID) int {
	return s.s.depth(id)
}

func (s *state) depth(id ID) int {
	d := 0
	for l, ok := s.layers[id]; ok && l.parent != 0; l, ok = s.layers[l.parent] {
		d++
	}
	return d
}

// WorldTransform returns the matrix which maps layer coordinates to
// document coordinates.
func (s Snapshot) WorldTransform(id ID) matrix.Matrix {
	m := matrix.Identity
	for l, ok := s.s.layers[id]; ok; l, ok = s.s.layers[l.parent] {
		m = shape.Concat(m, transform(l))
	}
	return m
}

func transform(l *Layer) matrix.Matrix {
	if l.Transform == (matrix.Matrix{}) {
		return matrix.Identity
	}
	return l.Transform
}

// Walk calls fn for every layer of the tree, parents before children and
// siblings from bottom to top.  If fn returns an error, the walk stops
// and the error is returned.
func (s Snapshot) Walk(fn func(l *Layer, depth int) error) error {
	type item struct {
		id    ID
		depth int
	}
	stack := []item{{s.s.root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		l, ok := s.s.layers[it.id]
		if !ok {
			continue
		}
		if err := fn(l, it.depth); err != nil {
			return err
		}
		for i := len(l.children) - 1; i >= 0; i-- {
			stack = append(stack, item{l.children[i], it.depth + 1})
		}
	}
	return nil
}

// Reaches reports whether compositing layer from requires layer to,
// either as a descendant or through a mask.
func (s Snapshot) Reaches(from, to ID) bool {
	return s.s.reaches(from, to)
}

func (s *state) reaches(from, to ID) bool {
	seen := map[ID]bool{}
	stack := []ID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		l, ok := s.layers[id]
		if !ok {
			continue
		}
		stack = append(stack, l.children...)
		if l.Mask != 0 {
			stack = append(stack, l.Mask)
		}
	}
	return false
}

// cycleThrough reports whether the dependency graph has a cycle which
// passes through id.
func (s *state) cycleThrough(id ID) bool {
	l, ok := s.layers[id]
	if !ok {
		return false
	}
	if l.Mask != 0 && s.reaches(l.Mask, id) {
		return true
	}
	for _, c := range l.children {
		if s.reaches(c, id) {
			return true
		}
	}
	return false
}

// height returns the nesting depth of the subtree below id.
func (s *state) height(id ID) int {
	l, ok := s.layers[id]
	if !ok {
		return 0
	}
	h := 0
	for _, c := range l.children {
		h = max(h, s.height(c)+1)
	}
	return h
}

// subtree returns id and all its descendants.
func (s *state) subtree(id ID) []ID {
	res := []ID{id}
	for i := 0; i < len(res); i++ {
		if l, ok := s.layers[res[i]]; ok {
			res = append(res, l.children...)
		}
	}
	return res
}

// docRect maps a rectangle of layer pixels of a raster layer to document
// pixels.
func (s *state) docRect(id ID, r image.Rectangle) image.Rectangle {
	l, ok := s.layers[id]
	if !ok || r.Empty() {
		return image.Rectangle{}
	}
	res := 1.0
	if c, isRaster := l.Content.(Raster); isRaster && c.Resolution > 0 {
		res = c.Resolution
	}
	local := rect.Rect{
		LLx: float64(r.Min.X) / res, LLy: float64(r.Min.Y) / res,
		URx: float64(r.Max.X) / res, URy: float64(r.Max.Y) / res,
	}
	world := Snapshot{s}.WorldTransform(id)
	out := shape.PixelRect(shape.TransformRect(local, world))
	if m := l.Adjustments.Margin() + s.spread(id); m > 0 {
		out = out.Inset(-m)
	}
	return s.clip(out)
}

// spread returns the number of pixels by which changes to layer id can
// spread because of the adjustments of the groups containing id, and of
// the adjustment layers above id.
func (s *state) spread(id ID) int {
	m := 0
	for l, ok := s.layers[id]; ok; {
		p, found := s.layers[l.parent]
		if !found {
			break
		}
		above := false
		for _, c := range p.children {
			if c == l.ID {
				above = true
				continue
			}
			if cl := s.layers[c]; above && cl != nil && cl.Kind() == KindAdjustment {
				m += cl.Adjustments.Margin()
			}
		}
		m += p.Adjustments.Margin()
		l = p
	}
	return m
}

// Bounds returns the area of the document, in document pixels, which can
// be affected by the layer.  This includes hidden layers, as if they were
// visible.
func (s Snapshot) Bounds(id ID) image.Rectangle {
	return s.s.pixelBounds(id)
}

func (s *state) pixelBounds(id ID) image.Rectangle {
	l, ok := s.layers[id]
	if !ok {
		return image.Rectangle{}
	}
	local, ok, unbounded := s.localBounds(l, 0)
	if unbounded {
		return s.canvas
	}
	if !ok {
		return image.Rectangle{}
	}
	world := Snapshot{s}.WorldTransform(l.parent)
	r := shape.PixelRect(shape.TransformRect(local, world))
	if m := s.spread(id); m > 0 {
		r = r.Inset(-m)
	}
	return s.clip(r)
}

func (s *state) clip(r image.Rectangle) image.Rectangle {
	if s.canvas.Empty() {
		return r
	}
	return r.Intersect(s.canvas)
}

// localBounds returns the bounds of l in the coordinates of its parent.
// The last return value is set if the layer affects the whole canvas.
func (s *state) localBounds(l *Layer, depth int) (rect.Rect, bool, bool) {
	if depth > s.maxDepth {
		return rect.Rect{}, false, true
	}

	var r rect.Rect
	ok := false
	switch c := l.Content.(type) {
	case Raster:
		if c.Buffer != nil && !c.Buffer.Rect.Empty() {
			res := c.Resolution
			if !(res > 0) {
				res = 1
			}
			b := c.Buffer.Rect
			r = rect.Rect{
				LLx: float64(b.Min.X) / res, LLy: float64(b.Min.Y) / res,
				URx: float64(b.Max.X) / res, URy: float64(b.Max.Y) / res,
			}
			ok = true
		}
	case Vector:
		r, ok = vectorBounds(c)
	case Group:
		for _, child := range l.children {
			cl, found := s.layers[child]
			if !found {
				continue
			}
			cr, cok, unbounded := s.localBounds(cl, depth+1)
			if unbounded {
				return rect.Rect{}, false, true
			}
			if !cok {
				continue
			}
			r, ok = union(r, ok, cr), true
		}
	case AdjustmentOnly:
		return rect.Rect{}, false, true
	}
	if !ok {
		return r, false, false
	}

	r = shape.TransformRect(r, transform(l))
	if m := float64(l.Adjustments.Margin()); m > 0 {
		r = rect.Rect{LLx: r.LLx - m, LLy: r.LLy - m, URx: r.URx + m, URy: r.URy + m}
	}
	return r, true, false
}

func vectorBounds(c Vector) (rect.Rect, bool) {
	if c.Path == nil {
		return rect.Rect{}, false
	}
	r, ok := shape.Bounds(c.Path)
	if !ok {
		// non-finite coordinates are replaced by the bounding box
		r, ok = shape.ControlBounds(c.Path)
	}
	if !ok {
		return r, false
	}
	if st := c.Stroke; st != nil {
		n := st.Normalize()
		k := 1.0
		if n.Join == graphics.LineJoinMiter {
			k = max(k, n.MiterLimit)
		}
		if n.Cap == graphics.LineCapSquare {
			k = max(k, math.Sqrt2)
		}
		d := k * n.Width / 2
		r = rect.Rect{LLx: r.LLx - d, LLy: r.LLy - d, URx: r.URx + d, URy: r.URy + d}
	}
	return r, true
}

func union(a rect.Rect, aOK bool, b rect.Rect) rect.Rect {
	if !aOK {
		return b
	}
	return rect.Rect{
		LLx: min(a.LLx, b.LLx), LLy: min(a.LLy, b.LLy),
		URx: max(a.URx, b.URx), URy: max(a.URy, b.URy),
	}
}
