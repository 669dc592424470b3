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
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/layers/adjust"
	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/dirty"
	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
)

const (
	// DefaultMaxDepth is the default limit for the nesting depth of
	// groups.
	DefaultMaxDepth = 64

	// DefaultHistory is the default number of undo steps.
	DefaultHistory = 100
)

// Tree is a mutable layer tree.
//
// All mutations are validated before they are applied.  If a mutation
// fails, a [*StructuralError] is returned and the tree is unchanged.
// Every successful mutation marks the affected region of the document as
// dirty in the tree's [dirty.Tracker].
//
// The methods of Tree can be called concurrently, but mutations are
// serialized.  Readers should use [Tree.Snapshot].
type Tree struct {
	logger   *zap.Logger
	tracker  *dirty.Tracker
	history  int
	canvas   image.Rectangle
	maxDepth int

	mu     sync.Mutex
	cur    atomic.Pointer[state]
	clock  uint64
	nextID ID
	undo   []entry
	redo   []entry
}

// entry is a step in the undo or redo history.
type entry struct {
	s     *state
	dirty []image.Rectangle
}

// Option configures a [Tree].
type Option func(*Tree)

// WithLogger sets the logger used to report clamped parameters and
// mutations.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTracker sets the tracker which receives the dirty regions.
func WithTracker(tr *dirty.Tracker) Option {
	return func(t *Tree) {
		if tr != nil {
			t.tracker = tr
		}
	}
}

// WithCanvas sets the document area.  Dirty regions are clipped to this
// rectangle, and adjustment layers affect all of it.
func WithCanvas(r image.Rectangle) Option {
	return func(t *Tree) {
		t.canvas = r
	}
}

// WithMaxDepth limits the nesting depth of groups.
func WithMaxDepth(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.maxDepth = n
		}
	}
}

// WithHistory sets the number of undo steps kept.  Zero disables undo.
func WithHistory(n int) Option {
	return func(t *Tree) {
		t.history = max(n, 0)
	}
}

// NewTree returns a tree which consists of an empty root group.
func NewTree(opts ...Option) *Tree {
	t := &Tree{
		logger:   zap.NewNop(),
		tracker:  &dirty.Tracker{},
		history:  DefaultHistory,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}

	root := New("root", Group{})
	root.ID = 1
	t.clock = 1
	root.version = t.clock
	t.nextID = 2
	t.cur.Store(&state{
		layers:   map[ID]*Layer{root.ID: root},
		root:     root.ID,
		canvas:   t.canvas,
		maxDepth: t.maxDepth,
		seq:      t.clock,
	})
	return t
}

// Snapshot returns the current state of the tree.
func (t *Tree) Snapshot() Snapshot {
	return Snapshot{t.cur.Load()}
}

// Root returns the ID of the root group.
func (t *Tree) Root() ID {
	return t.cur.Load().root
}

// Tracker returns the tracker which receives the dirty regions.
func (t *Tree) Tracker() *dirty.Tracker {
	return t.tracker
}

// txn collects the changes of a single mutation.
type txn struct {
	t     *Tree
	op    string
	old   *state
	next  *state
	owned map[ID]bool
	dirty []ID              // layers whose old and new bounds are dirty
	bump  []ID              // layers which changed without changing pixels
	rects []image.Rectangle // additional dirty regions
}

func (t *Tree) begin(op string) *txn {
	old := t.cur.Load()
	return &txn{
		t:     t,
		op:    op,
		old:   old,
		next:  old.clone(),
		owned: map[ID]bool{},
	}
}

func (x *txn) fail(id ID, err error) error {
	return &StructuralError{Op: x.op, ID: id, Err: err}
}

func (x *txn) get(id ID) (*Layer, bool) {
	l, ok := x.next.layers[id]
	return l, ok
}

// edit returns a writable copy of the layer.  The layer must exist.
func (x *txn) edit(id ID) *Layer {
	l := x.next.layers[id]
	if !x.owned[id] {
		l = l.clone()
		x.next.layers[id] = l
		x.owned[id] = true
	}
	return l
}

// commit installs the new state, assigns new versions to all changed
// layers and records the dirty regions.
func (x *txn) commit(fields ...zap.Field) {
	t := x.t

	rects := slices.Clone(x.rects)
	for _, id := range x.dirty {
		rects = append(rects, x.old.pixelBounds(id), x.next.pixelBounds(id))
	}

	t.clock++
	v := t.clock
	x.next.seq = v
	bumped := map[ID]bool{}
	bumpUp := func(id ID) {
		for id != 0 && !bumped[id] {
			l, ok := x.next.layers[id]
			if !ok {
				return
			}
			bumped[id] = true
			x.edit(id).version = v
			id = l.parent
		}
	}
	for _, id := range x.dirty {
		bumpUp(id)
	}
	for _, id := range x.bump {
		bumpUp(id)
	}
	// layers masked by a changed layer change as well
	masked := map[ID]bool{}
	for changed := true; changed; {
		changed = false
		for id, l := range x.next.layers {
			if l.Mask != 0 && bumped[l.Mask] && !masked[id] {
				masked[id] = true
				rects = append(rects, x.maskedArea(id)...)
				bumpUp(id)
				changed = true
			}
		}
	}
	rects = slices.DeleteFunc(rects, image.Rectangle.Empty)

	if t.history > 0 {
		t.undo = append(t.undo, entry{s: x.old, dirty: rects})
		if n := len(t.undo) - t.history; n > 0 {
			t.undo = slices.Delete(t.undo, 0, n)
		}
	}
	t.redo = nil
	t.cur.Store(x.next)
	t.tracker.AddAll(rects)

	if ce := t.logger.Check(zap.DebugLevel, x.op); ce != nil {
		ce.Write(append(fields,
			zap.Uint64("version", v),
			zap.Int("dirty", len(rects)))...)
	}
}

// maskedArea returns the regions in which layer id can change when the
// content of its mask changes.  Outside of the mask bounds the layer is
// hidden, so the change is confined to the mask bounds, grown by the
// distance the layer's pixels can spread.
func (x *txn) maskedArea(id ID) []image.Rectangle {
	var res []image.Rectangle
	for _, s := range []*state{x.old, x.next} {
		l, ok := s.layers[id]
		if !ok {
			continue
		}
		b := s.pixelBounds(id)
		if l.Mask != 0 {
			m := s.pixelBounds(l.Mask)
			m = m.Inset(-(l.Adjustments.Margin() + s.spread(id)))
			b = b.Intersect(m)
		}
		res = append(res, b)
	}
	return res
}

// Insert adds a copy of l to the group parent, at position index.  Index
// 0 is the bottom of the group, len(children) the top.  If parent is 0,
// the layer is added to the root group.  If l.ID is 0, a new ID is
// assigned.  The ID of the new layer is returned.
//
// Only the layer itself is inserted; the children of l, if any, are
// ignored.  The opacity is clamped to [0, 1].
func (t *Tree) Insert(parent ID, l *Layer, index int) (ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("insert")
	if parent == 0 {
		parent = x.next.root
	}
	if l == nil || l.Content == nil || !l.Blend.Valid() {
		return 0, x.fail(parent, ErrInvalid)
	}
	p, ok := x.get(parent)
	if !ok {
		return 0, x.fail(parent, ErrNotFound)
	}
	if p.Kind() != KindGroup {
		return 0, x.fail(parent, ErrNotGroup)
	}
	if index < 0 || index > len(p.children) {
		return 0, x.fail(parent, ErrIndex)
	}
	if x.next.depth(parent)+1 > x.next.maxDepth {
		return 0, x.fail(parent, ErrTooDeep)
	}
	id := l.ID
	if id == 0 {
		id = t.nextID
	}
	if _, exists := x.get(id); exists {
		return 0, x.fail(id, ErrDuplicate)
	}
	if l.Mask != 0 {
		if _, ok := x.get(l.Mask); !ok {
			return 0, x.fail(l.Mask, ErrNotFound)
		}
	}

	n := l.clone()
	n.ID = id
	n.parent = parent
	n.children = nil
	n.Opacity = t.clampOpacity(id, n.Opacity)
	n.Adjustments = t.normalize(id, n.Adjustments)
	x.next.layers[id] = n
	x.owned[id] = true
	pe := x.edit(parent)
	pe.children = slices.Insert(pe.children, index, id)

	if x.next.cycleThrough(id) {
		return 0, x.fail(id, ErrCycle)
	}

	x.dirty = append(x.dirty, id)
	x.commit(zap.Uint64("id", uint64(id)), zap.Uint64("parent", uint64(parent)))
	t.nextID = max(t.nextID, id+1)
	return id, nil
}

// Remove deletes a layer together with all its descendants.  Masks of
// other layers which refer to a removed layer are cleared.
func (t *Tree) Remove(id ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("remove")
	if id == x.next.root {
		return x.fail(id, ErrRoot)
	}
	l, ok := x.get(id)
	if !ok {
		return x.fail(id, ErrNotFound)
	}

	x.dirty = append(x.dirty, id)
	pe := x.edit(l.parent)
	pe.children = slices.DeleteFunc(pe.children, func(c ID) bool { return c == id })
	x.bump = append(x.bump, l.parent)

	removed := map[ID]bool{}
	for _, r := range x.next.subtree(id) {
		removed[r] = true
		delete(x.next.layers, r)
	}
	for other, ol := range x.next.layers {
		if removed[ol.Mask] {
			x.edit(other).Mask = 0
			x.dirty = append(x.dirty, other)
		}
	}

	x.commit(zap.Uint64("id", uint64(id)), zap.Int("layers", len(removed)))
	return nil
}

// Reorder moves a layer to position index within its group.
func (t *Tree) Reorder(id ID, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("reorder")
	if id == x.next.root {
		return x.fail(id, ErrRoot)
	}
	l, ok := x.get(id)
	if !ok {
		return x.fail(id, ErrNotFound)
	}
	p, _ := x.get(l.parent)
	if index < 0 || index >= len(p.children) {
		return x.fail(id, ErrIndex)
	}
	if p.children[index] == id {
		return nil
	}

	pe := x.edit(l.parent)
	pe.children = slices.DeleteFunc(pe.children, func(c ID) bool { return c == id })
	pe.children = slices.Insert(pe.children, index, id)

	x.dirty = append(x.dirty, id)
	x.commit(zap.Uint64("id", uint64(id)), zap.Int("index", index))
	return nil
}

// Move moves a layer into the group parent, at position index.
func (t *Tree) Move(id, parent ID, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("move")
	if parent == 0 {
		parent = x.next.root
	}
	if id == x.next.root {
		return x.fail(id, ErrRoot)
	}
	l, ok := x.get(id)
	if !ok {
		return x.fail(id, ErrNotFound)
	}
	p, ok := x.get(parent)
	if !ok {
		return x.fail(parent, ErrNotFound)
	}
	if p.Kind() != KindGroup {
		return x.fail(parent, ErrNotGroup)
	}
	if x.next.reaches(id, parent) {
		return x.fail(id, ErrCycle)
	}
	if x.next.depth(parent)+1+x.next.height(id) > x.next.maxDepth {
		return x.fail(id, ErrTooDeep)
	}

	old := x.edit(l.parent)
	old.children = slices.DeleteFunc(old.children, func(c ID) bool { return c == id })
	x.bump = append(x.bump, l.parent)
	pe := x.edit(parent)
	if index < 0 || index > len(pe.children) {
		return x.fail(id, ErrIndex)
	}
	pe.children = slices.Insert(pe.children, index, id)
	x.edit(id).parent = parent

	if x.next.cycleThrough(id) {
		return x.fail(id, ErrCycle)
	}

	x.dirty = append(x.dirty, id)
	x.commit(zap.Uint64("id", uint64(id)), zap.Uint64("parent", uint64(parent)))
	return nil
}

// SetMask sets the layer whose alpha channel masks layer id.  A mask of 0
// removes the mask.  Masks which would make a layer depend on itself are
// rejected with [ErrCycle].
func (t *Tree) SetMask(id, mask ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("set mask")
	if _, ok := x.get(id); !ok {
		return x.fail(id, ErrNotFound)
	}
	if mask != 0 {
		if _, ok := x.get(mask); !ok {
			return x.fail(mask, ErrNotFound)
		}
		if mask == id {
			return x.fail(id, ErrCycle)
		}
	}

	x.edit(id).Mask = mask
	if x.next.cycleThrough(id) {
		return x.fail(id, ErrCycle)
	}

	x.dirty = append(x.dirty, id)
	x.commit(zap.Uint64("id", uint64(id)), zap.Uint64("mask", uint64(mask)))
	return nil
}

// SetBlendMode sets the blend mode of a layer.
func (t *Tree) SetBlendMode(id ID, mode blend.Mode) error {
	return t.update("set blend mode", id, func(x *txn, l *Layer) error {
		if !mode.Valid() {
			return ErrInvalid
		}
		x.edit(id).Blend = mode
		return nil
	}, zap.Stringer("mode", mode))
}

// SetOpacity sets the opacity of a layer.  Values outside [0, 1] are
// clamped.
func (t *Tree) SetOpacity(id ID, opacity float64) error {
	return t.update("set opacity", id, func(x *txn, l *Layer) error {
		x.edit(id).Opacity = t.clampOpacity(id, opacity)
		return nil
	}, zap.Float64("opacity", opacity))
}

// SetVisible shows or hides a layer.
func (t *Tree) SetVisible(id ID, visible bool) error {
	return t.update("set visible", id, func(x *txn, l *Layer) error {
		x.edit(id).Visible = visible
		return nil
	}, zap.Bool("visible", visible))
}

// SetTransform sets the transformation from layer coordinates to parent
// coordinates.
func (t *Tree) SetTransform(id ID, m matrix.Matrix) error {
	return t.update("set transform", id, func(x *txn, l *Layer) error {
		for _, v := range m {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrInvalid
			}
		}
		x.edit(id).Transform = m
		return nil
	})
}

// SetAdjustments replaces the adjustments of a layer.  Out-of-range
// parameters are clamped.
func (t *Tree) SetAdjustments(id ID, p adjust.Pipeline) error {
	return t.update("set adjustments", id, func(x *txn, l *Layer) error {
		x.edit(id).Adjustments = t.normalize(id, p)
		return nil
	}, zap.Int("count", len(p)))
}

// MoveAdjustment changes the position of an adjustment of a layer.
func (t *Tree) MoveAdjustment(id ID, from, to int) error {
	return t.update("move adjustment", id, func(x *txn, l *Layer) error {
		p, err := l.Adjustments.Move(from, to)
		if err != nil {
			return ErrIndex
		}
		x.edit(id).Adjustments = p
		return nil
	}, zap.Int("from", from), zap.Int("to", to))
}

// SetVector replaces the content of a vector layer.
func (t *Tree) SetVector(id ID, v Vector) error {
	return t.update("set vector", id, func(x *txn, l *Layer) error {
		if err := editable(l, KindVector); err != nil {
			return err
		}
		x.edit(id).Content = v
		return nil
	})
}

// SetRaster replaces the content of a raster layer.  The buffer is owned
// by the tree afterwards and must not be modified by the caller.
func (t *Tree) SetRaster(id ID, r Raster) error {
	return t.update("set raster", id, func(x *txn, l *Layer) error {
		if err := editable(l, KindRaster); err != nil {
			return err
		}
		x.edit(id).Content = r
		return nil
	})
}

// EditRaster changes the pixels of a raster layer.  The function fn is
// called with a private copy of the layer's buffer, and may modify the
// pixels inside r, given in layer pixel coordinates.  Only r is marked as
// dirty.
func (t *Tree) EditRaster(id ID, r image.Rectangle, fn func(buf *pixel.Buffer)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("edit raster")
	l, ok := x.get(id)
	if !ok {
		return x.fail(id, ErrNotFound)
	}
	if err := editable(l, KindRaster); err != nil {
		return x.fail(id, err)
	}
	c := l.Content.(Raster)
	if c.Buffer == nil {
		return x.fail(id, ErrInvalid)
	}
	c.Buffer = c.Buffer.Clone()
	fn(c.Buffer)
	x.edit(id).Content = c

	x.rects = append(x.rects, x.next.docRect(id, r.Intersect(c.Buffer.Rect)))
	x.bump = append(x.bump, id)
	x.commit(zap.Uint64("id", uint64(id)), zap.Stringer("rect", r))
	return nil
}

// SetLabel changes the label of a layer.
func (t *Tree) SetLabel(id ID, label string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("set label")
	if _, ok := x.get(id); !ok {
		return x.fail(id, ErrNotFound)
	}
	x.edit(id).Label = label
	x.commit(zap.Uint64("id", uint64(id)))
	return nil
}

// SetLocked locks or unlocks the content of a layer.
func (t *Tree) SetLocked(id ID, locked bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("set locked")
	if _, ok := x.get(id); !ok {
		return x.fail(id, ErrNotFound)
	}
	x.edit(id).Locked = locked
	x.commit(zap.Uint64("id", uint64(id)), zap.Bool("locked", locked))
	return nil
}

// Duplicate copies a layer, including all its descendants, and places the
// copy directly above the original.  Masks which refer to layers inside
// the copied subtree are redirected to the copies.  The ID of the copy is
// returned.
func (t *Tree) Duplicate(id ID) (ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin("duplicate")
	if id == x.next.root {
		return 0, x.fail(id, ErrRoot)
	}
	l, ok := x.get(id)
	if !ok {
		return 0, x.fail(id, ErrNotFound)
	}

	ids := x.next.subtree(id)
	newID := make(map[ID]ID, len(ids))
	for _, old := range ids {
		newID[old] = t.nextID
		t.nextID++
	}
	for _, old := range ids {
		c := x.next.layers[old].clone()
		c.ID = newID[old]
		if p, inside := newID[c.parent]; inside {
			c.parent = p
		}
		for i, ch := range c.children {
			c.children[i] = newID[ch]
		}
		if m, inside := newID[c.Mask]; inside {
			c.Mask = m
		}
		x.next.layers[c.ID] = c
		x.owned[c.ID] = true
	}

	pe := x.edit(l.parent)
	pos := slices.Index(pe.children, id)
	pe.children = slices.Insert(pe.children, pos+1, newID[id])

	x.dirty = append(x.dirty, newID[id])
	x.commit(zap.Uint64("id", uint64(id)), zap.Uint64("copy", uint64(newID[id])))
	return newID[id], nil
}

// Undo reverts the most recent mutation.  It reports whether there was a
// mutation to undo.
func (t *Tree) Undo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.undo) == 0 {
		return false
	}
	e := t.undo[len(t.undo)-1]
	t.undo = t.undo[:len(t.undo)-1]
	t.redo = append(t.redo, entry{s: t.cur.Load(), dirty: e.dirty})
	t.cur.Store(e.s)
	t.tracker.AddAll(e.dirty)
	t.logger.Debug("undo", zap.Int("remaining", len(t.undo)))
	return true
}

// Redo re-applies the most recently undone mutation.  It reports whether
// there was a mutation to redo.
func (t *Tree) Redo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.redo) == 0 {
		return false
	}
	e := t.redo[len(t.redo)-1]
	t.redo = t.redo[:len(t.redo)-1]
	t.undo = append(t.undo, entry{s: t.cur.Load(), dirty: e.dirty})
	t.cur.Store(e.s)
	t.tracker.AddAll(e.dirty)
	t.logger.Debug("redo", zap.Int("remaining", len(t.redo)))
	return true
}

// update runs a mutation which changes a single layer.
func (t *Tree) update(op string, id ID, fn func(x *txn, l *Layer) error, fields ...zap.Field) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.begin(op)
	l, ok := x.get(id)
	if !ok {
		return x.fail(id, ErrNotFound)
	}
	if err := fn(x, l); err != nil {
		return x.fail(id, err)
	}
	x.dirty = append(x.dirty, id)
	x.commit(append(fields, zap.Uint64("id", uint64(id)))...)
	return nil
}

func editable(l *Layer, kind Kind) error {
	if l.Kind() != kind {
		return ErrKind
	}
	if l.Locked {
		return ErrLocked
	}
	return nil
}

func (t *Tree) clampOpacity(id ID, v float64) float64 {
	c := paint.Clamp(v, 0, 1)
	if c != v {
		t.logger.Debug("opacity clamped",
			zap.Uint64("id", uint64(id)),
			zap.Float64("value", v),
			zap.Float64("clamped", c))
	}
	return c
}

func (t *Tree) normalize(id ID, p adjust.Pipeline) adjust.Pipeline {
	res, err := p.Normalize()
	if err != nil {
		t.logger.Debug("adjustment parameters clamped",
			zap.Uint64("id", uint64(id)),
			zap.Error(err))
	}
	return res
}
