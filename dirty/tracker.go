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

// Package dirty keeps track of the document regions which need to be
// composited again.
package dirty

import (
	"image"
	"sync"
)

// DefaultMaxRegions is the default limit on the number of rectangles
// returned by [Tracker.TakeAndClear].
const DefaultMaxRegions = 16

// Tracker accumulates dirty rectangles.  It is safe for concurrent use.
type Tracker struct {
	// MaxRegions limits the number of rectangles returned by TakeAndClear.
	// If more rectangles remain after merging, the pairs which waste the
	// least area are combined.  Zero means DefaultMaxRegions.
	MaxRegions int

	mu    sync.Mutex
	rects []image.Rectangle
}

// Add marks r as dirty.  Empty rectangles are ignored.
func (t *Tracker) Add(r image.Rectangle) {
	if r.Empty() {
		return
	}
	t.mu.Lock()
	t.rects = append(t.rects, r)
	t.mu.Unlock()
}

// AddAll marks all the given rectangles as dirty.
func (t *Tracker) AddAll(rs []image.Rectangle) {
	t.mu.Lock()
	for _, r := range rs {
		if !r.Empty() {
			t.rects = append(t.rects, r)
		}
	}
	t.mu.Unlock()
}

// Empty reports whether no region is marked dirty.
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rects) == 0
}

// TakeAndClear returns the dirty regions and clears the tracker in one
// step.  Overlapping and adjacent rectangles are merged.  Every pixel
// which was marked dirty is contained in one of the returned rectangles.
func (t *Tracker) TakeAndClear() []image.Rectangle {
	t.mu.Lock()
	rects := t.rects
	t.rects = nil
	limit := t.MaxRegions
	t.mu.Unlock()

	if limit <= 0 {
		limit = DefaultMaxRegions
	}
	return Merge(rects, limit)
}

// Merge combines overlapping and adjacent rectangles until at most limit
// rectangles remain.  The union of the result covers the union of the
// input.  The input slice may be modified.
func Merge(rects []image.Rectangle, limit int) []image.Rectangle {
	rects = mergeTouching(rects)
	for len(rects) > max(limit, 1) {
		bi, bj := 0, 1
		best := -1
		for i := range rects {
			for j := i + 1; j < len(rects); j++ {
				u := rects[i].Union(rects[j])
				waste := area(u) - area(rects[i]) - area(rects[j])
				if best < 0 || waste < best {
					bi, bj, best = i, j, waste
				}
			}
		}
		rects[bi] = rects[bi].Union(rects[bj])
		rects = append(rects[:bj], rects[bj+1:]...)
		rects = mergeTouching(rects)
	}
	return rects
}

// mergeTouching replaces rectangles which overlap or share an edge by
// their union, until no such pair is left.
func mergeTouching(rects []image.Rectangle) []image.Rectangle {
	for {
		changed := false
		for i := 0; i < len(rects); i++ {
			for j := i + 1; j < len(rects); {
				if touches(rects[i], rects[j]) {
					rects[i] = rects[i].Union(rects[j])
					rects = append(rects[:j], rects[j+1:]...)
					changed = true
					continue
				}
				j++
			}
		}
		if !changed {
			return rects
		}
	}
}

// touches reports whether a and b overlap or share an edge of positive
// length.  Rectangles which meet only at a corner do not touch.
func touches(a, b image.Rectangle) bool {
	ox := min(a.Max.X, b.Max.X) - max(a.Min.X, b.Min.X)
	oy := min(a.Max.Y, b.Max.Y) - max(a.Min.Y, b.Min.Y)
	return ox >= 0 && oy >= 0 && (ox > 0 || oy > 0)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
