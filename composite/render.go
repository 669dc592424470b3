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

package composite

import (
	"context"
	"errors"
	"image"

	"go.uber.org/zap"

	"seehuhn.de/go/layers/dirty"
	"seehuhn.de/go/layers/layer"
	"seehuhn.de/go/layers/pixel"
)

// ErrSuperseded is returned by [Engine.Render] when a newer call to
// Render started before the result could be stored.
var ErrSuperseded = errors.New("composite: render superseded")

// Source is a layer tree whose changes can be rendered incrementally.
// [*layer.Tree] implements this interface.
//
// Every change must become visible in Snapshot before its regions are
// added to the tracker.
type Source interface {
	Snapshot() layer.Snapshot
	Tracker() *dirty.Tracker
}

// Render updates the engine's copy of the document and returns a copy of
// it.  Only the regions reported by the tracker of src are composited
// again; the first call, and any call after the canvas changed size,
// renders everything.
//
// The dirty regions are taken before the snapshot, so that an edit
// committed in between is either drawn or left in the tracker.
//
// Every call to Render is stamped.  If a newer call starts before this
// one is finished, the result is discarded, the regions are marked dirty
// again and [ErrSuperseded] is returned.  The same happens if ctx is
// cancelled.
//
// Tiles which cannot be composited keep their previous content and are
// marked dirty again.  In this case the result is returned together with
// the corresponding [*RenderResourceError] values.
func (e *Engine) Render(ctx context.Context, src Source) (*pixel.Buffer, error) {
	stamp := e.stamp.Add(1)
	tracker := src.Tracker()
	regions := tracker.TakeAndClear()
	snap := src.Snapshot()
	bounds := docBounds(snap)

	e.mu.Lock()
	full := e.canvas == nil || e.canvas.Rect != bounds
	e.mu.Unlock()
	if full {
		regions = []image.Rectangle{bounds}
	}

	type update struct {
		region image.Rectangle
		buf    *pixel.Buffer
		failed []*RenderResourceError
	}
	var updates []update
	abort := func(err error) (*pixel.Buffer, error) {
		tracker.AddAll(regions)
		if errors.Is(err, ErrSuperseded) {
			e.superseded.Add(1)
		}
		e.logger.Debug("render aborted",
			zap.Uint64("stamp", stamp),
			zap.Error(err))
		return nil, err
	}

	for _, r := range regions {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		if e.stamp.Load() != stamp {
			return abort(ErrSuperseded)
		}
		out := pixel.New(r)
		failed, err := e.compositeInto(ctx, snap, out, r)
		if err != nil {
			return abort(err)
		}
		updates = append(updates, update{region: r, buf: out, failed: failed})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stamp.Load() != stamp {
		return abort(ErrSuperseded)
	}
	if e.canvas == nil || e.canvas.Rect != bounds {
		e.canvas = pixel.New(bounds)
	}
	var failed []*RenderResourceError
	for _, u := range updates {
		for _, f := range u.failed {
			u.buf.CopyFrom(e.canvas, f.Region)
			tracker.Add(f.Region)
		}
		e.canvas.CopyFrom(u.buf, u.region)
		failed = append(failed, u.failed...)
	}

	e.logger.Debug("rendered",
		zap.Uint64("stamp", stamp),
		zap.Uint64("version", snap.Version()),
		zap.Int("regions", len(updates)),
		zap.Int("failed", len(failed)))
	return e.canvas.Clone(), joinFailed(failed)
}
