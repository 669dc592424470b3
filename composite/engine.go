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

// Package composite renders layer trees into pixel buffers.
//
// Layers are composited depth-first, from the bottom of each group to the
// top.  Groups are isolated: their children are composited onto a
// transparent buffer first, and the result is blended onto the layers
// below the group using the group's own blend mode, opacity and mask.
//
// The requested region is split into tiles, which are composited in
// parallel by a bounded pool of workers.  Each tile is computed on an area
// enlarged by the reach of all adjustments in the tree, so that blurred
// content next to the tile is taken into account.
package composite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/layer"
	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/raster"
	"seehuhn.de/go/layers/shape"
)

const (
	// DefaultTileSize is the default edge length of the tiles.
	DefaultTileSize = 256

	// DefaultCacheEntries is the default number of rasterized vector
	// layers kept in memory.
	DefaultCacheEntries = 256

	// DefaultMaxMargin limits how far outside a tile content is
	// composited to account for adjustments.
	DefaultMaxMargin = 512
)

// ColorTransformer converts user colours into the working colour space
// before they are used for blending.
type ColorTransformer interface {
	ToWorkingSpace(c paint.Color) paint.Color
}

// Stats counts the work done by an [Engine].
type Stats struct {
	Tiles       uint64
	CacheHits   uint64
	CacheMisses uint64
	Failed      uint64 // tiles which could not be composited
	Superseded  uint64 // renders abandoned for a newer one
}

// Engine composites snapshots of layer trees.  An Engine can be used
// concurrently.
type Engine struct {
	backend   Backend
	logger    *zap.Logger
	tileSize  int
	workers   int
	maxDepth  int
	maxMargin int
	flatness  float64
	colors    ColorTransformer
	entries   int

	cache  *lru.Cache
	flight singleflight.Group

	tiles, hits, misses, failed, superseded atomic.Uint64

	// stamp is incremented at the start of every call to Render.
	stamp  atomic.Uint64
	mu     sync.Mutex
	canvas *pixel.Buffer
}

// Option configures an [Engine].
type Option func(*Engine)

// WithBackend sets the backend used for the pixel work.  The default is
// a [CPU] backend without memory limit.
func WithBackend(b Backend) Option {
	return func(e *Engine) {
		if b != nil {
			e.backend = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTileSize sets the edge length of the tiles.
func WithTileSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.tileSize = n
		}
	}
}

// WithWorkers sets the number of tiles composited in parallel.  The
// default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithCacheEntries sets the number of rasterized vector layers which are
// kept.  Zero disables the cache.
func WithCacheEntries(n int) Option {
	return func(e *Engine) {
		e.entries = max(n, 0)
	}
}

// WithMaxDepth limits the nesting of groups and masks.  Deeper layers
// are skipped.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithMaxMargin limits the extra area composited around each tile.
func WithMaxMargin(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxMargin = n
		}
	}
}

// WithFlatness sets the curve approximation tolerance, in pixels.
func WithFlatness(f float64) Option {
	return func(e *Engine) {
		if f > 0 {
			e.flatness = f
		}
	}
}

// WithColorTransformer sets the conversion applied to the colours of
// vector layers.
func WithColorTransformer(c ColorTransformer) Option {
	return func(e *Engine) {
		e.colors = c
	}
}

// New returns a new compositing engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		backend:   &CPU{},
		logger:    zap.NewNop(),
		tileSize:  DefaultTileSize,
		workers:   runtime.GOMAXPROCS(0),
		maxDepth:  layer.DefaultMaxDepth,
		maxMargin: DefaultMaxMargin,
		flatness:  raster.DefaultFlatness,
		entries:   DefaultCacheEntries,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.entries > 0 {
		// lru.New only fails for non-positive sizes
		e.cache, _ = lru.New(e.entries)
	}
	return e
}

// Stats returns the counters of the engine.
func (e *Engine) Stats() Stats {
	return Stats{
		Tiles:       e.tiles.Load(),
		CacheHits:   e.hits.Load(),
		CacheMisses: e.misses.Load(),
		Failed:      e.failed.Load(),
		Superseded:  e.superseded.Load(),
	}
}

// Composite renders the part of the document inside region.  An empty
// region means the whole canvas.
//
// If some tiles cannot be composited, they are left transparent and the
// result is returned together with one [*RenderResourceError] per failed
// tile, combined using [errors.Join].  Cancelling ctx aborts the whole
// composite.
func (e *Engine) Composite(ctx context.Context, snap layer.Snapshot, region image.Rectangle) (*pixel.Buffer, error) {
	if region.Empty() {
		region = docBounds(snap)
	} else if c := snap.Canvas(); !c.Empty() {
		region = region.Intersect(c)
	}
	out := pixel.New(region)
	failed, err := e.compositeInto(ctx, snap, out, region)
	if err != nil {
		return nil, err
	}
	return out, joinFailed(failed)
}

func docBounds(snap layer.Snapshot) image.Rectangle {
	if c := snap.Canvas(); !c.Empty() {
		return c
	}
	return snap.Bounds(snap.Root())
}

func joinFailed(failed []*RenderResourceError) error {
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	for i, f := range failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// compositeInto renders region into out, one tile per worker.  Tiles
// which fail for lack of resources are reported in the first return
// value, all other errors abort the composite.
func (e *Engine) compositeInto(ctx context.Context, snap layer.Snapshot, out *pixel.Buffer, region image.Rectangle) ([]*RenderResourceError, error) {
	margin := e.margin(snap)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	var mu sync.Mutex
	var failed []*RenderResourceError
	for _, tile := range tiles(region, e.tileSize) {
		g.Go(func() error {
			buf, err := e.tile(gctx, snap, tile, margin)
			var rErr *RenderResourceError
			if errors.As(err, &rErr) {
				e.failed.Add(1)
				e.logger.Warn("tile failed",
					zap.Stringer("region", tile),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, &RenderResourceError{Region: tile, Err: rErr.Err})
				mu.Unlock()
				return nil
			} else if err != nil {
				return err
			}
			out.CopyFrom(buf, tile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return failed, nil
}

// margin returns the number of pixels around a tile which can influence
// the tile because of adjustments.
func (e *Engine) margin(snap layer.Snapshot) int {
	m := 0
	_ = snap.Walk(func(l *layer.Layer, _ int) error {
		m += l.Adjustments.Margin()
		return nil
	})
	return min(m, e.maxMargin)
}

func tiles(r image.Rectangle, size int) []image.Rectangle {
	var res []image.Rectangle
	for y := r.Min.Y; y < r.Max.Y; y += size {
		for x := r.Min.X; x < r.Max.X; x += size {
			res = append(res, image.Rect(x, y, min(x+size, r.Max.X), min(y+size, r.Max.Y)))
		}
	}
	return res
}

func (e *Engine) tile(ctx context.Context, snap layer.Snapshot, tile image.Rectangle, margin int) (*pixel.Buffer, error) {
	e.tiles.Add(1)
	area := tile.Inset(-margin)
	if c := snap.Canvas(); !c.Empty() {
		area = area.Intersect(c)
	}
	p := &pass{e: e, ctx: ctx, snap: snap, area: area}
	buf, err := p.group(snap.Root(), 0)
	if err != nil {
		return nil, err
	}
	if root, ok := snap.Get(snap.Root()); ok && len(root.Adjustments) > 0 {
		buf = root.Adjustments.Apply(buf)
	}
	return buf, nil
}

func (e *Engine) alloc(r image.Rectangle) (*pixel.Buffer, error) {
	buf, err := e.backend.Alloc(r)
	if err != nil {
		var rErr *RenderResourceError
		if !errors.As(err, &rErr) {
			err = &RenderResourceError{Region: r, Err: err}
		}
		return nil, err
	}
	return buf, nil
}

// pass composites one tile.
type pass struct {
	e    *Engine
	ctx  context.Context
	snap layer.Snapshot
	area image.Rectangle
}

// group composites the children of a group onto a transparent buffer.
func (p *pass) group(id layer.ID, depth int) (*pixel.Buffer, error) {
	acc, err := p.e.alloc(p.area)
	if err != nil {
		return nil, err
	}
	for _, c := range p.snap.Children(id) {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		l, ok := p.snap.Get(c)
		if !ok || !l.Visible || !(l.Opacity > 0) {
			continue
		}
		mask, err := p.mask(l, depth)
		if err != nil {
			return nil, err
		}

		if l.Kind() == layer.KindAdjustment {
			if len(l.Adjustments) > 0 {
				adjusted := l.Adjustments.Apply(acc)
				blend.Lerp(acc, adjusted, p.area, float32(l.Opacity), mask)
			}
			continue
		}

		px, err := p.pixels(l, depth)
		if err != nil {
			return nil, err
		}
		if px == nil {
			continue
		}
		p.e.backend.Blend(acc, px, p.area, l.Blend, float32(l.Opacity), mask)
	}
	return acc, nil
}

// pixels returns the content of a layer with its adjustments applied.
// The result is nil if the layer has no content.
func (p *pass) pixels(l *layer.Layer, depth int) (*pixel.Buffer, error) {
	if depth >= p.e.maxDepth {
		p.e.logger.Warn("layer nested too deeply",
			zap.Uint64("layer", uint64(l.ID)),
			zap.Int("depth", depth))
		return nil, nil
	}

	var buf *pixel.Buffer
	var err error
	switch c := l.Content.(type) {
	case layer.Raster:
		buf, err = p.raster(l, c)
	case layer.Vector:
		buf, err = p.vector(l, c)
	case layer.Group:
		buf, err = p.group(l.ID, depth+1)
	}
	if err != nil || buf == nil {
		return nil, err
	}
	if len(l.Adjustments) > 0 {
		buf = l.Adjustments.Apply(buf)
	}
	return buf, nil
}

// mask returns the mask of l, or nil if l is not masked.  The alpha
// channel of the result restricts l.
func (p *pass) mask(l *layer.Layer, depth int) (*pixel.Buffer, error) {
	if l.Mask == 0 {
		return nil, nil
	}
	m, ok := p.snap.Get(l.Mask)
	if !ok {
		return nil, nil
	}
	px, err := p.pixels(m, depth+1)
	if err != nil {
		return nil, err
	}
	if px == nil {
		// a mask without content hides everything
		return p.e.alloc(p.area)
	}

	inner, err := p.mask(m, depth+1)
	if err != nil || inner == nil {
		return px, err
	}
	res, err := p.e.alloc(p.area)
	if err != nil {
		return nil, err
	}
	p.e.backend.Blend(res, px, p.area, blend.Normal, 1, inner)
	return res, nil
}

func (p *pass) raster(l *layer.Layer, c layer.Raster) (*pixel.Buffer, error) {
	if c.Buffer == nil || c.Buffer.Rect.Empty() {
		return nil, nil
	}
	res := c.Resolution
	if !(res > 0) {
		res = 1
	}
	m := shape.Concat(matrix.Scale(1/res, 1/res), p.snap.WorldTransform(l.ID))
	dst, err := p.e.alloc(p.area)
	if err != nil {
		return nil, err
	}
	pixel.TransformInto(dst, c.Buffer, m, p.area)
	return dst, nil
}

func (p *pass) vector(l *layer.Layer, c layer.Vector) (*pixel.Buffer, error) {
	if c.Path == nil || c.Fill == nil && c.Stroke == nil {
		return nil, nil
	}
	req := &raster.Request{
		Path:       c.Path,
		Fill:       c.Fill,
		Rule:       c.Rule,
		Stroke:     c.Stroke,
		Transform:  p.snap.WorldTransform(l.ID),
		Resolution: 1,
		Clip:       p.area,
		Flatness:   p.e.flatness,
	}
	if p.e.colors != nil {
		f := p.e.colors.ToWorkingSpace
		if req.Fill != nil {
			req.Fill = req.Fill.MapColors(f)
		}
		if req.Stroke != nil {
			st := *req.Stroke
			if st.Fill == nil {
				st.Fill = paint.Solid{Color: paint.RGBA(0, 0, 0, 1)}
			}
			st.Fill = st.Fill.MapColors(f)
			req.Stroke = &st
		}
	}
	return p.e.rasterize(p.ctx, l, req)
}

// cacheKey identifies a rasterized vector layer.
type cacheKey struct {
	id      layer.ID
	version uint64
	ctm     matrix.Matrix
	clip    image.Rectangle
}

// rasterize renders a vector layer, using the cache where possible.
// Concurrent requests for the same key share one rasterization.
// Cached buffers are shared and must not be modified.
func (e *Engine) rasterize(ctx context.Context, l *layer.Layer, req *raster.Request) (*pixel.Buffer, error) {
	key := cacheKey{id: l.ID, version: l.Version(), ctm: req.CTM(), clip: req.Clip}
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			e.hits.Add(1)
			return v.(*pixel.Buffer), nil
		}
	}
	e.misses.Add(1)

	v, err, _ := e.flight.Do(fmt.Sprint(key), func() (any, error) {
		buf, err := e.backend.Rasterize(ctx, req)
		var gErr *shape.GeometryError
		if errors.As(err, &gErr) {
			e.logger.Warn("vector layer approximated",
				zap.Uint64("layer", uint64(l.ID)),
				zap.Error(err))
			err = nil
		}
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			e.cache.Add(key, buf)
		}
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pixel.Buffer), nil
}
