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

// Package document implements image documents made of layers.
//
// A [Document] owns a layer tree, the tracker which collects the regions
// changed by edits, and a compositing engine.  Image files are read and
// written through a [Codec], colours are converted through an optional
// [ColorManager], and the layer tree can be handed to a [Persister].
package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"go.uber.org/zap"

	"seehuhn.de/go/layers/codec"
	"seehuhn.de/go/layers/composite"
	"seehuhn.de/go/layers/dirty"
	"seehuhn.de/go/layers/layer"
	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
)

// Profile names a colour profile.  Profiles are interpreted by the
// [ColorManager]; the document only stores the reference.
type Profile string

// Codec reads and writes image files.
type Codec interface {
	Decode(data []byte) (*pixel.Buffer, codec.Metadata, error)
	Encode(buf *pixel.Buffer, format string) ([]byte, error)
}

// ColorManager converts colours from a profile into the working space.
type ColorManager interface {
	ToWorkingSpace(c paint.Color, p Profile) paint.Color
}

// Persister stores the layer tree of a document.
type Persister interface {
	Save(s layer.Snapshot) error
}

var (
	// ErrClosed is returned when a closed document is used.
	ErrClosed = errors.New("document: closed")

	// ErrSize is returned for documents without pixels.
	ErrSize = errors.New("document: invalid size")
)

// DecodeError reports a file which could not be read.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "document: decode: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a document which could not be written.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("document: encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Document is an image made of layers.
type Document struct {
	logger  *zap.Logger
	config  *Config
	codec   Codec
	colors  ColorManager
	profile Profile
	backend composite.Backend

	canvas  image.Rectangle
	tree    *layer.Tree
	tracker *dirty.Tracker
	engine  *composite.Engine
	closed  atomic.Bool
}

// Option configures a [Document].
type Option func(*Document)

// WithLogger sets the logger of the document.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithConfig sets the configuration.  The default is [DefaultConfig].
func WithConfig(c *Config) Option {
	return func(d *Document) {
		if c != nil {
			cc := *c
			cc.normalize()
			d.config = &cc
		}
	}
}

// WithCodec sets the codec used by [Load] and [Document.Export].  The
// default is a [codec.Codec].
func WithCodec(c Codec) Option {
	return func(d *Document) {
		if c != nil {
			d.codec = c
		}
	}
}

// WithColorManager sets the colour manager.  Without a colour manager,
// all colours are used unchanged.
func WithColorManager(m ColorManager) Option {
	return func(d *Document) {
		d.colors = m
	}
}

// WithProfile sets the colour profile of the document.
func WithProfile(p Profile) Option {
	return func(d *Document) {
		d.profile = p
	}
}

// WithBackend sets the compositing backend.  The default is a
// [composite.CPU] backend limited to the configured buffer size.
func WithBackend(b composite.Backend) Option {
	return func(d *Document) {
		d.backend = b
	}
}

// New creates an empty document.
func New(width, height int, opts ...Option) (*Document, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrSize
	}
	d := newDocument(opts)
	d.init(image.Rect(0, 0, width, height))
	d.logger.Info("document created",
		zap.Int("width", width),
		zap.Int("height", height))
	return d, nil
}

// Load creates a document from an image file.  The image becomes the
// only layer of the document.
func Load(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := newDocument(opts)
	buf, md, err := d.codec.Decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if buf.Rect.Empty() {
		return nil, &DecodeError{Err: ErrSize}
	}
	d.init(buf.Rect)
	d.toWorkingSpace(buf)

	bg := layer.New("Background", layer.Raster{Buffer: buf})
	if _, err := d.tree.Insert(0, bg, 0); err != nil {
		return nil, err
	}
	d.logger.Info("document loaded",
		zap.String("format", md.Format),
		zap.Stringer("bounds", md.Bounds))
	return d, nil
}

func newDocument(opts []Option) *Document {
	d := &Document{
		logger: zap.NewNop(),
		config: DefaultConfig(),
		codec:  &codec.Codec{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.backend == nil {
		d.backend = &composite.CPU{MaxPixels: d.config.Render.MaxBufferPixels}
	}
	return d
}

func (d *Document) init(canvas image.Rectangle) {
	rc := d.config.Render
	d.canvas = canvas
	d.tracker = &dirty.Tracker{MaxRegions: rc.MaxDirtyRegions}
	d.tree = layer.NewTree(
		layer.WithLogger(d.logger.Named("layer")),
		layer.WithTracker(d.tracker),
		layer.WithCanvas(canvas),
		layer.WithMaxDepth(rc.MaxDepth),
		layer.WithHistory(d.config.History.MaxLevels),
	)
	opts := []composite.Option{
		composite.WithBackend(d.backend),
		composite.WithLogger(d.logger.Named("composite")),
		composite.WithTileSize(rc.TileSize),
		composite.WithWorkers(rc.Workers),
		composite.WithCacheEntries(rc.CacheEntries),
		composite.WithMaxDepth(rc.MaxDepth),
		composite.WithMaxMargin(rc.MaxMargin),
		composite.WithFlatness(rc.Flatness),
	}
	if d.colors != nil {
		opts = append(opts, composite.WithColorTransformer(colorBinding{d.colors, d.profile}))
	}
	d.engine = composite.New(opts...)
}

// colorBinding applies a colour manager for a fixed profile.
type colorBinding struct {
	m ColorManager
	p Profile
}

func (b colorBinding) ToWorkingSpace(c paint.Color) paint.Color {
	return b.m.ToWorkingSpace(c, b.p)
}

// toWorkingSpace converts the pixels of a decoded image in place.
func (d *Document) toWorkingSpace(buf *pixel.Buffer) {
	if d.colors == nil {
		return
	}
	r := buf.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := paint.FromPremultiplied(buf.Pixel(x, y))
			c = d.colors.ToWorkingSpace(c, d.profile).Clamp()
			buf.SetPixel(x, y, c.Premultiplied())
		}
	}
}

// Tree returns the layer tree of the document.
func (d *Document) Tree() *layer.Tree {
	return d.tree
}

// Tracker returns the tracker which collects the regions changed by
// edits.  The regions are consumed by [Document.Render].
func (d *Document) Tracker() *dirty.Tracker {
	return d.tracker
}

// Canvas returns the area of the document, in pixels.
func (d *Document) Canvas() image.Rectangle {
	return d.canvas
}

// DPI returns the resolution of the document in pixels per inch.
func (d *Document) DPI() float64 {
	return d.config.Render.DPI
}

// Profile returns the colour profile of the document.
func (d *Document) Profile() Profile {
	return d.profile
}

// Stats returns the counters of the compositing engine.
func (d *Document) Stats() composite.Stats {
	return d.engine.Stats()
}

// Render returns the current state of the document.  Only regions
// changed since the previous call are composited again.
// See [composite.Engine.Render] for the error semantics.
func (d *Document) Render(ctx context.Context) (*pixel.Buffer, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return d.engine.Render(ctx, d.tree)
}

// Composite renders the part of the document inside region.  An empty
// region means the whole canvas.
func (d *Document) Composite(ctx context.Context, region image.Rectangle) (*pixel.Buffer, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	return d.engine.Composite(ctx, d.tree.Snapshot(), region)
}

// Export composites the whole document and encodes the result in the
// given format.
func (d *Document) Export(ctx context.Context, format string) ([]byte, error) {
	buf, err := d.Composite(ctx, image.Rectangle{})
	if err != nil {
		return nil, err
	}
	data, err := d.codec.Encode(buf, format)
	if err != nil {
		return nil, &EncodeError{Format: format, Err: err}
	}
	d.logger.Debug("document exported",
		zap.String("format", format),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Walk calls fn for every layer of the document, parents before children
// and siblings from bottom to top.
func (d *Document) Walk(fn func(l *layer.Layer, depth int) error) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.tree.Snapshot().Walk(fn)
}

// Save passes the current state of the layer tree to p.
func (d *Document) Save(p Persister) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return p.Save(d.tree.Snapshot())
}

// Close releases the document.  Further calls to the document's methods
// return [ErrClosed].
func (d *Document) Close() error {
	if d.closed.Swap(true) {
		return ErrClosed
	}
	d.logger.Info("document closed")
	return nil
}
