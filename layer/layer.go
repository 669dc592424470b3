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

// Package layer implements the layer tree of a document.
//
// The tree is mutated through the methods of [Tree], which validate every
// change before applying it.  Readers obtain an immutable [Snapshot],
// which can be used concurrently with further mutations.
package layer

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/layers/adjust"
	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/raster"
	"seehuhn.de/go/layers/shape"
)

// ID identifies a layer within a tree.  The zero value means "no layer".
type ID uint64

// Kind is the type of content of a layer.
type Kind uint8

// These are the kinds of layers.
const (
	KindRaster Kind = iota + 1
	KindVector
	KindGroup
	KindAdjustment
)

func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindVector:
		return "vector"
	case KindGroup:
		return "group"
	case KindAdjustment:
		return "adjustment"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Content is the payload of a layer.  This is one of [Raster], [Vector],
// [Group] or [AdjustmentOnly].
type Content interface {
	Kind() Kind
}

// Raster is pixel content.
type Raster struct {
	// Buffer holds the pixels, in layer pixel coordinates.  The buffer is
	// shared between snapshots and must not be modified; use
	// [Tree.EditRaster] to change pixels.
	Buffer *pixel.Buffer

	// Resolution is the number of layer pixels per document unit.
	// Zero means 1.
	Resolution float64
}

// Kind implements the [Content] interface.
func (Raster) Kind() Kind { return KindRaster }

// Vector is resolution independent content, rasterized at composite time.
type Vector struct {
	Path   *shape.Path
	Fill   paint.Fill // nil means no fill
	Rule   raster.FillRule
	Stroke *paint.StrokeStyle // nil means no stroke
}

// Kind implements the [Content] interface.
func (Vector) Kind() Kind { return KindVector }

// Group contains other layers, which are composited in isolation before
// the result is blended onto the layers below the group.
type Group struct{}

// Kind implements the [Content] interface.
func (Group) Kind() Kind { return KindGroup }

// AdjustmentOnly has no content of its own.  Its adjustments are applied
// to the composite of all layers below it, within the same group.
type AdjustmentOnly struct{}

// Kind implements the [Content] interface.
func (AdjustmentOnly) Kind() Kind { return KindAdjustment }

// Layer is a node of the layer tree.
//
// Layers obtained from a [Snapshot] are shared and must not be modified.
type Layer struct {
	ID    ID
	Label string

	// Transform maps layer coordinates to the coordinates of the parent.
	Transform matrix.Matrix

	Opacity float64 // in [0, 1]
	Blend   blend.Mode
	Visible bool

	// Locked layers reject changes to their content.
	Locked bool

	// Mask is the layer whose alpha channel restricts this layer, or 0.
	Mask ID

	Adjustments adjust.Pipeline
	Content     Content

	parent   ID
	children []ID
	version  uint64
}

// New returns a visible, fully opaque layer with Normal blend mode and an
// identity transform, suitable as an argument to [Tree.Insert].
func New(label string, content Content) *Layer {
	return &Layer{
		Label:     label,
		Transform: matrix.Identity,
		Opacity:   1,
		Blend:     blend.Normal,
		Visible:   true,
		Content:   content,
	}
}

// Kind returns the kind of content of the layer.
func (l *Layer) Kind() Kind {
	if l.Content == nil {
		return 0
	}
	return l.Content.Kind()
}

// Parent returns the ID of the group containing the layer.
// For the root layer, 0 is returned.
func (l *Layer) Parent() ID {
	return l.parent
}

// Children returns the children of a group, from bottom to top.
// The returned slice must not be modified.
func (l *Layer) Children() []ID {
	return l.children
}

// Version changes whenever the layer or any layer it depends on changes.
// Versions are never reused within a tree, also not after undo.
func (l *Layer) Version() uint64 {
	return l.version
}

// clone returns a writable copy of l.
func (l *Layer) clone() *Layer {
	res := *l
	res.children = append([]ID(nil), l.children...)
	return &res
}
