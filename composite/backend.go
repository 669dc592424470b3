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
	"fmt"
	"image"

	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/raster"
)

// Backend performs the pixel work of the compositing engine.
//
// Implementations must follow the blend formulas of the [blend] package.
// All methods must be safe for concurrent use.
type Backend interface {
	// Alloc returns a transparent buffer covering r.
	Alloc(r image.Rectangle) (*pixel.Buffer, error)

	// Rasterize renders a vector shape into a new buffer covering
	// req.Clip.  A [*shape.GeometryError] is returned together with an
	// approximate result.
	Rasterize(ctx context.Context, req *raster.Request) (*pixel.Buffer, error)

	// Blend composites src onto dst inside r.
	Blend(dst, src *pixel.Buffer, r image.Rectangle, mode blend.Mode, opacity float32, mask *pixel.Buffer)
}

// ErrAllocation is wrapped by a [RenderResourceError] when a buffer could
// not be allocated.
var ErrAllocation = errors.New("buffer allocation failed")

// RenderResourceError reports that a region of the document could not be
// composited.  Other regions are not affected.
type RenderResourceError struct {
	Region image.Rectangle
	Err    error
}

func (e *RenderResourceError) Error() string {
	return fmt.Sprintf("composite: region %v: %v", e.Region, e.Err)
}

func (e *RenderResourceError) Unwrap() error {
	return e.Err
}

// CPU is the default backend.  It renders using the [raster] and [blend]
// packages.
type CPU struct {
	// MaxPixels limits the size of a single buffer.  Zero means no limit.
	MaxPixels int64
}

// Alloc implements the [Backend] interface.
func (c *CPU) Alloc(r image.Rectangle) (*pixel.Buffer, error) {
	if c.MaxPixels > 0 && !r.Empty() && int64(r.Dx())*int64(r.Dy()) > c.MaxPixels {
		return nil, &RenderResourceError{Region: r, Err: ErrAllocation}
	}
	return pixel.New(r), nil
}

// Rasterize implements the [Backend] interface.
func (c *CPU) Rasterize(ctx context.Context, req *raster.Request) (*pixel.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst, err := c.Alloc(req.Clip)
	if err != nil {
		return nil, err
	}
	err = raster.NewRasterizer(req.Clip).Paint(dst, req)
	return dst, err
}

// Blend implements the [Backend] interface.
func (c *CPU) Blend(dst, src *pixel.Buffer, r image.Rectangle, mode blend.Mode, opacity float32, mask *pixel.Buffer) {
	blend.Draw(dst, src, r, mode, opacity, mask)
}
