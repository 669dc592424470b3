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

package raster

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/vector"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/shape"
	"seehuhn.de/go/layers/testcases"
)

func BenchmarkTestCases(b *testing.B) {
	r := NewRasterizer(image.Rectangle{})
	b.ReportAllocs()
	for b.Loop() {
		for _, cases := range testcases.All {
			for _, tc := range cases {
				coverage(r, tc)
			}
		}
	}
}

// ring returns an "O" shape: the outer circle is counter-clockwise, the
// inner one clockwise.
func ring(cx, cy, outer, inner float64) *shape.Path {
	c := vec.Vec2{X: cx, Y: cy}
	p := shape.Ellipse(c, outer, outer)
	p.Subpaths = append(p.Subpaths, shape.Ellipse(c, inner, -inner).Subpaths...)
	return p
}

// BenchmarkRingFill benchmarks the rasterizer drawing an "O" shape.
func BenchmarkRingFill(b *testing.B) {
	for _, size := range []int{20, 200, 2000} {
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			clip := image.Rect(0, 0, size, size)
			r := NewRasterizer(clip)
			dst := image.NewAlpha(clip)

			s := float64(size)
			p := ring(s/2, s/2, s*0.45, s*0.30)

			b.ReportAllocs()
			for b.Loop() {
				r.Fill(p, EvenOdd, func(y, xMin int, cov []float32) {
					row := dst.Pix[y*dst.Stride+xMin:]
					for i, c := range cov {
						row[i] = uint8(c * 255)
					}
				})
			}
		})
	}
}

// BenchmarkVectorRing draws the same shape using x/image/vector, for
// comparison.
func BenchmarkVectorRing(b *testing.B) {
	for _, size := range []int{20, 200, 2000} {
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			r := vector.NewRasterizer(size, size)
			dst := image.NewAlpha(image.Rect(0, 0, size, size))
			src := image.NewUniform(color.Alpha{A: 255})

			s := float32(size)
			b.ReportAllocs()
			for b.Loop() {
				r.Reset(size, size)
				addCircle(r, s/2, s/2, s*0.45, false)
				addCircle(r, s/2, s/2, s*0.30, true)
				r.Draw(dst, dst.Bounds(), src, image.Point{})
			}
		})
	}
}

func BenchmarkPaint(b *testing.B) {
	req := &Request{
		Path:   ring(256, 256, 200, 120),
		Fill:   paint.Solid{Color: paint.RGBA(0.2, 0.4, 0.8, 0.7)},
		Stroke: &paint.StrokeStyle{Width: 6, Fill: paint.Solid{Color: paint.Black}},
		Clip:   image.Rect(0, 0, 512, 512),
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Rasterize(req); err != nil {
			b.Fatal(err)
		}
	}
}

// addCircle adds a circle made of four cubic Bézier curves to r.
func addCircle(r *vector.Rasterizer, cx, cy, radius float32, clockwise bool) {
	const k = float32(0.5522847498)
	kr := k * radius

	r.MoveTo(cx, cy-radius)
	if clockwise {
		r.CubeTo(cx-kr, cy-radius, cx-radius, cy-kr, cx-radius, cy)
		r.CubeTo(cx-radius, cy+kr, cx-kr, cy+radius, cx, cy+radius)
		r.CubeTo(cx+kr, cy+radius, cx+radius, cy+kr, cx+radius, cy)
		r.CubeTo(cx+radius, cy-kr, cx+kr, cy-radius, cx, cy-radius)
	} else {
		r.CubeTo(cx+kr, cy-radius, cx+radius, cy-kr, cx+radius, cy)
		r.CubeTo(cx+radius, cy+kr, cx+kr, cy+radius, cx, cy+radius)
		r.CubeTo(cx-kr, cy+radius, cx-radius, cy+kr, cx-radius, cy)
		r.CubeTo(cx-radius, cy-kr, cx-kr, cy-radius, cx, cy-radius)
	}
	r.ClosePath()
}
