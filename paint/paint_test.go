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

package paint

import (
	"image"
	"math"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/layers/pixel"
)

func TestColorRoundTrip(t *testing.T) {
	for _, c := range []Color{Black, White, {0.2, 0.4, 0.6, 1}, {1, 0.5, 0, 0.25}} {
		got := FromPremultiplied(c.Premultiplied())
		if math.Abs(got.R-c.R) > 1e-5 || math.Abs(got.G-c.G) > 1e-5 ||
			math.Abs(got.B-c.B) > 1e-5 || math.Abs(got.A-c.A) > 1e-6 {
			t.Errorf("%v -> %v", c, got)
		}
	}
}

func TestClamp(t *testing.T) {
	c := RGBA(-1, 2, math.NaN(), 0.5)
	if c != (Color{0, 1, 0, 0.5}) {
		t.Errorf("got %v", c)
	}
}

func TestGradientExtend(t *testing.T) {
	g := &Gradient{
		Start: vec.Vec2{X: 0, Y: 0},
		End:   vec.Vec2{X: 10, Y: 0},
		Stops: []Stop{{0, Black}, {1, White}},
	}
	cases := []struct {
		extend Extend
		x      float64
		want   float32
	}{
		{Pad, 5, 0.5},
		{Pad, 12.5, 1},
		{Pad, -3, 0},
		{Repeat, 12.5, 0.25},
		{Reflect, 12.5, 0.75},
	}
	for _, c := range cases {
		g.Extend = c.extend
		got := g.Sampler(matrix.Identity).At(c.x, 0)
		if math.Abs(float64(got[0]-c.want)) > 1e-6 || got[3] != 1 {
			t.Errorf("extend %d at x=%g: got %v, want %g", c.extend, c.x, got, c.want)
		}
	}
}

func TestGradientTransparentStop(t *testing.T) {
	g := &Gradient{
		End:   vec.Vec2{X: 1},
		Stops: []Stop{{0, Color{1, 0, 0, 1}}, {1, Transparent}},
	}
	got := g.At(0.5)
	if got[1] != 0 || got[2] != 0 {
		t.Errorf("transparent stop tinted the colour: %v", got)
	}
	if math.Abs(float64(got[0]-0.5)) > 1e-6 || math.Abs(float64(got[3]-0.5)) > 1e-6 {
		t.Errorf("got %v", got)
	}
}

func TestPatternWraps(t *testing.T) {
	tile := pixel.New(image.Rect(0, 0, 2, 1))
	tile.SetPixel(0, 0, [4]float32{1, 0, 0, 1})
	tile.SetPixel(1, 0, [4]float32{0, 0, 1, 1})
	s := Pattern{Tile: tile}.Sampler(matrix.Identity)

	for x := -4; x < 4; x++ {
		got := s.At(float64(x)+0.5, 0.5)
		want := tile.Pixel(((x%2)+2)%2, 0)
		if got != want {
			t.Errorf("x=%d: got %v, want %v", x, got, want)
		}
	}
}

func TestMapColors(t *testing.T) {
	invert := func(c Color) Color { return Color{1 - c.R, 1 - c.G, 1 - c.B, c.A} }
	got := Solid{Color: Black}.MapColors(invert).(Solid)
	if got.Color != White {
		t.Errorf("got %v", got.Color)
	}

	g := &Gradient{Stops: []Stop{{0, Black}}}
	mapped := g.MapColors(invert).(*Gradient)
	if mapped.Stops[0].Color != White || g.Stops[0].Color != Black {
		t.Error("gradient stops not mapped into a copy")
	}
}

func TestStrokeNormalize(t *testing.T) {
	s := StrokeStyle{Width: -2, MiterLimit: 0.5, Dash: []float64{0, -1}, DashPhase: math.Inf(1)}.Normalize()
	if s.Width != MinStrokeWidth || s.MiterLimit != 1 || s.Dash != nil || s.DashPhase != 0 {
		t.Errorf("got %+v", s)
	}
	if _, ok := s.Fill.(Solid); !ok {
		t.Errorf("default fill is %T", s.Fill)
	}
	if d := (StrokeStyle{Width: 2}).Normalize(); d.MiterLimit != DefaultMiterLimit || d.Width != 2 {
		t.Errorf("got %+v", d)
	}
}
