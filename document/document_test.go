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

package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/layers/codec"
	"seehuhn.de/go/layers/layer"
	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
	"seehuhn.de/go/layers/shape"
)

func pngData(t *testing.T, r image.Rectangle, c [4]float32) []byte {
	t.Helper()
	buf := pixel.New(r)
	buf.Fill(r, c)
	data, err := (&codec.Codec{}).Encode(buf, codec.PNG)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func near(a, b [4]float32, eps float64) bool {
	for i := range 4 {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestNewRender(t *testing.T) {
	d, err := New(20, 10)
	if err != nil {
		t.Fatal(err)
	}
	disc := layer.New("disc", layer.Vector{
		Path: shape.Ellipse(vec.Vec2{X: 10, Y: 5}, 4, 4),
		Fill: paint.Solid{Color: paint.RGBA(1, 1, 1, 1)},
	})
	if _, err := d.Tree().Insert(0, disc, 0); err != nil {
		t.Fatal(err)
	}

	buf, err := d.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if buf.Rect != image.Rect(0, 0, 20, 10) {
		t.Errorf("rect %v", buf.Rect)
	}
	if p := buf.Pixel(10, 5); !near(p, [4]float32{1, 1, 1, 1}, 1e-5) {
		t.Errorf("centre %v", p)
	}
	if p := buf.Pixel(0, 0); p != [4]float32{} {
		t.Errorf("corner %v", p)
	}
	if !d.Tracker().Empty() {
		t.Error("dirty regions left after render")
	}
}

func TestInvalidSize(t *testing.T) {
	if _, err := New(0, 10); !errors.Is(err, ErrSize) {
		t.Errorf("got %v", err)
	}
}

func TestLoadExport(t *testing.T) {
	r := image.Rect(0, 0, 12, 7)
	col := paint.RGBA(0.2, 0.6, 1, 1).Premultiplied()
	ctx := context.Background()

	d, err := Load(ctx, pngData(t, r, col))
	if err != nil {
		t.Fatal(err)
	}
	if d.Canvas() != r {
		t.Errorf("canvas %v", d.Canvas())
	}
	n := 0
	err = d.Walk(func(l *layer.Layer, depth int) error {
		if depth == 1 && l.Kind() != layer.KindRaster {
			t.Errorf("layer %q has kind %v", l.Label, l.Kind())
		}
		n++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("%d layers, want root and background", n)
	}

	data, err := d.Export(ctx, "png")
	if err != nil {
		t.Fatal(err)
	}
	buf, _, err := (&codec.Codec{}).Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if p := buf.Pixel(3, 3); !near(p, col, 0.01) {
		t.Errorf("got %v, want %v", p, col)
	}
}

func TestDecodeError(t *testing.T) {
	_, err := Load(context.Background(), []byte("garbage"))
	var dErr *DecodeError
	if !errors.As(err, &dErr) {
		t.Fatalf("got %v, want a DecodeError", err)
	}
	if !errors.Is(err, codec.ErrFormat) {
		t.Errorf("%v does not wrap ErrFormat", err)
	}
}

func TestEncodeError(t *testing.T) {
	d, err := New(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Export(context.Background(), "xcf")
	var eErr *EncodeError
	if !errors.As(err, &eErr) || eErr.Format != "xcf" {
		t.Errorf("got %v, want an EncodeError", err)
	}
}

type redManager struct {
	profiles []Profile
}

func (m *redManager) ToWorkingSpace(c paint.Color, p Profile) paint.Color {
	m.profiles = append(m.profiles, p)
	return paint.RGBA(1, 0, 0, c.A)
}

func TestColorManager(t *testing.T) {
	r := image.Rect(0, 0, 3, 2)
	m := &redManager{}
	d, err := Load(context.Background(), pngData(t, r, [4]float32{0, 0, 1, 1}),
		WithColorManager(m), WithProfile("Display P3"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Profile() != "Display P3" {
		t.Errorf("profile %q", d.Profile())
	}
	buf, err := d.Composite(context.Background(), image.Rectangle{})
	if err != nil {
		t.Fatal(err)
	}
	if p := buf.Pixel(1, 1); p != [4]float32{1, 0, 0, 1} {
		t.Errorf("got %v", p)
	}
	if len(m.profiles) == 0 || m.profiles[0] != "Display P3" {
		t.Errorf("profiles %v", m.profiles)
	}
}

type countingPersister struct {
	labels []string
}

func (p *countingPersister) Save(s layer.Snapshot) error {
	return s.Walk(func(l *layer.Layer, _ int) error {
		p.labels = append(p.labels, l.Label)
		return nil
	})
}

func TestSaveClose(t *testing.T) {
	d, err := New(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Tree().Insert(0, layer.New("group", layer.Group{}), 0); err != nil {
		t.Fatal(err)
	}
	p := &countingPersister{}
	if err := d.Save(p); err != nil {
		t.Fatal(err)
	}
	if len(p.labels) != 2 || p.labels[1] != "group" {
		t.Errorf("saved %v", p.labels)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second close: %v", err)
	}
	if _, err := d.Render(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("render after close: %v", err)
	}
	if err := d.Save(p); !errors.Is(err, ErrClosed) {
		t.Errorf("save after close: %v", err)
	}
}

func TestConfig(t *testing.T) {
	c, err := DecodeConfig(`
[render]
tile_size = 64
workers = -3
max_buffer_pixels = 1000000

[history]
max_levels = 5
`)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if c.Render.TileSize != 64 || c.Render.MaxBufferPixels != 1000000 || c.History.MaxLevels != 5 {
		t.Errorf("got %+v", c)
	}
	if c.Render.Workers != def.Render.Workers {
		t.Errorf("workers %d, want default %d", c.Render.Workers, def.Render.Workers)
	}
	if c.Render.DPI != DefaultDPI {
		t.Errorf("dpi %g", c.Render.DPI)
	}

	buf := &bytes.Buffer{}
	if err := c.Encode(buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "layers.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	c2, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if *c2 != *c {
		t.Errorf("round trip: got %+v, want %+v", c2, c)
	}

	if _, err := DecodeConfig("[render\n"); err == nil {
		t.Error("invalid TOML accepted")
	}
}

func TestConfigLimitsBuffers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.MaxBufferPixels = 10
	d, err := New(8, 8, WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Export(context.Background(), "png")
	if err == nil {
		t.Error("export succeeded despite buffer limit")
	}
}
