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
	"io"
	"runtime"

	"github.com/BurntSushi/toml"

	"seehuhn.de/go/layers/composite"
	"seehuhn.de/go/layers/dirty"
	"seehuhn.de/go/layers/layer"
	"seehuhn.de/go/layers/raster"
)

// Config holds the tunable parameters of a document.
type Config struct {
	Render  RenderConfig  `toml:"render"`
	History HistoryConfig `toml:"history"`
}

// RenderConfig controls compositing.
type RenderConfig struct {
	TileSize        int     `toml:"tile_size"`
	Workers         int     `toml:"workers"`
	Flatness        float64 `toml:"flatness"`
	MaxBufferPixels int64   `toml:"max_buffer_pixels"` // 0 means no limit
	CacheEntries    int     `toml:"cache_entries"`
	MaxDepth        int     `toml:"max_depth"`
	MaxDirtyRegions int     `toml:"max_dirty_regions"`
	MaxMargin       int     `toml:"max_margin"`
	DPI             float64 `toml:"dpi"`
}

// HistoryConfig controls undo.
type HistoryConfig struct {
	MaxLevels int `toml:"max_levels"`
}

// DefaultDPI is the resolution of new documents.
const DefaultDPI = 72

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			TileSize:        composite.DefaultTileSize,
			Workers:         runtime.GOMAXPROCS(0),
			Flatness:        raster.DefaultFlatness,
			CacheEntries:    composite.DefaultCacheEntries,
			MaxDepth:        layer.DefaultMaxDepth,
			MaxDirtyRegions: dirty.DefaultMaxRegions,
			MaxMargin:       composite.DefaultMaxMargin,
			DPI:             DefaultDPI,
		},
		History: HistoryConfig{
			MaxLevels: layer.DefaultHistory,
		},
	}
}

// LoadConfig reads a configuration file in TOML format.  Settings missing
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	c.normalize()
	return c, nil
}

// DecodeConfig parses a configuration in TOML format.  Settings missing
// from the text keep their default values.
func DecodeConfig(text string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.Decode(text, c); err != nil {
		return nil, err
	}
	c.normalize()
	return c, nil
}

// Encode writes the configuration in TOML format.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// normalize replaces invalid values by their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	r := &c.Render
	if r.TileSize <= 0 {
		r.TileSize = def.Render.TileSize
	}
	if r.Workers <= 0 {
		r.Workers = def.Render.Workers
	}
	if !(r.Flatness > 0) {
		r.Flatness = def.Render.Flatness
	}
	r.MaxBufferPixels = max(r.MaxBufferPixels, 0)
	r.CacheEntries = max(r.CacheEntries, 0)
	if r.MaxDepth <= 0 {
		r.MaxDepth = def.Render.MaxDepth
	}
	if r.MaxDirtyRegions <= 0 {
		r.MaxDirtyRegions = def.Render.MaxDirtyRegions
	}
	if r.MaxMargin < 0 {
		r.MaxMargin = def.Render.MaxMargin
	}
	if !(r.DPI > 0) {
		r.DPI = def.Render.DPI
	}
	c.History.MaxLevels = max(c.History.MaxLevels, 0)
}
