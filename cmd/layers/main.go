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

// Command layers stacks image files as layers and writes the composite.
//
// Usage:
//
//	layers [flags] base.png overlay.png ...
//
// The first file becomes the background.  Every further file is added as
// a raster layer on top, using the blend mode and opacity given by the
// flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"seehuhn.de/go/layers/adjust"
	"seehuhn.de/go/layers/blend"
	"seehuhn.de/go/layers/codec"
	"seehuhn.de/go/layers/document"
	"seehuhn.de/go/layers/layer"
)

func main() {
	out := flag.String("o", "out.png", "output file; the format follows the extension")
	configFile := flag.String("config", "", "TOML configuration file")
	mode := flag.String("mode", "normal", "blend mode of the overlays")
	opacity := flag.Float64("opacity", 1, "opacity of the overlays")
	blur := flag.Float64("blur", 0, "Gaussian blur radius applied to the overlays")
	group := flag.Bool("group", false, "put the overlays into an isolated group")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] base overlay...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	var l *zap.Logger
	if *debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer l.Sync() //nolint:errcheck

	cfg := document.DefaultConfig()
	if *configFile != "" {
		cfg, err = document.LoadConfig(*configFile)
		if err != nil {
			l.Fatal("read config", zap.String("path", *configFile), zap.Error(err))
		}
	}
	m, err := blend.ParseMode(*mode)
	if err != nil {
		l.Fatal("blend mode", zap.Error(err))
	}
	format, err := codec.Format(filepath.Ext(*out))
	if err != nil {
		l.Fatal("output format", zap.String("path", *out), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	o := overlay{mode: m, opacity: *opacity, blur: *blur, group: *group}
	data, err := run(ctx, l, cfg, flag.Args(), o, format)
	if err != nil {
		l.Fatal("compose", zap.Error(err))
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		l.Fatal("write output", zap.String("path", *out), zap.Error(err))
	}
	l.Info("wrote output", zap.String("path", *out), zap.Int("bytes", len(data)))
}

// overlay describes how the files after the first are stacked.
type overlay struct {
	mode    blend.Mode
	opacity float64
	blur    float64
	group   bool
}

func run(ctx context.Context, l *zap.Logger, cfg *document.Config, files []string, o overlay, format string) ([]byte, error) {
	base, err := os.ReadFile(files[0])
	if err != nil {
		return nil, err
	}
	doc, err := document.Load(ctx, base, document.WithLogger(l), document.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", files[0], err)
	}
	defer doc.Close()

	tree := doc.Tree()
	parent := tree.Root()
	if o.group {
		parent, err = tree.Insert(0, layer.New("overlays", layer.Group{}), 1)
		if err != nil {
			return nil, err
		}
	}

	c := &codec.Codec{}
	for i, name := range files[1:] {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		buf, md, err := c.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, &document.DecodeError{Err: err})
		}
		ly := layer.New(filepath.Base(name), layer.Raster{Buffer: buf})
		ly.Blend = o.mode
		ly.Opacity = o.opacity
		if o.blur > 0 {
			ly.Adjustments = adjust.Pipeline{adjust.GaussianBlur{Radius: o.blur}}
		}
		n := len(tree.Snapshot().Children(parent))
		if _, err := tree.Insert(parent, ly, n); err != nil {
			return nil, err
		}
		l.Debug("added layer",
			zap.Int("index", i+1),
			zap.String("file", name),
			zap.String("format", md.Format))
	}

	return doc.Export(ctx, format)
}
