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

// Package codec converts between encoded image files and pixel buffers.
//
// Decoding supports PNG, JPEG, GIF, BMP, TIFF and WebP.  Encoding
// supports PNG, JPEG, GIF, BMP and TIFF.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"seehuhn.de/go/layers/pixel"
)

// Format names, as returned by [Format] and accepted by [Codec.Encode].
const (
	PNG  = "png"
	JPEG = "jpeg"
	GIF  = "gif"
	BMP  = "bmp"
	TIFF = "tiff"
	WebP = "webp"
)

// ErrFormat is returned for unknown or unsupported image formats.
var ErrFormat = errors.New("unsupported image format")

// DefaultJPEGQuality is used when Codec.JPEGQuality is not set.
const DefaultJPEGQuality = 90

// Metadata describes a decoded image.
type Metadata struct {
	Format string
	Bounds image.Rectangle
	Opaque bool
}

// Codec is the default image codec.  The zero value is ready to use.
type Codec struct {
	// JPEGQuality is the quality used for JPEG encoding, in the range 1
	// to 100.  Zero means DefaultJPEGQuality.
	JPEGQuality int
}

// Decode decodes an image file.  The colour values of the image are
// interpreted as sRGB.
func (c *Codec) Decode(data []byte) (*pixel.Buffer, Metadata, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, Metadata{}, ErrFormat
	} else if err != nil {
		return nil, Metadata{}, err
	}
	buf := pixel.FromImage(img)
	md := Metadata{
		Format: format,
		Bounds: img.Bounds(),
		Opaque: buf.Opaque(),
	}
	return buf, md, nil
}

// Encode encodes buf in the given format.
func (c *Codec) Encode(buf *pixel.Buffer, format string) ([]byte, error) {
	format, err := Format(format)
	if err != nil {
		return nil, err
	}
	img := buf.NRGBA()

	out := &bytes.Buffer{}
	switch format {
	case PNG:
		err = png.Encode(out, img)
	case JPEG:
		q := c.JPEGQuality
		if q <= 0 {
			q = DefaultJPEGQuality
		}
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: min(q, 100)})
	case GIF:
		err = gif.Encode(out, img, nil)
	case BMP:
		err = bmp.Encode(out, img)
	case TIFF:
		err = tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("%s: %w", format, ErrFormat)
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Format returns the canonical name of an image format.  File name
// extensions, with or without the leading dot, are accepted.
func Format(name string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrFormat)
}
