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

package pixel

import (
	"image"
	"image/color"
	"math"
)

// SRGBToLinear converts a gamma encoded sRGB component in [0, 1] to
// linear light.
func SRGBToLinear(v float64) float64 {
	switch {
	case v <= 0.04045:
		return v / 12.92
	case v >= 1:
		return 1
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB converts a linear-light component in [0, 1] to gamma
// encoded sRGB.
func LinearToSRGB(v float64) float64 {
	switch {
	case v <= 0.0031308:
		return v * 12.92
	case v >= 1:
		return 1
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// decode8 maps 8-bit sRGB values to linear light.
var decode8 = func() (t [256]float32) {
	for i := range t {
		t[i] = float32(SRGBToLinear(float64(i) / 255))
	}
	return t
}()

// FromImage converts an image into a buffer.  The colour values of img are
// interpreted as sRGB.
func FromImage(img image.Image) *Buffer {
	r := img.Bounds()
	b := New(r)

	if src, ok := img.(*image.NRGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := b.Row(y, r.Min.X, r.Max.X)
			s := src.Pix[src.PixOffset(r.Min.X, y):]
			for i := 0; i < len(row); i += 4 {
				a := float32(s[i+3]) / 255
				row[i] = decode8[s[i]] * a
				row[i+1] = decode8[s[i+1]] * a
				row[i+2] = decode8[s[i+2]] * a
				row[i+3] = a
			}
		}
		return b
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := b.Row(y, r.Min.X, r.Max.X)
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			a := float32(c.A) / 0xffff
			i := 4 * (x - r.Min.X)
			row[i] = float32(SRGBToLinear(float64(c.R)/0xffff)) * a
			row[i+1] = float32(SRGBToLinear(float64(c.G)/0xffff)) * a
			row[i+2] = float32(SRGBToLinear(float64(c.B)/0xffff)) * a
			row[i+3] = a
		}
	}
	return b
}

// NRGBA converts the buffer to an 8-bit sRGB image with straight alpha.
func (b *Buffer) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(b.Rect)
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		row := b.Row(y, b.Rect.Min.X, b.Rect.Max.X)
		d := img.Pix[img.PixOffset(b.Rect.Min.X, y):]
		for i := 0; i < len(row); i += 4 {
			c := Straight([4]float32(row[i : i+4]))
			d[i] = encode8(c[0])
			d[i+1] = encode8(c[1])
			d[i+2] = encode8(c[2])
			d[i+3] = quantize8(c[3])
		}
	}
	return img
}

// Straight undoes the alpha premultiplication of c.
func Straight(c [4]float32) [4]float32 {
	a := c[3]
	if a <= 0 {
		return [4]float32{}
	}
	if a >= 1 {
		return c
	}
	return [4]float32{
		min(c[0]/a, 1),
		min(c[1]/a, 1),
		min(c[2]/a, 1),
		a,
	}
}

// Premultiply converts a straight alpha colour to premultiplied form.
func Premultiply(c [4]float32) [4]float32 {
	a := c[3]
	return [4]float32{c[0] * a, c[1] * a, c[2] * a, a}
}

func encode8(v float32) uint8 {
	return quantize8(float32(LinearToSRGB(float64(max(0, min(v, 1))))))
}

func quantize8(v float32) uint8 {
	return uint8(max(0, min(v, 1))*255 + 0.5)
}
