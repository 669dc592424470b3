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

// Package blend implements the separable and non-separable blend modes
// for premultiplied, linear-light pixels, and composites whole buffers.
//
// The formulas follow the W3C "Compositing and Blending Level 1"
// recommendation.  For a source colour Cs with alpha as over a backdrop Cb
// with alpha ab (both premultiplied) the result is
//
//	Co = (1-ab)·Cs + (1-as)·Cb + as·ab·B(cs, cb)
//	ao = as + ab·(1-as)
//
// where cs = Cs/as and cb = Cb/ab are the unpremultiplied colours and B is
// the blend function of the mode.
package blend

import (
	"fmt"
	"strings"
)

// Mode is a blend mode.
type Mode uint8

// These are the supported blend modes.
const (
	Normal Mode = iota
	Multiply
	Screen
	Overlay
	Darken
	Lighten
	ColorDodge
	ColorBurn
	HardLight
	SoftLight
	Difference
	Exclusion
	Hue
	Saturation
	Color
	Luminosity

	numModes
)

var modeNames = [numModes]string{
	"Normal",
	"Multiply",
	"Screen",
	"Overlay",
	"Darken",
	"Lighten",
	"ColorDodge",
	"ColorBurn",
	"HardLight",
	"SoftLight",
	"Difference",
	"Exclusion",
	"Hue",
	"Saturation",
	"Color",
	"Luminosity",
}

// Modes lists all blend modes, in order.
func Modes() []Mode {
	res := make([]Mode, numModes)
	for i := range res {
		res[i] = Mode(i)
	}
	return res
}

// Valid reports whether m is one of the defined blend modes.
func (m Mode) Valid() bool {
	return m < numModes
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// Separable reports whether m acts on each colour channel independently.
func (m Mode) Separable() bool {
	return m < Hue
}

// ParseMode returns the blend mode with the given name.  The comparison
// ignores case.
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("blend: unknown mode %q", name)
}

// MarshalText implements [encoding.TextMarshaler].
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("blend: invalid mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
