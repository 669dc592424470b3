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

// Package adjust implements non-destructive image adjustments.
//
// An [Adjustment] is a pure function from a pixel buffer to a new pixel
// buffer.  Adjustments are kept in an ordered [Pipeline] on each layer
// and applied at composite time; the layer content itself is never
// modified.  Out-of-range parameters are clamped, see [ParameterError].
package adjust

import (
	"errors"
	"fmt"
	"slices"

	"seehuhn.de/go/layers/paint"
	"seehuhn.de/go/layers/pixel"
)

// Kind identifies the type of an adjustment.
type Kind uint8

// These are the available adjustments.
const (
	KindBrightnessContrast Kind = iota + 1
	KindLevels
	KindCurves
	KindHueSaturation
	KindGaussianBlur
	KindSharpen
	KindInvert
)

func (k Kind) String() string {
	switch k {
	case KindBrightnessContrast:
		return "BrightnessContrast"
	case KindLevels:
		return "Levels"
	case KindCurves:
		return "Curves"
	case KindHueSaturation:
		return "HueSaturation"
	case KindGaussianBlur:
		return "GaussianBlur"
	case KindSharpen:
		return "Sharpen"
	case KindInvert:
		return "Invert"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Adjustment is one of the adjustment types in this package.
type Adjustment interface {
	Kind() Kind

	// Apply returns the adjusted image.  The argument is not modified.
	Apply(src *pixel.Buffer) *pixel.Buffer

	// Margin returns the number of pixels by which the value of an output
	// pixel can depend on input pixels further away.
	Margin() int

	// Normalize returns a copy of the adjustment with all parameters
	// clamped to their valid ranges.  If any parameter was changed, the
	// returned error lists the changes.
	Normalize() (Adjustment, error)
}

// ParameterError reports an out-of-range adjustment parameter, together
// with the value it was clamped to.  These errors are informational: the
// clamped adjustment is always usable.
type ParameterError struct {
	Adjustment Kind
	Param      string
	Value      float64
	Clamped    float64
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("adjust: %s.%s=%g out of range, clamped to %g",
		e.Adjustment, e.Param, e.Value, e.Clamped)
}

// ErrIndex is returned when an adjustment index is out of range.
var ErrIndex = errors.New("adjustment index out of range")

// checker clamps parameters and collects the resulting errors.
type checker struct {
	kind Kind
	errs []error
}

func (c *checker) clamp(name string, p *float64, lo, hi float64) {
	v := paint.Clamp(*p, lo, hi)
	if v != *p {
		c.errs = append(c.errs, &ParameterError{
			Adjustment: c.kind,
			Param:      name,
			Value:      *p,
			Clamped:    v,
		})
		*p = v
	}
}

func (c *checker) err() error {
	return errors.Join(c.errs...)
}

// Pipeline is an ordered list of adjustments.  The adjustments are
// applied from first to last.
type Pipeline []Adjustment

// Apply applies all adjustments in order.  If the pipeline is empty, src
// is returned unchanged.  The argument is never modified.
func (p Pipeline) Apply(src *pixel.Buffer) *pixel.Buffer {
	res := src
	for _, a := range p {
		res = a.Apply(res)
	}
	return res
}

// Margin returns the combined margin of all adjustments.
func (p Pipeline) Margin() int {
	m := 0
	for _, a := range p {
		m += a.Margin()
	}
	return m
}

// Normalize returns a copy of the pipeline with all parameters clamped.
// Nil entries are dropped.
func (p Pipeline) Normalize() (Pipeline, error) {
	var errs []error
	res := make(Pipeline, 0, len(p))
	for _, a := range p {
		if a == nil {
			continue
		}
		n, err := a.Normalize()
		if err != nil {
			errs = append(errs, err)
		}
		res = append(res, n)
	}
	return res, errors.Join(errs...)
}

// Move returns a copy of the pipeline where the adjustment at index from
// has been moved to index to.
func (p Pipeline) Move(from, to int) (Pipeline, error) {
	if from < 0 || from >= len(p) || to < 0 || to >= len(p) {
		return nil, ErrIndex
	}
	res := p.Clone()
	a := res[from]
	res = slices.Delete(res, from, from+1)
	return slices.Insert(res, to, a), nil
}

// Clone returns a shallow copy of the pipeline.  Since adjustments are
// values which are never modified, this is sufficient to decouple the
// copy from the original.
func (p Pipeline) Clone() Pipeline {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}
