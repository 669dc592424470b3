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

package layer

import (
	"errors"
	"fmt"
)

// These errors are wrapped in a [StructuralError].
var (
	ErrNotFound  = errors.New("no such layer")
	ErrDuplicate = errors.New("duplicate layer ID")
	ErrCycle     = errors.New("dependency cycle")
	ErrIndex     = errors.New("index out of range")
	ErrRoot      = errors.New("operation not allowed on the root layer")
	ErrNotGroup  = errors.New("not a group")
	ErrTooDeep   = errors.New("maximum nesting depth exceeded")
	ErrLocked    = errors.New("layer is locked")
	ErrKind      = errors.New("wrong layer kind")
	ErrInvalid   = errors.New("invalid argument")
)

// StructuralError reports a rejected tree mutation.  When this error is
// returned, the tree has not been changed.
type StructuralError struct {
	Op  string
	ID  ID
	Err error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("layer: %s %d: %v", e.Op, e.ID, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}
