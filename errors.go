/*
Copyright © 2026 the FeBuffer authors.
This file is part of FeBuffer.

FeBuffer is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FeBuffer is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FeBuffer.  If not, see <http://www.gnu.org/licenses/>.
*/

package febuffer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches any *InvalidInputError when used with errors.Is.
	ErrInvalidInput = errors.New("febuffer: invalid input")

	// ErrDegenerate matches any *DegenerateModelError when used with errors.Is.
	ErrDegenerate = errors.New("febuffer: degenerate model")
)

// InvalidInputError is returned when an input or constant is missing,
// not a finite number, or outside of its allowed domain.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("febuffer: invalid %s=%g: %s", e.Field, e.Value, e.Reason)
}

// Is allows errors.Is(err, ErrInvalidInput).
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// DegenerateModelError is returned when inputs that are individually
// valid combine to make a model denominator zero, or otherwise leave
// the model without a meaningful solution.
type DegenerateModelError struct {
	// Term names the degenerate quantity.
	Term string
}

func (e *DegenerateModelError) Error() string {
	return fmt.Sprintf("febuffer: degenerate model: %s", e.Term)
}

// Is allows errors.Is(err, ErrDegenerate).
func (e *DegenerateModelError) Is(target error) bool { return target == ErrDegenerate }
