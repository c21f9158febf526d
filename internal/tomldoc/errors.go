// SPDX-License-Identifier: MPL-2.0

package tomldoc

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrMalformed is the sentinel error wrapped by MalformedError.
	ErrMalformed = errors.New("malformed TOML")
	// ErrConflict is the sentinel error wrapped by ConflictError.
	ErrConflict = errors.New("conflicting edit")
	// ErrNotFound is returned when an edit targets an entry that does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrEmptyPath is returned when an edit is given a zero-length path.
	ErrEmptyPath = errors.New("empty path")
	// ErrUnsupportedValue is returned when a value cannot be written as an inline TOML value.
	ErrUnsupportedValue = errors.New("unsupported value")
)

type (
	// MalformedError is returned by Parse when the input is not valid TOML.
	// Line and Column are 1-based and zero when the position is unknown.
	MalformedError struct {
		Line   int
		Column int
		Err    error
	}

	// ConflictError is returned when an edit cannot be applied without
	// producing invalid TOML, for example setting a key below a scalar value.
	// The document is left unchanged.
	ConflictError struct {
		Path Path
		Err  error
	}
)

func newMalformedError(err error) *MalformedError {
	me := &MalformedError{Err: err}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		me.Line, me.Column = de.Position()
	}
	return me
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed TOML at line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("malformed TOML: %v", e.Err)
}

// Unwrap returns ErrMalformed and the underlying decoder error.
func (e *MalformedError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot edit %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrConflict and the underlying cause.
func (e *ConflictError) Unwrap() []error {
	return []error{ErrConflict, e.Err}
}
