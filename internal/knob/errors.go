// SPDX-License-Identifier: MPL-2.0

package knob

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigUnreadable is returned when a configuration file is missing or
	// cannot be read.
	ErrConfigUnreadable = errors.New("config file unreadable")
	// ErrMalformedConfig is returned when a configuration file is not valid TOML
	// or does not have the shape a knob expects.
	ErrMalformedConfig = errors.New("malformed config file")
	// ErrConfigWrite is returned when a mutated configuration file cannot be
	// written back. The previous content may be lost.
	ErrConfigWrite = errors.New("config file write failed")
	// ErrTemplateMissing is returned when the linker knob is toggled in a file
	// that carries neither an active nor a commented linker entry.
	ErrTemplateMissing = errors.New("linker template entries missing")
)

// Operations recorded in FileError.
const (
	OpRead  FileOp = "read"
	OpParse FileOp = "parse"
	OpEdit  FileOp = "edit"
	OpWrite FileOp = "write"
)

type (
	// FileOp names the stage of a read-mutate-write cycle that failed.
	FileOp string

	// FileError describes a failed toggle on one configuration file.
	FileError struct {
		Op   FileOp
		Knob Knob
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Path, e.Knob, e.Err)
}

// Unwrap returns the sentinel for the failed stage along with the cause, so
// both errors.Is(err, ErrConfigUnreadable) and errors.Is(err, fs.ErrNotExist)
// hold for a missing file.
func (e *FileError) Unwrap() []error {
	if s := e.Op.sentinel(); s != nil {
		return []error{s, e.Err}
	}
	return []error{e.Err}
}

func (op FileOp) sentinel() error {
	switch op {
	case OpRead:
		return ErrConfigUnreadable
	case OpParse:
		return ErrMalformedConfig
	case OpWrite:
		return ErrConfigWrite
	default:
		return nil
	}
}
