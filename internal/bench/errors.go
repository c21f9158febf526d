// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
	ErrInvalidSpec = errors.New("invalid benchmark spec")
	// ErrProcessLaunch is the sentinel error wrapped by LaunchError.
	ErrProcessLaunch = errors.New("benchmark tool could not be started")
	// ErrProcessExit is the sentinel error wrapped by ExitError.
	ErrProcessExit = errors.New("benchmark tool exited with non-zero status")
)

type (
	// InvalidSpecError is returned when a Spec cannot be run.
	InvalidSpecError struct {
		Name   string
		Field  string
		Reason string
	}

	// LaunchError is returned when the benchmarking tool cannot be started,
	// for example because it is not installed.
	LaunchError struct {
		Tool string
		Err  error
	}

	// ExitError is returned when the benchmarking tool ran but did not exit 0.
	ExitError struct {
		Tool string
		Name string
		Code ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("benchmark %q: %s %s", e.Name, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidSpec so callers can use errors.Is for programmatic detection.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Tool, e.Err)
}

// Unwrap returns ErrProcessLaunch and the underlying exec error.
func (e *LaunchError) Unwrap() []error { return []error{ErrProcessLaunch, e.Err} }

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Code.IsSignal() {
		return fmt.Sprintf("%s (benchmark %q) was terminated by a signal", e.Tool, e.Name)
	}
	return fmt.Sprintf("%s (benchmark %q) exited with status %s", e.Tool, e.Name, e.Code)
}

// Unwrap returns ErrProcessExit so callers can use errors.Is for programmatic detection.
func (e *ExitError) Unwrap() error { return ErrProcessExit }
