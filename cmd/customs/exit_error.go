// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/customs-bench/customs/internal/bench"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers.
type ExitError struct {
	Code bench.ExitCode
	Err  error
}

// Error returns the message of Err, or the exit status without one.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// status is the process exit status for e. Codes a process cannot exit with
// (success, signals, values above 255) map to 1.
func (e *ExitError) status() int {
	if e.Code.IsSuccess() || e.Code.IsSignal() || e.Code > 255 {
		return 1
	}
	return int(e.Code)
}
