// SPDX-License-Identifier: MPL-2.0

package bench

import "strconv"

// ExitCode is the exit status of the benchmarking tool. The zero value means
// success; a negative value means the process was terminated by a signal.
type ExitCode int

// IsSuccess reports whether the tool exited 0.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsSignal reports whether the process did not exit on its own.
func (c ExitCode) IsSignal() bool { return c < 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
