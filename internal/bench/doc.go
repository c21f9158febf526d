// SPDX-License-Identifier: MPL-2.0

// Package bench turns a measurement request into one hyperfine invocation.
//
// A Spec names the measured command, the setup command run before every timed
// run, and where the JSON export goes. A Runner executes it and blocks until
// the tool exits; HyperfineRunner is the only production implementation.
// Failures surface as ErrProcessLaunch (the tool could not start) or
// ErrProcessExit (it ran and exited non-zero). There are no retries, and the
// exported results are never parsed here.
package bench
