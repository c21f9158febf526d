// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides Go benchmarks for PGO profile generation.
// They cover the hot paths of a customs walk:
//   - CUE config decoding and schema validation
//   - TOML parsing and knob state reads
//   - Knob toggles on a real project tree
//   - Plan transitions and dry-run walks
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
