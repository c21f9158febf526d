// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// pages for the failures a benchmark run typically hits: hyperfine missing
// from PATH, a project without the expected Cargo files, malformed TOML, a
// missing linker template, or a benchmark exiting non-zero.
package issue
