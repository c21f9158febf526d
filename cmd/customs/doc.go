// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for customs.
//
// The root command wires configuration loading, logging and error rendering;
// subcommands run the benchmark matrix (run), preview the walk (plan), toggle
// single knobs (knob) and manage the config file (config).
package cmd
