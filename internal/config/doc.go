// SPDX-License-Identifier: MPL-2.0

// Package config loads the customs configuration.
//
// Values are layered with viper: built-in defaults, then a CUE file, then
// CUSTOMS_* environment variables. The file is config.cue in the platform
// config directory (~/.config/customs on Linux) or customs.cue in the
// working directory, and is validated against the embedded #Config schema
// before it is merged. Command-line flags are applied on top by the CLI.
package config
