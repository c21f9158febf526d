// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides environment and file helpers (MustSetenv, MustWriteFile, SetHomeDir),
// it ships fixtures for a cargo-leptos project whose Cargo.toml and
// .cargo/config.toml start with every build knob off (NewCargoProject).
package testutil
