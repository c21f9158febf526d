// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

const (
	// ManifestFixture is a workspace Cargo.toml with the dev profile at
	// opt-level 0 for both the main package and its dependencies.
	ManifestFixture = `[workspace]
resolver = "2"
members = ["app", "frontend", "server"]

# need to be applied only to wasm build
[profile.release]
codegen-units = 1
lto = true
opt-level = 'z'

[profile.dev]
opt-level = 0

[profile.dev.package."*"]
opt-level = 0

[workspace.dependencies]
leptos = { version = "0.6", features = ["nightly"] }
serde = { version = "1", features = ["derive"] }

[[workspace.metadata.leptos]]
# this name is used for the wasm, js and css file names
name = "demo"
bin-package = "server"
lib-package = "frontend"
site-root = "target/site"
`

	// BuildConfigFixture is a .cargo/config.toml carrying the linker template
	// as commented entries and no codegen or parallel frontend settings.
	BuildConfigFixture = `[build]
target-dir = "target"

[target.x86_64-unknown-linux-gnu]
#linker = "clang"
#rustflags = ["-C", "link-arg=-fuse-ld=/usr/bin/mold"]

[profile.server-dev]
inherits = "dev"

[unstable]
codegen-backend = true
`

	// IncrementalTouchFile is the source file the incremental scenario edits.
	IncrementalTouchFile = "app/src/routes/index.rs"
)

// NewCargoProject writes the fixture project into a fresh temporary directory
// and returns its path.
func NewCargoProject(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteCargoProject(t, dir, ManifestFixture, BuildConfigFixture)
	return dir
}

// WriteCargoProject writes manifest and buildConfig as Cargo.toml and
// .cargo/config.toml under dir, plus the source file touched for incremental
// builds. An empty string skips that file.
func WriteCargoProject(t testing.TB, dir, manifest, buildConfig string) {
	t.Helper()
	if manifest != "" {
		MustWriteFile(t, filepath.Join(dir, "Cargo.toml"), manifest)
	}
	if buildConfig != "" {
		MustWriteFile(t, filepath.Join(dir, ".cargo", "config.toml"), buildConfig)
	}
	MustWriteFile(t, filepath.Join(dir, filepath.FromSlash(IncrementalTouchFile)),
		"#[component]\npub fn Index() -> impl IntoView {\n    view! { <dfn>0</dfn> }\n}\n")
}
