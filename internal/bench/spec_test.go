// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func TestSpec_Validate(t *testing.T) {
	t.Parallel()

	valid := Spec{Name: "clean", Setup: "cargo clean", Command: "cargo leptos build", Runs: 3, OutputDir: "out"}

	tests := []struct {
		name   string
		mutate func(*Spec)
		field  string
	}{
		{name: "valid", mutate: func(*Spec) {}},
		{name: "no setup", mutate: func(s *Spec) { s.Setup = "" }},
		{name: "empty name", mutate: func(s *Spec) { s.Name = "" }, field: "name"},
		{name: "name with separator", mutate: func(s *Spec) { s.Name = "a/b" }, field: "name"},
		{name: "blank command", mutate: func(s *Spec) { s.Command = "  " }, field: "command"},
		{name: "zero runs", mutate: func(s *Spec) { s.Runs = 0 }, field: "runs"},
		{name: "negative warmup", mutate: func(s *Spec) { s.Warmup = -1 }, field: "warmup"},
		{name: "no output dir", mutate: func(s *Spec) { s.OutputDir = "" }, field: "output directory"},
		{name: "unbalanced quote", mutate: func(s *Spec) { s.Command = `cargo build "--release` }, field: "command"},
		{name: "bad setup", mutate: func(s *Spec) { s.Setup = "cargo clean &&" }, field: "setup"},
		{
			name:   "sed touch setup",
			mutate: func(s *Spec) { s.Setup = `sed -i -e "s|<dfn>[^<]*</dfn>|<dfn>$(date +%m%s)</dfn>|g" app/src/routes/index.rs` },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("Validate() error = %v, want ErrInvalidSpec", err)
			}
			var specErr *InvalidSpecError
			if !errors.As(err, &specErr) || specErr.Field != tt.field {
				t.Errorf("Validate() error = %v, want field %q", err, tt.field)
			}
		})
	}
}

func TestNewSpec(t *testing.T) {
	t.Parallel()

	s, err := NewSpec("incremental_mold", "cargo leptos build",
		WithSetup("touch src/main.rs"), WithWarmup(1), WithOutputDir("results"), WithWorkDir("/srv/app"))
	if err != nil {
		t.Fatalf("NewSpec() error = %v", err)
	}
	want := Spec{
		Name:      "incremental_mold",
		Setup:     "touch src/main.rs",
		Command:   "cargo leptos build",
		Runs:      DefaultRuns,
		Warmup:    1,
		OutputDir: "results",
		WorkDir:   "/srv/app",
	}
	if s != want {
		t.Errorf("NewSpec() = %+v, want %+v", s, want)
	}

	if _, err := NewSpec("x", "cargo build", WithRuns(0)); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("NewSpec(runs=0) error = %v, want ErrInvalidSpec", err)
	}
}

func TestSpec_Args(t *testing.T) {
	t.Parallel()

	s := Spec{Name: "clean_o3", Setup: "cargo clean", Command: "cargo leptos build", Runs: 5, Warmup: 2, OutputDir: "out"}
	want := []string{
		"--prepare", "cargo clean",
		"--warmup", "2",
		"cargo leptos build",
		"--export-json", filepath.Join("out", "clean_o3.json"),
		"--runs", "5",
	}
	if got := s.Args(); !slices.Equal(got, want) {
		t.Errorf("Args() = %q, want %q", got, want)
	}

	s.Setup = ""
	if got := s.Args(); slices.Contains(got, "--prepare") {
		t.Errorf("Args() without setup = %q, want no --prepare", got)
	}
}

func TestSpec_CommandLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path separators differ on Windows")
	}
	t.Parallel()

	s := Spec{Name: "clean", Setup: "cargo clean", Command: "cargo leptos build", Runs: 3, OutputDir: "out"}
	want := "hyperfine --prepare 'cargo clean' --warmup 0 'cargo leptos build' --export-json out/clean.json --runs 3"
	if got := s.CommandLine("hyperfine"); got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}

	r := &HyperfineRunner{ExtraArgs: []string{"--style", "basic"}}
	want = "hyperfine --style basic --prepare 'cargo clean' --warmup 0 'cargo leptos build' --export-json out/clean.json --runs 3"
	if got := r.CommandLine(s); got != want {
		t.Errorf("HyperfineRunner.CommandLine() = %q, want %q", got, want)
	}
}

func TestIncrementalTouchCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file    string
		want    string
		wantErr bool
	}{
		{file: "app/src/routes/index.rs", want: "touch app/src/routes/index.rs"},
		{file: "my crate/lib.rs", want: "touch 'my crate/lib.rs'"},
		{file: "nul\x00.rs", wantErr: true},
	}

	for _, tt := range tests {
		got, err := IncrementalTouchCommand(tt.file)
		if tt.wantErr {
			if err == nil {
				t.Errorf("IncrementalTouchCommand(%q) = %q, want error", tt.file, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("IncrementalTouchCommand(%q) error = %v", tt.file, err)
			continue
		}
		if got != tt.want {
			t.Errorf("IncrementalTouchCommand(%q) = %q, want %q", tt.file, got, tt.want)
		}
		if err := checkShell(got); err != nil {
			t.Errorf("IncrementalTouchCommand(%q) is not valid shell: %v", tt.file, err)
		}
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      ExitCode
		success   bool
		signalled bool
	}{
		{code: 0, success: true},
		{code: 2},
		{code: 255},
		{code: -1, signalled: true},
	}

	for _, tt := range tests {
		if got := tt.code.IsSuccess(); got != tt.success {
			t.Errorf("ExitCode(%d).IsSuccess() = %v, want %v", tt.code, got, tt.success)
		}
		if got := tt.code.IsSignal(); got != tt.signalled {
			t.Errorf("ExitCode(%d).IsSignal() = %v, want %v", tt.code, got, tt.signalled)
		}
	}
}
