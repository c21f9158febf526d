// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/matrix"
	"github.com/customs-bench/customs/internal/testutil"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, errs := cs.IsValid(); !ok {
			t.Errorf("%q.IsValid() = false, %v", cs, errs)
		}
	}
	ok, errs := ColorScheme("neon").IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("neon.IsValid() = %v, %v", ok, errs)
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	if ok, errs := DefaultConfig().IsValid(); !ok {
		t.Fatalf("DefaultConfig().IsValid() = false, %v", errs)
	}

	cfg := DefaultConfig()
	cfg.Runs = 0
	cfg.Scenarios = []string{"cold"}
	cfg.Plan = "exhaustive"
	ok, errs := cfg.IsValid()
	if ok || len(errs) != 1 {
		t.Fatalf("IsValid() = %v, %v", ok, errs)
	}
	var invalid *InvalidConfigError
	if !errors.As(errs[0], &invalid) || len(invalid.FieldErrors) != 3 {
		t.Fatalf("IsValid() errors = %v, want 3 field errors", errs)
	}
	if !errors.Is(errs[0], matrix.ErrUnknownPlan) || !errors.Is(errs[0], matrix.ErrUnknownScenario) {
		t.Errorf("field errors lost their sentinels: %v", errs[0])
	}
}

func TestConfig_IsValidOptLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		main, deps int64
		valid      bool
	}{
		{"defaults", 1, 3, true},
		{"main at 0", 0, 3, true},
		{"deps at 0", 2, 0, true},
		{"both 0", 0, 0, false},
		{"main negative", -1, 3, false},
		{"deps above 3", 1, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Knobs.MainOptLevel, cfg.Knobs.DepsOptLevel = tt.main, tt.deps
			if ok, errs := cfg.IsValid(); ok != tt.valid {
				t.Errorf("IsValid() = %v, %v, want %v", ok, errs, tt.valid)
			}
		})
	}
}

// A zero main level loaded from a file must reach Cargo.toml unchanged.
func TestConfig_ZeroMainOptLevelReachesEngine(t *testing.T) {
	t.Parallel()

	cfgDir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), "knobs: main_opt_level: 0\n")
	l, err := load(t, LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok, errs := l.Config.IsValid(); !ok {
		t.Fatalf("IsValid() = false, %v", errs)
	}

	dir := testutil.NewCargoProject(t)
	e := knob.New(l.Config.KnobOptions(), nil)
	if got := e.Options().MainOptLevel; got != 0 {
		t.Fatalf("engine MainOptLevel = %d, want 0", got)
	}
	if err := e.Enable(context.Background(), dir, knob.DependencyOpt); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	var manifest struct {
		Profile struct {
			Dev struct {
				OptLevel int64 `toml:"opt-level"`
				Package  map[string]struct {
					OptLevel int64 `toml:"opt-level"`
				} `toml:"package"`
			} `toml:"dev"`
		} `toml:"profile"`
	}
	if err := toml.Unmarshal([]byte(testutil.MustReadFile(t, filepath.Join(dir, "Cargo.toml"))), &manifest); err != nil {
		t.Fatalf("decode Cargo.toml: %v", err)
	}
	if got := manifest.Profile.Dev.OptLevel; got != 0 {
		t.Errorf("profile.dev.opt-level = %d, want 0", got)
	}
	if got := manifest.Profile.Dev.Package["*"].OptLevel; got != 3 {
		t.Errorf(`profile.dev.package."*".opt-level = %d, want 3`, got)
	}
}

func TestConfig_KnobOptions(t *testing.T) {
	t.Parallel()

	got := DefaultConfig().KnobOptions()
	want := knob.DefaultOptions()
	if got != want {
		t.Errorf("KnobOptions() = %+v, want %+v", got, want)
	}

	cfg := DefaultConfig()
	cfg.Knobs.BuildConfig = "config/cargo.toml"
	if got := cfg.KnobOptions().BuildConfig; got != filepath.Join("config", "cargo.toml") {
		t.Errorf("BuildConfig = %q", got)
	}
}

func TestConfig_MatrixOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Scenarios = []string{"incremental"}
	cfg.Commands.LinkerWrapper = "mold -run"

	opts, err := cfg.MatrixOptions()
	if err != nil {
		t.Fatalf("MatrixOptions() error = %v", err)
	}
	if opts.ProjectDir != "." || opts.OutputDir != "results" || opts.Runs != 10 || opts.LinkerWrapper != "mold -run" {
		t.Errorf("MatrixOptions() = %+v", opts)
	}
	if len(opts.Scenarios) != 1 || opts.Scenarios[0] != matrix.Incremental {
		t.Errorf("Scenarios = %v", opts.Scenarios)
	}
}

func TestConfig_MatrixOptionsIncrementalTouch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		touch   string
		want    string
		wantErr bool
	}{
		{name: "unset keeps incremental", want: matrix.DefaultIncrementalCommand},
		{name: "touch replaces incremental", touch: "app/src/lib.rs", want: "touch app/src/lib.rs"},
		{name: "unquotable file", touch: "bad\x00.rs", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Commands.IncrementalTouch = tt.touch
			opts, err := cfg.MatrixOptions()
			if tt.wantErr {
				if err == nil {
					t.Errorf("MatrixOptions() = %+v, want error", opts)
				}
				return
			}
			if err != nil {
				t.Fatalf("MatrixOptions() error = %v", err)
			}
			if opts.IncrementalCommand != tt.want {
				t.Errorf("IncrementalCommand = %q, want %q", opts.IncrementalCommand, tt.want)
			}
		})
	}
}

func TestConfig_MatrixPlan(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	plan, err := cfg.MatrixPlan()
	if err != nil || plan.Name != matrix.ReferencePlanName || len(plan.Steps) != 15 {
		t.Errorf("default MatrixPlan() = %s with %d steps, %v", plan.Name, len(plan.Steps), err)
	}

	cfg.Steps = []StepConfig{{Knobs: []string{"parallel", "o3"}}}
	plan, err = cfg.MatrixPlan()
	if err != nil {
		t.Fatalf("MatrixPlan() error = %v", err)
	}
	if plan.Steps[0].Knobs != knob.NewSet(knob.Parallel, knob.DependencyOpt) {
		t.Errorf("step = %+v", plan.Steps[0])
	}

	cfg.Steps = []StepConfig{{Knobs: []string{"lto"}}}
	if _, err := cfg.MatrixPlan(); !errors.Is(err, knob.ErrUnknownKnob) {
		t.Errorf("MatrixPlan() error = %v, want ErrUnknownKnob", err)
	}
}
