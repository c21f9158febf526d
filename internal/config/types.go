// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/matrix"
)

const (
	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	// CustomPlanName names a plan built from Config.Steps.
	CustomPlanName = "custom"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme selects the palette of styled output.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration. Tags name the keys of the
	// CUE file and of viper.
	Config struct {
		// ProjectDir is the cargo workspace whose configuration is toggled.
		ProjectDir string `json:"project_dir" mapstructure:"project_dir"`
		// OutputDir receives one hyperfine JSON export per cell.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
		// Runs is the number of timed runs per cell.
		Runs int `json:"runs" mapstructure:"runs"`
		// Warmup is the number of untimed runs per cell.
		Warmup int `json:"warmup" mapstructure:"warmup"`
		// Plan names a built-in plan. Ignored when Steps is set.
		Plan string `json:"plan" mapstructure:"plan"`
		// Steps defines a custom walk.
		Steps []StepConfig `json:"steps" mapstructure:"steps"`
		// Scenarios are measured in order at every state.
		Scenarios []string `json:"scenarios" mapstructure:"scenarios"`

		Commands  CommandsConfig  `json:"commands" mapstructure:"commands"`
		Knobs     KnobsConfig     `json:"knobs" mapstructure:"knobs"`
		Hyperfine HyperfineConfig `json:"hyperfine" mapstructure:"hyperfine"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// StepConfig is one step of a custom plan.
	StepConfig struct {
		Name  string   `json:"name,omitempty" mapstructure:"name"`
		Knobs []string `json:"knobs" mapstructure:"knobs"`
	}

	// CommandsConfig holds the shell commands of each cell.
	CommandsConfig struct {
		Build       string `json:"build" mapstructure:"build"`
		Clean       string `json:"clean" mapstructure:"clean"`
		Incremental string `json:"incremental" mapstructure:"incremental"`
		// IncrementalTouch, when set, replaces Incremental with a touch of this
		// file relative to the project directory.
		IncrementalTouch string `json:"incremental_touch" mapstructure:"incremental_touch"`
		// LinkerWrapper prefixes Build while mold is on, e.g. "mold -run".
		LinkerWrapper string `json:"linker_wrapper" mapstructure:"linker_wrapper"`
	}

	// KnobsConfig mirrors knob.Options.
	KnobsConfig struct {
		Manifest        string `json:"manifest" mapstructure:"manifest"`
		BuildConfig     string `json:"build_config" mapstructure:"build_config"`
		MainOptLevel    int64  `json:"main_opt_level" mapstructure:"main_opt_level"`
		DepsOptLevel    int64  `json:"deps_opt_level" mapstructure:"deps_opt_level"`
		CodegenProfile  string `json:"codegen_profile" mapstructure:"codegen_profile"`
		CodegenBackend  string `json:"codegen_backend" mapstructure:"codegen_backend"`
		LinkerTarget    string `json:"linker_target" mapstructure:"linker_target"`
		FrontendThreads int    `json:"frontend_threads" mapstructure:"frontend_threads"`
	}

	// HyperfineConfig selects the benchmarking tool.
	HyperfineConfig struct {
		Tool      string   `json:"tool" mapstructure:"tool"`
		ExtraArgs []string `json:"extra_args" mapstructure:"extra_args"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration of the cargo-leptos benchmark.
func DefaultConfig() *Config {
	ko := knob.DefaultOptions()
	return &Config{
		ProjectDir: ".",
		OutputDir:  "results",
		Runs:       bench.DefaultRuns,
		Warmup:     0,
		Plan:       matrix.ReferencePlanName,
		Steps:      []StepConfig{},
		Scenarios:  scenarioNames(matrix.Scenarios()),
		Commands: CommandsConfig{
			Build:       matrix.DefaultBuildCommand,
			Clean:       matrix.DefaultCleanCommand,
			Incremental: matrix.DefaultIncrementalCommand,
		},
		Knobs: KnobsConfig{
			Manifest:        ko.Manifest,
			BuildConfig:     filepath.ToSlash(ko.BuildConfig),
			MainOptLevel:    ko.MainOptLevel,
			DepsOptLevel:    ko.DepsOptLevel,
			CodegenProfile:  ko.CodegenProfile,
			CodegenBackend:  ko.CodegenBackend,
			LinkerTarget:    ko.LinkerTarget,
			FrontendThreads: ko.FrontendThreads,
		},
		Hyperfine: HyperfineConfig{
			Tool:      bench.DefaultTool,
			ExtraArgs: []string{},
		},
		UI: UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// KnobOptions converts the knobs section for knob.New.
func (c *Config) KnobOptions() knob.Options {
	return knob.Options{
		Manifest:        filepath.FromSlash(c.Knobs.Manifest),
		BuildConfig:     filepath.FromSlash(c.Knobs.BuildConfig),
		MainOptLevel:    c.Knobs.MainOptLevel,
		DepsOptLevel:    c.Knobs.DepsOptLevel,
		CodegenProfile:  c.Knobs.CodegenProfile,
		CodegenBackend:  c.Knobs.CodegenBackend,
		LinkerTarget:    c.Knobs.LinkerTarget,
		FrontendThreads: c.Knobs.FrontendThreads,
	}
}

// MatrixOptions converts the walk settings for matrix.Orchestrator.
func (c *Config) MatrixOptions() (matrix.Options, error) {
	scenarios := make([]matrix.Scenario, 0, len(c.Scenarios))
	for _, name := range c.Scenarios {
		sc, err := matrix.ParseScenario(name)
		if err != nil {
			return matrix.Options{}, err
		}
		scenarios = append(scenarios, sc)
	}
	incremental := c.Commands.Incremental
	if c.Commands.IncrementalTouch != "" {
		touch, err := bench.IncrementalTouchCommand(c.Commands.IncrementalTouch)
		if err != nil {
			return matrix.Options{}, fmt.Errorf("commands.incremental_touch: %w", err)
		}
		incremental = touch
	}
	return matrix.Options{
		ProjectDir:         c.ProjectDir,
		OutputDir:          c.OutputDir,
		Runs:               c.Runs,
		Warmup:             c.Warmup,
		BuildCommand:       c.Commands.Build,
		CleanCommand:       c.Commands.Clean,
		IncrementalCommand: incremental,
		LinkerWrapper:      c.Commands.LinkerWrapper,
		Scenarios:          scenarios,
	}, nil
}

// MatrixPlan returns the custom plan when Steps is set, otherwise the
// built-in plan named by Plan.
func (c *Config) MatrixPlan() (matrix.Plan, error) {
	if len(c.Steps) == 0 {
		return matrix.PlanByName(c.Plan)
	}

	plan := matrix.Plan{Name: CustomPlanName, Steps: make([]matrix.Step, 0, len(c.Steps))}
	for i, sc := range c.Steps {
		set, err := knob.ParseSet(strings.Join(sc.Knobs, "_"))
		if err != nil {
			return matrix.Plan{}, fmt.Errorf("steps[%d]: %w", i, err)
		}
		plan.Steps = append(plan.Steps, matrix.Step{Name: sc.Name, Knobs: set})
	}
	if err := plan.Validate(); err != nil {
		return matrix.Plan{}, err
	}
	return plan, nil
}

// IsValid reports whether the Config can drive a walk. It checks what the
// CUE schema cannot: the plan resolves and every scenario is known.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if c.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be at least 1, got %d", c.Runs))
	}
	if c.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must not be negative, got %d", c.Warmup))
	}
	for _, lvl := range []struct {
		key   string
		value int64
	}{
		{"knobs.main_opt_level", c.Knobs.MainOptLevel},
		{"knobs.deps_opt_level", c.Knobs.DepsOptLevel},
	} {
		if lvl.value < 0 || lvl.value > 3 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 3, got %d", lvl.key, lvl.value))
		}
	}
	if c.Knobs.MainOptLevel == 0 && c.Knobs.DepsOptLevel == 0 {
		errs = append(errs, errors.New("knobs.main_opt_level and knobs.deps_opt_level are both 0, so o3 would match its disabled state"))
	}
	if _, err := c.MatrixPlan(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MatrixOptions(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the scheme name.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func scenarioNames(scs []matrix.Scenario) []string {
	out := make([]string, len(scs))
	for i, sc := range scs {
		out[i] = sc.String()
	}
	return out
}
