// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/customs-bench/customs/internal/cueutil"
	"github.com/customs-bench/customs/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "customs"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is looked up in the working directory when the
	// config directory holds no file.
	LocalConfigFileName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides, e.g. CUSTOMS_RUNS=3.
	EnvPrefix = "CUSTOMS"
)

// ErrConfigNotFound is returned when an explicit config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the customs configuration directory: %APPDATA%\customs on
// Windows, ~/Library/Application Support/customs on macOS, and
// $XDG_CONFIG_HOME/customs (default ~/.config/customs) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// DefaultFilePath returns the config file path inside ConfigDir.
func DefaultFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// ResolvePath returns the file Load would read, or "" when none exists and
// the defaults apply. Lookup order: opts.ConfigFilePath, the config
// directory, then LocalConfigFileName in opts.WorkDir.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.WorkDir, LocalConfigFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// loadWithOptions layers defaults, the CUE file and CUSTOMS_* environment
// variables, then validates the result.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := ResolvePath(opts)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path passed to --config").
			WithSuggestion("Use 'customs config init' to write a default configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with 'customs config dump'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Plans must not visit the same knob state twice").
			WithSuggestion("Scenarios are 'clean' and 'incremental'").
			WithIssue(issue.InvalidPlanId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return &cfg, path, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("project_dir", d.ProjectDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("runs", d.Runs)
	v.SetDefault("warmup", d.Warmup)
	v.SetDefault("plan", d.Plan)
	v.SetDefault("steps", d.Steps)
	v.SetDefault("scenarios", d.Scenarios)
	v.SetDefault("commands.build", d.Commands.Build)
	v.SetDefault("commands.clean", d.Commands.Clean)
	v.SetDefault("commands.incremental", d.Commands.Incremental)
	v.SetDefault("commands.incremental_touch", d.Commands.IncrementalTouch)
	v.SetDefault("commands.linker_wrapper", d.Commands.LinkerWrapper)
	v.SetDefault("knobs.manifest", d.Knobs.Manifest)
	v.SetDefault("knobs.build_config", d.Knobs.BuildConfig)
	v.SetDefault("knobs.main_opt_level", d.Knobs.MainOptLevel)
	v.SetDefault("knobs.deps_opt_level", d.Knobs.DepsOptLevel)
	v.SetDefault("knobs.codegen_profile", d.Knobs.CodegenProfile)
	v.SetDefault("knobs.codegen_backend", d.Knobs.CodegenBackend)
	v.SetDefault("knobs.linker_target", d.Knobs.LinkerTarget)
	v.SetDefault("knobs.frontend_threads", d.Knobs.FrontendThreads)
	v.SetDefault("hyperfine.tool", d.Hyperfine.Tool)
	v.SetDefault("hyperfine.extra_args", d.Hyperfine.ExtraArgs)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// Fields are optional, so the file is decoded without requiring concrete values.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	m, err := cueutil.DecodeMap(configSchema, "#Config", data,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path unless a
// file already exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if fileExists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE renders cfg as a CUE document that validates against #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// customs configuration file.\n")
	sb.WriteString("// Run 'customs config path' to see where customs looks for it.\n\n")

	fmt.Fprintf(&sb, "project_dir: %q\n", cfg.ProjectDir)
	fmt.Fprintf(&sb, "output_dir:  %q\n", cfg.OutputDir)
	fmt.Fprintf(&sb, "runs:        %d\n", cfg.Runs)
	fmt.Fprintf(&sb, "warmup:      %d\n", cfg.Warmup)
	if cfg.Plan != "" {
		fmt.Fprintf(&sb, "plan:        %q\n", cfg.Plan)
	}
	fmt.Fprintf(&sb, "scenarios:   %s\n", cueList(cfg.Scenarios))

	if len(cfg.Steps) > 0 {
		sb.WriteString("\nsteps: [\n")
		for _, s := range cfg.Steps {
			if s.Name != "" {
				fmt.Fprintf(&sb, "\t{name: %q, knobs: %s},\n", s.Name, cueList(s.Knobs))
			} else {
				fmt.Fprintf(&sb, "\t{knobs: %s},\n", cueList(s.Knobs))
			}
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\ncommands: {\n")
	fmt.Fprintf(&sb, "\tbuild:       %q\n", cfg.Commands.Build)
	fmt.Fprintf(&sb, "\tclean:       %q\n", cfg.Commands.Clean)
	fmt.Fprintf(&sb, "\tincremental: %q\n", cfg.Commands.Incremental)
	if cfg.Commands.IncrementalTouch != "" {
		fmt.Fprintf(&sb, "\tincremental_touch: %q\n", cfg.Commands.IncrementalTouch)
	}
	if cfg.Commands.LinkerWrapper != "" {
		fmt.Fprintf(&sb, "\tlinker_wrapper: %q\n", cfg.Commands.LinkerWrapper)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nknobs: {\n")
	fmt.Fprintf(&sb, "\tmanifest:         %q\n", cfg.Knobs.Manifest)
	fmt.Fprintf(&sb, "\tbuild_config:     %q\n", cfg.Knobs.BuildConfig)
	fmt.Fprintf(&sb, "\tmain_opt_level:   %d\n", cfg.Knobs.MainOptLevel)
	fmt.Fprintf(&sb, "\tdeps_opt_level:   %d\n", cfg.Knobs.DepsOptLevel)
	fmt.Fprintf(&sb, "\tcodegen_profile:  %q\n", cfg.Knobs.CodegenProfile)
	fmt.Fprintf(&sb, "\tcodegen_backend:  %q\n", cfg.Knobs.CodegenBackend)
	fmt.Fprintf(&sb, "\tlinker_target:    %q\n", cfg.Knobs.LinkerTarget)
	fmt.Fprintf(&sb, "\tfrontend_threads: %d\n", cfg.Knobs.FrontendThreads)
	sb.WriteString("}\n")

	sb.WriteString("\nhyperfine: {\n")
	fmt.Fprintf(&sb, "\ttool:       %q\n", cfg.Hyperfine.Tool)
	fmt.Fprintf(&sb, "\textra_args: %s\n", cueList(cfg.Hyperfine.ExtraArgs))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
