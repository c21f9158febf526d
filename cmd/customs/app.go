// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/config"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives it and loads configuration and runners through it.
	App struct {
		Config    ConfigProvider
		NewRunner RunnerFactory
		stdout    io.Writer
		stderr    io.Writer

		// Global flags, bound by NewRootCommand.
		verbose    bool
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		NewRunner RunnerFactory
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RunnerFactory builds the benchmark runner of a walk.
	RunnerFactory func(cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) bench.Runner
)

// NewApp fills unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewRunner == nil {
		deps.NewRunner = newHyperfineRunner
	}
	return &App{
		Config:    deps.Config,
		NewRunner: deps.NewRunner,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// loadConfig loads configuration honoring --config.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return cfg, nil
}

// logger returns the structured logger of one command invocation.
func (a *App) logger() *log.Logger {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "customs",
		Level:           level,
		ReportTimestamp: true,
	})
}

func newHyperfineRunner(cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) bench.Runner {
	return &bench.HyperfineRunner{
		Tool:      cfg.Hyperfine.Tool,
		ExtraArgs: cfg.Hyperfine.ExtraArgs,
		Stdout:    stdout,
		Stderr:    stderr,
		Logger:    logger,
	}
}
