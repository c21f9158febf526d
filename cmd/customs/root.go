// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "customs",
		Short: "Measure how cargo build flags affect build latency",
		Long: TitleStyle.Render("customs") + SubtitleStyle.Render(" - build-flag latency benchmarks for cargo projects") + `

customs toggles four knobs in a project's Cargo.toml and .cargo/config.toml,
walks a matrix of knob combinations, and times a clean and an incremental
build at every state with hyperfine. Each measurement is exported as one
hyperfine JSON file.

` + SubtitleStyle.Render("Knobs:") + `
  o3         aggressive dependency optimization
  cranelift  alternate code generator
  mold       alternate linker
  parallel   parallel compiler frontend

` + SubtitleStyle.Render("Examples:") + `
  customs run -c ../my-app -o results     Run the reference matrix
  customs run --plan full --dry-run       Preview the exhaustive walk
  customs knob status -c ../my-app        Show which knobs are on
  customs config init                     Write a default config file`,
		SilenceUsage: true,
	}

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/customs/config.cue)")

	root.AddCommand(
		newRunCommand(app),
		newPlanCommand(app),
		newKnobCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString prefers ldflags, then the module version recorded by
// go install, then a development marker.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	root := NewRootCommand(NewApp(Dependencies{}))

	// SIGINT cancels the command context, which stops a running hyperfine.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.status())
		}
		os.Exit(1)
	}
}
