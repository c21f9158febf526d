// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/customs-bench/customs/internal/config"
	"github.com/customs-bench/customs/internal/issue"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage customs configuration",
		Long: `Manage customs configuration.

Configuration is read from --config when given, otherwise from the first of
` + "$XDG_CONFIG_HOME/customs/config.cue" + ` and ./customs.cue that exists.
CUSTOMS_* environment variables override file values, e.g. CUSTOMS_RUNS=3.`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return app.renderError(cmd, err, cfg.UI.ColorScheme)
			}
			printConfig(cmd.OutOrStdout(), cfg, path)
			return nil
		},
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file customs reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			if p == "" {
				def, err := config.DefaultFilePath()
				if err != nil {
					return app.renderError(cmd, err, "")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SubtitleStyle.Render("no config file found, defaults apply; create one at"), def)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write a default config file to --config, or to the user config directory.
An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := app.configPath
			if target == "" {
				def, err := config.DefaultFilePath()
				if err != nil {
					return app.renderError(cmd, err, "")
				}
				target = def
			}
			created, err := config.CreateDefaultConfig(target)
			if err != nil {
				return app.renderError(cmd, issue.WrapWithOperation(err, "write default config"), "")
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s config file already exists: %s\n", WarningStyle.Render("!"), target)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created %s\n", SuccessStyle.Render("✓"), target)
			return nil
		},
	}

	cmd.AddCommand(show, dump, path, initCmd)
	return cmd
}

func printConfig(w io.Writer, cfg *config.Config, path string) {
	source := path
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintln(w, TitleStyle.Render("Configuration"))
	fmt.Fprintf(w, "%s %s\n\n", SubtitleStyle.Render("source:"), source)

	plan := cfg.Plan
	if len(cfg.Steps) > 0 {
		plan = fmt.Sprintf("%s (%d steps)", config.CustomPlanName, len(cfg.Steps))
	}
	rows := [][2]string{
		{"project_dir", cfg.ProjectDir},
		{"output_dir", cfg.OutputDir},
		{"runs", fmt.Sprint(cfg.Runs)},
		{"warmup", fmt.Sprint(cfg.Warmup)},
		{"plan", plan},
		{"scenarios", strings.Join(cfg.Scenarios, ", ")},
		{"commands.build", cfg.Commands.Build},
		{"commands.clean", cfg.Commands.Clean},
		{"commands.incremental", cfg.Commands.Incremental},
		{"commands.incremental_touch", cfg.Commands.IncrementalTouch},
		{"commands.linker_wrapper", cfg.Commands.LinkerWrapper},
		{"knobs.manifest", cfg.Knobs.Manifest},
		{"knobs.build_config", cfg.Knobs.BuildConfig},
		{"hyperfine.tool", cfg.Hyperfine.Tool},
		{"hyperfine.extra_args", strings.Join(cfg.Hyperfine.ExtraArgs, " ")},
		{"ui.color_scheme", cfg.UI.ColorScheme.String()},
		{"ui.verbose", fmt.Sprint(cfg.UI.Verbose)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s %s\n", labelColumnStyle.Render(CmdStyle.Render(r[0])), r[1])
	}
}
