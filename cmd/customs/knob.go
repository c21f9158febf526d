// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/customs-bench/customs/internal/issue"
	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/matrix"
)

func newKnobCommand(app *App) *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "knob",
		Short: "Inspect and toggle build knobs by hand",
		Long: `Inspect and toggle build knobs by hand.

Every knob edits the project's Cargo.toml or .cargo/config.toml in place.
Toggling a knob that is already in the requested state leaves the file
untouched.`,
	}
	cmd.PersistentFlags().StringVarP(&projectDir, "project-dir", "c", "", "cargo workspace (default from config, else .)")

	// engine loads the config and resolves the project directory.
	engine := func(cmd *cobra.Command) (*knob.Engine, string, error) {
		cfg, err := app.loadConfig(cmd.Context())
		if err != nil {
			return nil, "", err
		}
		dir := cfg.ProjectDir
		if cmd.Flags().Changed("project-dir") {
			dir = projectDir
		}
		return knob.New(cfg.KnobOptions(), app.logger()), dir, nil
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the knobs and the files they edit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, dir, err := engine(cmd)
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			w := cmd.OutOrStdout()
			for _, k := range knob.All() {
				file, err := e.File(dir, k)
				if err != nil {
					return app.renderError(cmd, err, "")
				}
				fmt.Fprintf(w, "%s %-36s %s\n", CmdStyle.Width(10).Render(k.String()), k.Description(), SubtitleStyle.Render(file))
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show which knobs are on in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, dir, err := engine(cmd)
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			state, err := e.States(dir)
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			w := cmd.OutOrStdout()
			for _, k := range knob.All() {
				mark := toggleOffStyle.Render("off")
				if state.Has(k) {
					mark = toggleOnStyle.Render("on")
				}
				fmt.Fprintf(w, "%s %s\n", CmdStyle.Width(10).Render(k.String()), mark)
			}
			fmt.Fprintf(w, "\n%s %s\n", SubtitleStyle.Render("state:"), stateLabel(state))
			return nil
		},
	}

	cmd.AddCommand(list, status, newToggleCommand(engine, app, true), newToggleCommand(engine, app, false))
	return cmd
}

// newToggleCommand builds "knob enable" or "knob disable".
func newToggleCommand(engine func(*cobra.Command) (*knob.Engine, string, error), app *App, on bool) *cobra.Command {
	use, verb := "disable", "Switch knobs off"
	if on {
		use, verb = "enable", "Switch knobs on"
	}

	return &cobra.Command{
		Use:       use + " <knob>...",
		Short:     verb,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: knob.Labels(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Parse every label first so a typo toggles nothing.
			knobs := make([]knob.Knob, 0, len(args))
			for _, arg := range args {
				k, err := knob.Parse(arg)
				if err != nil {
					return app.renderError(cmd, err, "")
				}
				knobs = append(knobs, k)
			}

			e, dir, err := engine(cmd)
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			for _, k := range knobs {
				if err := e.Apply(cmd.Context(), dir, k, on); err != nil {
					return app.renderError(cmd, issue.WrapWithContext(err, use+" knob "+k.String(), dir), "")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("✓"), renderToggles([]matrix.Toggle{{Knob: k, On: on}}))
			}
			return nil
		},
	}
}
