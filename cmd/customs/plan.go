// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/matrix"
)

func newPlanCommand(app *App) *cobra.Command {
	var planName string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the states of a benchmark plan",
		Long: `List the states of a benchmark plan and the toggles between them,
starting from the baseline. Without --plan, the plan of the config file is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.renderError(cmd, err, "")
			}
			if cmd.Flags().Changed("plan") {
				cfg.Plan = planName
				cfg.Steps = nil
			}
			plan, err := cfg.MatrixPlan()
			if err != nil {
				return app.renderError(cmd, err, cfg.UI.ColorScheme)
			}
			printPlan(cmd, plan, len(cfg.Scenarios))
			return nil
		},
	}
	cmd.Flags().StringVar(&planName, "plan", matrix.ReferencePlanName, "built-in plan: "+strings.Join(matrix.PlanNames(), " or "))
	return cmd
}

func printPlan(cmd *cobra.Command, plan matrix.Plan, scenarios int) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Plan %q", plan.Name)))
	fmt.Fprintln(w)

	var prev knob.Set
	toggles := 0
	for i, step := range plan.Steps {
		ts := matrix.Transition(prev, step.Knobs)
		toggles += len(ts)
		fmt.Fprintf(w, "%s %s %s\n", stepIndexStyle.Render(fmt.Sprintf("%d.", i+1)), labelColumnStyle.Render(stepLabel(step)), renderToggles(ts))
		prev = step.Knobs
	}

	fmt.Fprintf(w, "\n%s\n", SubtitleStyle.Render(fmt.Sprintf(
		"%d state(s), %d measurement(s), %d knob toggle(s)", len(plan.Steps), len(plan.Steps)*scenarios, toggles)))
}

// stepLabel names a step by its run suffix, or "baseline".
func stepLabel(s matrix.Step) string {
	if label := s.Label(); label != "" {
		return label
	}
	return "baseline"
}

// stateLabel names a knob state for display.
func stateLabel(s knob.Set) string {
	if s.IsBaseline() {
		return "baseline"
	}
	return s.String()
}

func renderToggles(ts []matrix.Toggle) string {
	if len(ts) == 0 {
		return SubtitleStyle.Render("(no change)")
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t.On {
			parts[i] = toggleOnStyle.Render(t.String())
		} else {
			parts[i] = toggleOffStyle.Render(t.String())
		}
	}
	return strings.Join(parts, " ")
}
