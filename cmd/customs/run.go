// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/config"
	"github.com/customs-bench/customs/internal/issue"
	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/matrix"
)

type (
	// runFlags are the command-line overrides of a walk. Only flags the user
	// set replace config values.
	runFlags struct {
		projectDir    string
		outputDir     string
		runs          int
		warmup        int
		plan          string
		scenarios     []string
		touchFile     string
		linkerWrapper string
		dryRun        bool
	}

	// checker is implemented by runners that can verify their tool up front.
	checker interface {
		Check() error
	}

	// commandLiner is implemented by runners that can render an invocation.
	commandLiner interface {
		CommandLine(spec bench.Spec) string
	}
)

func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Walk the knob matrix and benchmark every state",
		Long: `Walk the knob matrix and benchmark every state.

At each state of the plan, customs applies the minimal set of knob toggles and
runs hyperfine once per scenario. Results are written to the output directory
as <scenario>.json at the baseline and <scenario>_<knobs>.json elsewhere.

The first failure stops the walk. Knobs stay in the state reached so far and are
not reset after the last step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMatrix(cmd, app, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.projectDir, "project-dir", "c", "", "cargo workspace to benchmark")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "directory receiving the hyperfine JSON exports")
	f.IntVarP(&flags.runs, "runs", "r", bench.DefaultRuns, "timed runs per measurement")
	f.IntVarP(&flags.warmup, "warmup", "w", 0, "untimed warm-up runs per measurement")
	f.StringVar(&flags.plan, "plan", matrix.ReferencePlanName, "built-in plan: reference or full")
	f.StringSliceVar(&flags.scenarios, "scenario", nil, "scenarios to measure (default clean,incremental)")
	f.StringVar(&flags.touchFile, "touch-file", "", "file touched before each incremental run instead of the incremental command")
	f.StringVar(&flags.linkerWrapper, "linker-wrapper", "", `command prefixed to the build while mold is on, e.g. "mold -run"`)
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the walk without toggling knobs or running hyperfine")

	return cmd
}

// apply copies the flags the user set onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("project-dir") {
		cfg.ProjectDir = f.projectDir
	}
	if changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("runs") {
		cfg.Runs = f.runs
	}
	if changed("warmup") {
		cfg.Warmup = f.warmup
	}
	if changed("plan") {
		// An explicit built-in plan replaces steps from the config file.
		cfg.Plan = f.plan
		cfg.Steps = nil
	}
	if changed("scenario") {
		cfg.Scenarios = f.scenarios
	}
	if changed("touch-file") {
		cfg.Commands.IncrementalTouch = f.touchFile
	}
	if changed("linker-wrapper") {
		cfg.Commands.LinkerWrapper = f.linkerWrapper
	}
}

func runMatrix(cmd *cobra.Command, app *App, flags *runFlags) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.renderError(cmd, err, config.ColorSchemeAuto)
	}
	flags.apply(cmd, cfg)
	scheme := cfg.UI.ColorScheme

	if valid, errs := cfg.IsValid(); !valid {
		return app.renderError(cmd, issue.NewErrorContext().
			WithOperation("validate run options").
			WithSuggestion("Check the command-line flags against the config file").
			Wrap(errs[0]).
			BuildError(), scheme)
	}
	plan, err := cfg.MatrixPlan()
	if err != nil {
		return app.renderError(cmd, err, scheme)
	}
	opts, err := cfg.MatrixOptions()
	if err != nil {
		return app.renderError(cmd, err, scheme)
	}
	opts.DryRun = flags.dryRun

	logger := app.logger()
	runner := app.NewRunner(cfg, logger, stdout, stderr)
	if c, ok := runner.(checker); ok && !opts.DryRun {
		if err := c.Check(); err != nil {
			return app.renderError(cmd, issue.NewErrorContext().
				WithOperation("find benchmarking tool").
				WithResource(cfg.Hyperfine.Tool).
				WithSuggestion("Install hyperfine or set hyperfine.tool in the config file").
				Wrap(err).
				BuildError(), scheme)
		}
	}

	orch := &matrix.Orchestrator{
		Toggler: knob.New(cfg.KnobOptions(), logger),
		Runner:  runner,
		Logger:  logger,
		Options: opts,
	}
	logger.Info("starting walk", "plan", plan.Name, "states", len(plan.Steps), "project", cfg.ProjectDir, "output", cfg.OutputDir)

	report, err := orch.Run(ctx, plan)
	if opts.DryRun {
		printDryRun(stdout, report, runner)
	}
	if err != nil {
		return app.renderError(cmd, issue.NewErrorContext().
			WithOperation("run benchmark matrix").
			WithResource(cfg.ProjectDir).
			WithSuggestions(
				fmt.Sprintf("%d result file(s) were written before the failure", len(completed(report))),
				"Knobs were left in the state of the failed step; check 'customs knob status'",
			).
			Wrap(err).
			BuildError(), scheme)
	}

	if !opts.DryRun {
		fmt.Fprintf(stdout, "%s %d result file(s) written to %s (%d knob toggles)\n",
			SuccessStyle.Render("✓"), len(report.ResultFiles()), filepath.Clean(cfg.OutputDir), report.Toggles())
	}
	return nil
}

// completed lists the result files of a walk that stopped early.
func completed(r matrix.Report) []string {
	if r.DryRun {
		return nil
	}
	return r.ResultFiles()
}

func printDryRun(w io.Writer, report matrix.Report, runner any) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Dry run of plan %q", report.Plan)))
	fmt.Fprintf(w, "%s starting from %s\n\n", SubtitleStyle.Render("project state on disk:"), stateLabel(report.Initial))

	liner, _ := runner.(commandLiner)
	for i, v := range report.Visits {
		fmt.Fprintf(w, "%s %s %s\n", stepIndexStyle.Render(fmt.Sprintf("%d.", i+1)), labelColumnStyle.Render(stateLabel(v.Step.Knobs)), renderToggles(v.Toggles))
		for _, c := range v.Cells {
			line := c.Spec.CommandLine(bench.DefaultTool)
			if liner != nil {
				line = liner.CommandLine(c.Spec)
			}
			fmt.Fprintf(w, "       %s\n", CmdStyle.Render(line))
		}
	}
	fmt.Fprintf(w, "\n%d measurement(s), %d knob toggle(s)\n", len(report.Cells()), report.Toggles())
}
