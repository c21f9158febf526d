// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/knob"
)

// Scenarios measured at every state.
const (
	// Clean purges all build artifacts before each timed run.
	Clean Scenario = "clean"
	// Incremental makes a minimal source edit before each timed run.
	Incremental Scenario = "incremental"
)

// Defaults for a cargo-leptos project.
const (
	DefaultBuildCommand = "cargo leptos build"
	DefaultCleanCommand = "cargo clean"
	// DefaultIncrementalCommand rewrites the <dfn> element of the index route
	// with a timestamp, so every run recompiles the app crate.
	DefaultIncrementalCommand = `sed -i -e "s|<dfn>[^<]*</dfn>|<dfn>$(date +%m%s)</dfn>|g" app/src/routes/index.rs`
)

// ErrUnknownScenario is returned by ParseScenario for an unrecognized name.
var ErrUnknownScenario = errors.New("unknown scenario")

type (
	// Scenario is the kind of build measured at a state.
	Scenario string

	// Toggler reads and changes knob states on disk. *knob.Engine implements it.
	Toggler interface {
		Apply(ctx context.Context, dir string, k knob.Knob, on bool) error
		// States reports which of ks are enabled, or every knob when ks is
		// empty.
		States(dir string, ks ...knob.Knob) (knob.Set, error)
	}

	// Options configures a matrix walk. Zero fields take the value from
	// DefaultOptions, except ProjectDir and OutputDir which are required.
	Options struct {
		ProjectDir string
		OutputDir  string
		Runs       int
		Warmup     int
		// BuildCommand is the measured command.
		BuildCommand string
		// CleanCommand is the setup command of the clean scenario.
		CleanCommand string
		// IncrementalCommand is the setup command of the incremental scenario.
		IncrementalCommand string
		// LinkerWrapper prefixes BuildCommand while the linker knob is on,
		// e.g. "mold -run". Empty runs the build unchanged.
		LinkerWrapper string
		// Scenarios are measured in order at every state.
		Scenarios []Scenario
		// DryRun records the cells without toggling knobs or running anything.
		DryRun bool
	}

	// Orchestrator walks a Plan: it moves the project between knob states with
	// the Toggler and measures every scenario at each state with the Runner.
	// The walk is strictly sequential since every call targets the same
	// project directory.
	Orchestrator struct {
		Toggler Toggler
		Runner  bench.Runner
		Logger  *log.Logger
		Options Options
	}

	// Cell is one measured (state, scenario) pair.
	Cell struct {
		Scenario Scenario
		Spec     bench.Spec
	}

	// Visit records what happened at one step of the walk.
	Visit struct {
		Step    Step
		Toggles []Toggle
		Cells   []Cell
	}

	// Report is the outcome of a walk. On failure it holds the visits
	// completed so far, the last one possibly partial.
	Report struct {
		Plan    string
		Initial knob.Set
		DryRun  bool
		Visits  []Visit
	}

	// StepError reports the step at which a walk stopped.
	StepError struct {
		Index    int
		Step     Step
		Scenario Scenario
		Err      error
	}
)

// Scenarios returns the built-in scenarios in measurement order.
func Scenarios() []Scenario { return []Scenario{Clean, Incremental} }

// ParseScenario returns the scenario with the given name.
func ParseScenario(s string) (Scenario, error) {
	for _, sc := range Scenarios() {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownScenario, s)
}

// String returns the scenario name.
func (s Scenario) String() string { return string(s) }

// DefaultOptions returns the options of the cargo-leptos benchmark.
func DefaultOptions() Options {
	return Options{
		Runs:               bench.DefaultRuns,
		BuildCommand:       DefaultBuildCommand,
		CleanCommand:       DefaultCleanCommand,
		IncrementalCommand: DefaultIncrementalCommand,
		Scenarios:          Scenarios(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Runs == 0 {
		o.Runs = def.Runs
	}
	if o.BuildCommand == "" {
		o.BuildCommand = def.BuildCommand
	}
	if o.CleanCommand == "" {
		o.CleanCommand = def.CleanCommand
	}
	if o.IncrementalCommand == "" {
		o.IncrementalCommand = def.IncrementalCommand
	}
	if len(o.Scenarios) == 0 {
		o.Scenarios = def.Scenarios
	}
	return o
}

// Spec builds the benchmark spec of one cell. The run name is the scenario
// alone at the baseline and "<scenario>_<label>" everywhere else.
func (o Options) Spec(step Step, sc Scenario) (bench.Spec, error) {
	o = o.withDefaults()
	name := string(sc)
	if label := step.Label(); label != "" {
		name += "_" + label
	}

	var setup string
	switch sc {
	case Clean:
		setup = o.CleanCommand
	case Incremental:
		setup = o.IncrementalCommand
	default:
		return bench.Spec{}, fmt.Errorf("%w %q", ErrUnknownScenario, sc)
	}

	command := o.BuildCommand
	if step.Knobs.Has(knob.Linker) && o.LinkerWrapper != "" {
		command = o.LinkerWrapper + " " + command
	}

	return bench.NewSpec(name, command,
		bench.WithSetup(setup),
		bench.WithRuns(o.Runs),
		bench.WithWarmup(o.Warmup),
		bench.WithOutputDir(o.OutputDir),
		bench.WithWorkDir(o.ProjectDir),
	)
}

// Error implements the error interface.
func (e *StepError) Error() string {
	state := stateName(e.Step)
	if e.Scenario != "" {
		return fmt.Sprintf("step %d (%s, %s): %v", e.Index+1, state, e.Scenario, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, state, e.Err)
}

// Unwrap returns the underlying toggle or benchmark error.
func (e *StepError) Unwrap() error { return e.Err }

// Run walks plan. The first error aborts the walk; result files already
// written stay on disk and the project keeps the knob state reached so far.
// Knobs are never reset after the last step.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (Report, error) {
	opts := o.Options.withDefaults()
	logger := o.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	report := Report{Plan: plan.Name, DryRun: opts.DryRun}
	if err := plan.Validate(); err != nil {
		return report, err
	}
	if opts.ProjectDir == "" {
		return report, errors.New("project directory is required")
	}
	if opts.OutputDir == "" {
		return report, errors.New("output directory is required")
	}

	// The walk starts from whatever state is on disk, so the first
	// transition is right even if a previous run was aborted midway. Knobs
	// no step enables are never toggled, so only the plan's knobs are read.
	var current knob.Set
	if used := plan.Knobs(); !used.IsBaseline() {
		s, err := o.Toggler.States(opts.ProjectDir, used.Knobs()...)
		if err != nil {
			if !opts.DryRun {
				return report, fmt.Errorf("read initial knob state: %w", err)
			}
			logger.Warn("cannot read knob state, assuming baseline", "error", err)
			s = 0
		}
		current = s
	}
	report.Initial = current

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return report, &StepError{Index: i, Step: step, Err: err}
		}

		toggles := Transition(current, step.Knobs)
		logger.Info("entering state", "step", fmt.Sprintf("%d/%d", i+1, len(plan.Steps)), "state", stateName(step), "toggles", toggles)
		if !opts.DryRun {
			for _, t := range toggles {
				if err := o.Toggler.Apply(ctx, opts.ProjectDir, t.Knob, t.On); err != nil {
					return report, &StepError{Index: i, Step: step, Err: err}
				}
			}
		}
		current = step.Knobs

		visit := Visit{Step: step, Toggles: toggles}
		for _, sc := range opts.Scenarios {
			spec, err := opts.Spec(step, sc)
			if err != nil {
				report.Visits = append(report.Visits, visit)
				return report, &StepError{Index: i, Step: step, Scenario: sc, Err: err}
			}
			if !opts.DryRun {
				logger.Info("measuring", "run", spec.Name, "runs", spec.Runs, "warmup", spec.Warmup)
				if err := o.Runner.Run(ctx, spec); err != nil {
					report.Visits = append(report.Visits, visit)
					return report, &StepError{Index: i, Step: step, Scenario: sc, Err: err}
				}
				logger.Debug("result written", "file", spec.OutputPath())
			}
			visit.Cells = append(visit.Cells, Cell{Scenario: sc, Spec: spec})
		}
		report.Visits = append(report.Visits, visit)
	}
	return report, nil
}

// States returns the knob state of every visited step.
func (r Report) States() []knob.Set {
	out := make([]knob.Set, len(r.Visits))
	for i, v := range r.Visits {
		out[i] = v.Step.Knobs
	}
	return out
}

// Cells returns every recorded cell in walk order.
func (r Report) Cells() []Cell {
	var out []Cell
	for _, v := range r.Visits {
		out = append(out, v.Cells...)
	}
	return out
}

// ResultFiles lists the JSON exports written by the walk. A dry run writes
// none, so it returns the files a real run would write.
func (r Report) ResultFiles() []string {
	cells := r.Cells()
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Spec.OutputPath()
	}
	return out
}

// Toggles counts the enable and disable calls the walk issued.
func (r Report) Toggles() int {
	n := 0
	for _, v := range r.Visits {
		n += len(v.Toggles)
	}
	return n
}

func stateName(s Step) string {
	if label := s.Label(); label != "" {
		return label
	}
	return "baseline"
}
