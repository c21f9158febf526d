// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/testutil"
)

type (
	// memoryToggler keeps knob state in memory and records every call.
	memoryToggler struct {
		state  knob.Set
		calls  []Toggle
		failOn *Toggle
		// read is the union of the knobs passed to States.
		read knob.Set
	}

	// recordingRunner records specs and fails the call with index failAt.
	recordingRunner struct {
		specs  []bench.Spec
		failAt int
		err    error
		// onRun, when set, is called before recording.
		onRun func(bench.Spec)
	}
)

func (m *memoryToggler) Apply(_ context.Context, _ string, k knob.Knob, on bool) error {
	t := Toggle{Knob: k, On: on}
	if m.failOn != nil && *m.failOn == t {
		return knob.ErrConfigWrite
	}
	m.calls = append(m.calls, t)
	if on {
		m.state = m.state.With(k)
	} else {
		m.state = m.state.Without(k)
	}
	return nil
}

func (m *memoryToggler) States(_ string, ks ...knob.Knob) (knob.Set, error) {
	if len(ks) == 0 {
		ks = knob.All()
	}
	want := knob.NewSet(ks...)
	m.read |= want
	return m.state & want, nil
}

func (r *recordingRunner) Run(_ context.Context, spec bench.Spec) error {
	if r.onRun != nil {
		r.onRun(spec)
	}
	if r.err != nil && len(r.specs) == r.failAt {
		r.specs = append(r.specs, spec)
		return r.err
	}
	r.specs = append(r.specs, spec)
	return nil
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{ProjectDir: t.TempDir(), OutputDir: t.TempDir(), Runs: 2}
}

func TestOrchestrator_ReferenceWalk(t *testing.T) {
	t.Parallel()

	toggler := &memoryToggler{}
	runner := &recordingRunner{}
	opts := testOptions(t)
	o := &Orchestrator{Toggler: toggler, Runner: runner, Options: opts}

	report, err := o.Run(context.Background(), ReferencePlan())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got, want := report.States(), ReferencePlan().States(); !slices.Equal(got, want) {
		t.Errorf("visited states = %q, want %q", got, want)
	}

	var names []string
	for _, s := range runner.specs {
		names = append(names, s.Name)
	}
	wantNames := []string{"clean", "incremental", "clean_mold", "incremental_mold", "clean_mold_o3", "incremental_mold_o3"}
	if len(names) != 30 || !slices.Equal(names[:6], wantNames) {
		t.Errorf("run names = %q, want 30 starting with %q", names, wantNames)
	}
	if last := names[len(names)-1]; last != "incremental_parallel_mold" {
		t.Errorf("last run = %q, want incremental_parallel_mold", last)
	}

	first := runner.specs[0]
	if first.Setup != DefaultCleanCommand || first.Command != DefaultBuildCommand || first.WorkDir != opts.ProjectDir || first.Runs != 2 {
		t.Errorf("clean spec = %+v", first)
	}
	if runner.specs[1].Setup != DefaultIncrementalCommand {
		t.Errorf("incremental setup = %q", runner.specs[1].Setup)
	}
	if got, want := first.OutputPath(), filepath.Join(opts.OutputDir, "clean.json"); got != want {
		t.Errorf("clean export = %q, want %q", got, want)
	}

	if report.Toggles() != len(toggler.calls) {
		t.Errorf("report counts %d toggles, toggler saw %d", report.Toggles(), len(toggler.calls))
	}
	if toggler.state != knob.NewSet(knob.Parallel, knob.Linker) {
		t.Errorf("final state = %q, want the last step left in place", toggler.state)
	}
	if got := report.ResultFiles(); len(got) != 30 {
		t.Errorf("ResultFiles() has %d entries, want 30", len(got))
	}
}

func TestOrchestrator_StartsFromStateOnDisk(t *testing.T) {
	t.Parallel()

	toggler := &memoryToggler{state: knob.NewSet(knob.Codegen, knob.Parallel)}
	o := &Orchestrator{Toggler: toggler, Runner: &recordingRunner{}, Options: testOptions(t)}

	report, err := o.Run(context.Background(), ReferencePlan())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Initial != knob.NewSet(knob.Codegen, knob.Parallel) {
		t.Errorf("Initial = %q", report.Initial)
	}
	want := []Toggle{{Knob: knob.Codegen, On: false}, {Knob: knob.Parallel, On: false}}
	if got := toggler.calls[:2]; !slices.Equal(got, want) {
		t.Errorf("first toggles = %v, want %v", got, want)
	}
}

func TestOrchestrator_StopsOnNonZeroExit(t *testing.T) {
	t.Parallel()

	toggler := &memoryToggler{}
	exitErr := &bench.ExitError{Tool: "hyperfine", Name: "clean_mold", Code: 2}
	// Fail the third measurement: clean at the mold state.
	runner := &recordingRunner{failAt: 2, err: exitErr}
	o := &Orchestrator{Toggler: toggler, Runner: runner, Options: testOptions(t)}

	report, err := o.Run(context.Background(), ReferencePlan())
	if !errors.Is(err, bench.ErrProcessExit) {
		t.Fatalf("Run() error = %v, want ErrProcessExit", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Index != 1 || stepErr.Scenario != Clean {
		t.Errorf("StepError = %+v, want step 1 clean", stepErr)
	}

	if len(runner.specs) != 3 {
		t.Errorf("runner called %d times, want 3", len(runner.specs))
	}
	if want := []Toggle{{Knob: knob.Linker, On: true}}; !slices.Equal(toggler.calls, want) {
		t.Errorf("toggles = %v, want only %v", toggler.calls, want)
	}
	if got := report.ResultFiles(); len(got) != 2 {
		t.Errorf("ResultFiles() = %q, want the two baseline exports", got)
	}
}

func TestOrchestrator_StopsOnToggleFailure(t *testing.T) {
	t.Parallel()

	fail := Toggle{Knob: knob.DependencyOpt, On: true}
	toggler := &memoryToggler{failOn: &fail}
	runner := &recordingRunner{}
	o := &Orchestrator{Toggler: toggler, Runner: runner, Options: testOptions(t)}

	_, err := o.Run(context.Background(), ReferencePlan())
	if !errors.Is(err, knob.ErrConfigWrite) {
		t.Fatalf("Run() error = %v, want ErrConfigWrite", err)
	}
	// Baseline and mold were measured; mold_o3 never was.
	if len(runner.specs) != 4 {
		t.Errorf("runner called %d times, want 4", len(runner.specs))
	}
}

func TestOrchestrator_DryRun(t *testing.T) {
	t.Parallel()

	toggler := &memoryToggler{}
	runner := &recordingRunner{}
	opts := testOptions(t)
	opts.DryRun = true
	o := &Orchestrator{Toggler: toggler, Runner: runner, Options: opts}

	report, err := o.Run(context.Background(), FullPlan())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(toggler.calls) != 0 || len(runner.specs) != 0 {
		t.Errorf("dry run issued %d toggles and %d runs", len(toggler.calls), len(runner.specs))
	}
	if !report.DryRun || len(report.Cells()) != 32 {
		t.Errorf("dry run report has %d cells, want 32", len(report.Cells()))
	}
	if report.Toggles() != 15 {
		t.Errorf("dry run planned %d toggles, want 15", report.Toggles())
	}
}

func TestOrchestrator_DryRunLeavesProjectUntouched(t *testing.T) {
	t.Parallel()

	dir := testutil.NewCargoProject(t)
	manifest := testutil.MustReadFile(t, filepath.Join(dir, "Cargo.toml"))
	config := testutil.MustReadFile(t, filepath.Join(dir, ".cargo", "config.toml"))

	o := &Orchestrator{
		Toggler: knob.New(knob.Options{}, nil),
		Options: Options{ProjectDir: dir, OutputDir: filepath.Join(dir, "results"), DryRun: true},
	}
	if _, err := o.Run(context.Background(), ReferencePlan()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if testutil.MustReadFile(t, filepath.Join(dir, "Cargo.toml")) != manifest ||
		testutil.MustReadFile(t, filepath.Join(dir, ".cargo", "config.toml")) != config {
		t.Error("dry run modified the project configuration")
	}
}

func TestOrchestrator_LinkerWrapper(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	opts := testOptions(t)
	opts.LinkerWrapper = "mold -run"
	opts.Scenarios = []Scenario{Incremental}
	plan := Plan{Steps: []Step{{}, {Knobs: knob.NewSet(knob.Linker)}, {Knobs: knob.NewSet(knob.Codegen)}}}
	o := &Orchestrator{Toggler: &memoryToggler{}, Runner: runner, Options: opts}

	if _, err := o.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"cargo leptos build", "mold -run cargo leptos build", "cargo leptos build"}
	var got []string
	for _, s := range runner.specs {
		got = append(got, s.Command)
	}
	if !slices.Equal(got, want) {
		t.Errorf("measured commands = %q, want %q", got, want)
	}
	if runner.specs[1].Name != "incremental_mold" || runner.specs[2].Name != "incremental_cranelift" {
		t.Errorf("run names = %q, %q", runner.specs[1].Name, runner.specs[2].Name)
	}
}

func TestOrchestrator_RejectsInvalidPlan(t *testing.T) {
	t.Parallel()

	toggler := &memoryToggler{}
	o := &Orchestrator{Toggler: toggler, Runner: &recordingRunner{}, Options: testOptions(t)}
	plan := Plan{Steps: []Step{{}, {Knobs: knob.NewSet(knob.Linker)}, {}}}

	if _, err := o.Run(context.Background(), plan); !errors.Is(err, ErrDuplicateState) {
		t.Errorf("Run() error = %v, want ErrDuplicateState", err)
	}
	if len(toggler.calls) != 0 {
		t.Error("invalid plan must not toggle anything")
	}
}

func TestOrchestrator_WithKnobEngine(t *testing.T) {
	t.Parallel()

	dir := testutil.NewCargoProject(t)
	engine := knob.New(knob.Options{}, nil)
	plan := ReferencePlan()

	// Every measurement must see the on-disk state of its step.
	var seen []knob.Set
	runner := &recordingRunner{onRun: func(spec bench.Spec) {
		if !strings.HasPrefix(spec.Name, "clean") {
			return
		}
		s, err := engine.States(spec.WorkDir)
		if err != nil {
			t.Errorf("States() during %s: %v", spec.Name, err)
		}
		seen = append(seen, s)
	}}

	o := &Orchestrator{
		Toggler: engine,
		Runner:  runner,
		Options: Options{ProjectDir: dir, OutputDir: filepath.Join(dir, "results")},
	}
	if _, err := o.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(seen, plan.States()) {
		t.Errorf("on-disk states = %q, want %q", seen, plan.States())
	}
}

func TestOrchestrator_ReadsOnlyPlanKnobs(t *testing.T) {
	t.Parallel()

	toggler := &memoryToggler{state: knob.NewSet(knob.Linker)}
	o := &Orchestrator{Toggler: toggler, Runner: &recordingRunner{}, Options: testOptions(t)}
	plan := Plan{Name: "custom", Steps: []Step{
		{},
		{Knobs: knob.NewSet(knob.DependencyOpt)},
		{Knobs: knob.NewSet(knob.DependencyOpt, knob.Codegen)},
	}}

	report, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := knob.NewSet(knob.DependencyOpt, knob.Codegen); toggler.read != want {
		t.Errorf("States read %q, want %q", toggler.read, want)
	}
	if !report.Initial.IsBaseline() {
		t.Errorf("Initial = %q, want baseline", report.Initial)
	}
	for _, c := range toggler.calls {
		if c.Knob == knob.Linker {
			t.Errorf("plan without mold toggled it: %v", toggler.calls)
		}
	}
}

func TestOrchestrator_CustomPlanWithoutLinkerTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteCargoProject(t, dir, testutil.ManifestFixture,
		"[build]\ntarget-dir = \"target\"\n\n[profile.server-dev]\ninherits = \"dev\"\n")
	engine := knob.New(knob.Options{}, nil)
	plan := Plan{Name: "custom", Steps: []Step{
		{},
		{Knobs: knob.NewSet(knob.DependencyOpt)},
		{Knobs: knob.NewSet(knob.DependencyOpt, knob.Codegen)},
	}}

	runner := &recordingRunner{}
	o := &Orchestrator{
		Toggler: engine,
		Runner:  runner,
		Options: Options{ProjectDir: dir, OutputDir: filepath.Join(dir, "results"), Scenarios: []Scenario{Clean}},
	}
	report, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(runner.specs) != 3 || report.Toggles() != 2 {
		t.Errorf("Run() measured %d cells with %d toggles, want 3 and 2", len(runner.specs), report.Toggles())
	}
	got, err := engine.States(dir, knob.DependencyOpt, knob.Codegen)
	if err != nil {
		t.Fatalf("States() error = %v", err)
	}
	if want := knob.NewSet(knob.DependencyOpt, knob.Codegen); got != want {
		t.Errorf("final state = %q, want %q", got, want)
	}
}

func TestOptions_Spec(t *testing.T) {
	t.Parallel()

	opts := Options{ProjectDir: "/p", OutputDir: "/out", Warmup: 1}
	spec, err := opts.Spec(Step{Knobs: knob.NewSet(knob.Linker, knob.DependencyOpt)}, Incremental)
	if err != nil {
		t.Fatalf("Spec() error = %v", err)
	}
	if spec.Name != "incremental_o3_mold" || spec.Runs != bench.DefaultRuns || spec.Warmup != 1 {
		t.Errorf("Spec() = %+v", spec)
	}

	if _, err := opts.Spec(Step{}, Scenario("cold")); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("Spec(cold) error = %v, want ErrUnknownScenario", err)
	}
	if _, err := ParseScenario("incremental"); err != nil {
		t.Errorf("ParseScenario(incremental) error = %v", err)
	}
}
