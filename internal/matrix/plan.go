// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/customs-bench/customs/internal/knob"
)

// Names of the built-in plans.
const (
	ReferencePlanName = "reference"
	FullPlanName      = "full"
)

var (
	// ErrEmptyPlan is returned when a plan has no steps.
	ErrEmptyPlan = errors.New("plan has no steps")
	// ErrDuplicateState is the sentinel error wrapped by DuplicateStateError.
	ErrDuplicateState = errors.New("plan visits a state twice")
	// ErrUnknownPlan is returned by PlanByName for an unrecognized name.
	ErrUnknownPlan = errors.New("unknown plan")
)

type (
	// Step is one state of the walk. Name overrides the run-name suffix
	// derived from Knobs.
	Step struct {
		Name  string
		Knobs knob.Set
	}

	// Plan is an ordered walk over knob states. Every step is measured once
	// per scenario.
	Plan struct {
		Name  string
		Steps []Step
	}

	// DuplicateStateError reports two steps reaching the same knob state.
	DuplicateStateError struct {
		State  knob.Set
		First  int
		Second int
	}
)

// Error implements the error interface.
func (e *DuplicateStateError) Error() string {
	return fmt.Sprintf("steps %d and %d both reach state %q", e.First, e.Second, e.State)
}

// Unwrap returns ErrDuplicateState so callers can use errors.Is for programmatic detection.
func (e *DuplicateStateError) Unwrap() error { return ErrDuplicateState }

// Label is the run-name suffix of the step. The baseline has an empty label.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Knobs.String()
}

// ReferencePlan is the walk the project has always benchmarked: fifteen of
// the sixteen states, labelled in the knob order they were first measured
// with. The parallel, o3 and mold combination without cranelift is never
// visited.
func ReferencePlan() Plan {
	const (
		o3   = knob.DependencyOpt
		cl   = knob.Codegen
		mold = knob.Linker
		par  = knob.Parallel
	)
	step := func(name string, ks ...knob.Knob) Step {
		return Step{Name: name, Knobs: knob.NewSet(ks...)}
	}
	return Plan{
		Name: ReferencePlanName,
		Steps: []Step{
			step(""),
			step("mold", mold),
			step("mold_o3", mold, o3),
			step("mold_o3_cranelift", mold, o3, cl),
			step("o3_cranelift", o3, cl),
			step("mold_cranelift", mold, cl),
			step("cranelift", cl),
			step("o3", o3),
			step("parallel", par),
			step("parallel_o3", par, o3),
			step("parallel_o3_cranelift", par, o3, cl),
			step("parallel_o3_cranelift_mold", par, o3, cl, mold),
			step("parallel_cranelift_mold", par, cl, mold),
			step("parallel_cranelift", par, cl),
			step("parallel_mold", par, mold),
		},
	}
}

// FullPlan visits all sixteen states in reflected Gray code order, so each
// step differs from the previous one by exactly one knob.
func FullPlan() Plan {
	n := 1 << len(knob.All())
	steps := make([]Step, n)
	for i := range n {
		steps[i] = Step{Knobs: knob.Set(i ^ i>>1)}
	}
	return Plan{Name: FullPlanName, Steps: steps}
}

// PlanByName returns a built-in plan.
func PlanByName(name string) (Plan, error) {
	switch name {
	case ReferencePlanName, "":
		return ReferencePlan(), nil
	case FullPlanName:
		return FullPlan(), nil
	default:
		return Plan{}, fmt.Errorf("%w %q (valid: %s)", ErrUnknownPlan, name, strings.Join(PlanNames(), ", "))
	}
}

// PlanNames lists the built-in plans.
func PlanNames() []string {
	return []string{ReferencePlanName, FullPlanName}
}

// Validate rejects empty plans and plans that reach a state twice.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return ErrEmptyPlan
	}
	seen := make(map[knob.Set]int, len(p.Steps))
	for i, s := range p.Steps {
		if first, ok := seen[s.Knobs]; ok {
			return &DuplicateStateError{State: s.Knobs, First: first, Second: i}
		}
		seen[s.Knobs] = i
	}
	return nil
}

// Knobs returns every knob enabled by at least one step.
func (p Plan) Knobs() knob.Set {
	var set knob.Set
	for _, s := range p.Steps {
		set |= s.Knobs
	}
	return set
}

// States returns the knob state of every step, in order.
func (p Plan) States() []knob.Set {
	out := make([]knob.Set, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Knobs
	}
	return out
}
