// SPDX-License-Identifier: MPL-2.0

// Package matrix walks a declarative plan of knob states and measures every
// scenario at each state.
//
// A Plan is data: an ordered list of steps, each a knob.Set. The Orchestrator
// interprets it with a single loop, moving between consecutive states with the
// minimal set of toggles computed by Transition and then running one
// benchmark per scenario:
//
//	o := &matrix.Orchestrator{
//		Toggler: knob.New(knob.Options{}, logger),
//		Runner:  &bench.HyperfineRunner{Stdout: os.Stdout, Stderr: os.Stderr},
//		Logger:  logger,
//		Options: matrix.Options{ProjectDir: dir, OutputDir: out},
//	}
//	report, err := o.Run(ctx, matrix.ReferencePlan())
package matrix
