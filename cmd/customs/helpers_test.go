// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/config"
)

type (
	// staticProvider serves a copy of a fixed configuration.
	staticProvider struct {
		cfg *config.Config
		err error
	}

	// fakeRunner records the specs it is asked to run and fails the run at
	// index failAt (zero-based) with err.
	fakeRunner struct {
		mu     sync.Mutex
		specs  []bench.Spec
		failAt int
		err    error
	}

	// checkingRunner is a fakeRunner with a preflight check.
	checkingRunner struct {
		*fakeRunner
		checkErr error
	}

	testCLI struct {
		app    *App
		runner *fakeRunner
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	}
)

func (p *staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if p.err != nil {
		return nil, p.err
	}
	cp := *p.cfg
	return &cp, nil
}

func (r *fakeRunner) Run(_ context.Context, spec bench.Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, spec)
	if r.err != nil && len(r.specs)-1 == r.failAt {
		return r.err
	}
	return nil
}

func (r *fakeRunner) ran() []bench.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.specs
}

func (r *checkingRunner) Check() error { return r.checkErr }

// newTestCLI builds an App around cfg whose runner is runner, or a fresh
// fakeRunner when nil.
func newTestCLI(t *testing.T, cfg *config.Config, runner bench.Runner) *testCLI {
	t.Helper()

	fr, _ := runner.(*fakeRunner)
	if runner == nil {
		fr = &fakeRunner{}
		runner = fr
	}
	if cr, ok := runner.(*checkingRunner); ok {
		fr = cr.fakeRunner
	}

	c := &testCLI{runner: fr, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	c.app = NewApp(Dependencies{
		Config: &staticProvider{cfg: cfg},
		NewRunner: func(*config.Config, *log.Logger, io.Writer, io.Writer) bench.Runner {
			return runner
		},
		Stdout: c.stdout,
		Stderr: c.stderr,
	})
	return c
}

// execute runs the command tree with args.
func (c *testCLI) execute(args ...string) error {
	root := NewRootCommand(c.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
