// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
)

// DefaultTool is the benchmarking tool looked up on PATH.
const DefaultTool = "hyperfine"

type (
	// Runner executes one Spec and blocks until the measurement completes.
	Runner interface {
		Run(ctx context.Context, spec Spec) error
	}

	// HyperfineRunner runs specs with hyperfine. The zero value runs the tool
	// from PATH and discards its output.
	HyperfineRunner struct {
		// Tool is the executable to run. Defaults to DefaultTool.
		Tool string
		// ExtraArgs are passed before the spec arguments, e.g. "--style basic".
		ExtraArgs []string
		Stdout    io.Writer
		Stderr    io.Writer
		Logger    *log.Logger
	}
)

// Run validates spec, creates its output directory, and runs the tool in
// spec.WorkDir. A relative OutputDir is resolved against the current directory
// so the export lands in the same place regardless of WorkDir.
//
// The result file is not read back; hyperfine owns its format.
func (r *HyperfineRunner) Run(ctx context.Context, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	out, err := filepath.Abs(spec.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	spec.OutputDir = out
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tool := r.tool()
	args := append(slices.Clone(r.ExtraArgs), spec.Args()...)
	r.logger().Debug("running benchmark", "name", spec.Name, "tool", tool, "dir", spec.WorkDir, "export", spec.OutputPath())

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = spec.WorkDir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Tool: tool, Name: spec.Name, Code: ExitCode(exitErr.ExitCode())}
		}
		return &LaunchError{Tool: tool, Err: err}
	}
	return nil
}

// Check reports a *LaunchError when the tool cannot be found, so a walk can
// fail before any knob is toggled.
func (r *HyperfineRunner) Check() error {
	tool := r.tool()
	if _, err := exec.LookPath(tool); err != nil {
		return &LaunchError{Tool: tool, Err: err}
	}
	return nil
}

// CommandLine renders the invocation Run would perform for spec.
func (r *HyperfineRunner) CommandLine(spec Spec) string {
	return spec.CommandLine(r.tool(), r.ExtraArgs...)
}

func (r *HyperfineRunner) tool() string {
	if r.Tool == "" {
		return DefaultTool
	}
	return r.Tool
}

func (r *HyperfineRunner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}
