// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultRuns matches hyperfine's own default run count.
const DefaultRuns = 10

type (
	// Spec is one fully specified measurement: a command timed Runs times,
	// each run preceded by Setup, with results exported to
	// {OutputDir}/{Name}.json.
	Spec struct {
		// Name identifies the result file, e.g. "incremental_o3_mold".
		Name string
		// Setup runs before every timed run (hyperfine --prepare). Optional.
		Setup string
		// Command is the measured command.
		Command string
		// Runs is the number of timed runs. Must be positive.
		Runs int
		// Warmup is the number of untimed runs before measuring.
		Warmup int
		// OutputDir receives the JSON export.
		OutputDir string
		// WorkDir is the directory the tool runs in. Empty means the current directory.
		WorkDir string
	}

	// Option configures a Spec built by NewSpec.
	Option func(*Spec)
)

// WithSetup sets the command run before every timed run.
func WithSetup(cmd string) Option { return func(s *Spec) { s.Setup = cmd } }

// WithRuns sets the number of timed runs.
func WithRuns(n int) Option { return func(s *Spec) { s.Runs = n } }

// WithWarmup sets the number of untimed warm-up runs.
func WithWarmup(n int) Option { return func(s *Spec) { s.Warmup = n } }

// WithOutputDir sets the directory receiving the JSON export.
func WithOutputDir(dir string) Option { return func(s *Spec) { s.OutputDir = dir } }

// WithWorkDir sets the directory the tool runs in.
func WithWorkDir(dir string) Option { return func(s *Spec) { s.WorkDir = dir } }

// NewSpec builds and validates a Spec measuring command. Runs defaults to
// DefaultRuns and OutputDir to the current directory.
func NewSpec(name, command string, opts ...Option) (Spec, error) {
	s := Spec{Name: name, Command: command, Runs: DefaultRuns, OutputDir: "."}
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Validate checks that the spec can be handed to the benchmarking tool. Both
// commands must parse as POSIX shell, since hyperfine runs them through sh.
func (s Spec) Validate() error {
	switch {
	case s.Name == "":
		return &InvalidSpecError{Name: s.Name, Field: "name", Reason: "must not be empty"}
	case strings.ContainsAny(s.Name, `/\`):
		return &InvalidSpecError{Name: s.Name, Field: "name", Reason: "must not contain path separators"}
	case strings.TrimSpace(s.Command) == "":
		return &InvalidSpecError{Name: s.Name, Field: "command", Reason: "must not be empty"}
	case s.Runs <= 0:
		return &InvalidSpecError{Name: s.Name, Field: "runs", Reason: "must be positive, got " + strconv.Itoa(s.Runs)}
	case s.Warmup < 0:
		return &InvalidSpecError{Name: s.Name, Field: "warmup", Reason: "must not be negative, got " + strconv.Itoa(s.Warmup)}
	case s.OutputDir == "":
		return &InvalidSpecError{Name: s.Name, Field: "output directory", Reason: "must not be empty"}
	}
	if err := checkShell(s.Command); err != nil {
		return &InvalidSpecError{Name: s.Name, Field: "command", Reason: "is not valid shell: " + err.Error()}
	}
	if s.Setup != "" {
		if err := checkShell(s.Setup); err != nil {
			return &InvalidSpecError{Name: s.Name, Field: "setup", Reason: "is not valid shell: " + err.Error()}
		}
	}
	return nil
}

// OutputPath is the JSON export path, {OutputDir}/{Name}.json.
func (s Spec) OutputPath() string {
	return filepath.Join(s.OutputDir, s.Name+".json")
}

// Args returns the hyperfine arguments for the spec:
//
//	--prepare <setup> --warmup <n> <command> --export-json <path> --runs <n>
//
// --prepare is omitted when there is no setup command.
func (s Spec) Args() []string {
	var args []string
	if s.Setup != "" {
		args = append(args, "--prepare", s.Setup)
	}
	return append(args,
		"--warmup", strconv.Itoa(s.Warmup),
		s.Command,
		"--export-json", s.OutputPath(),
		"--runs", strconv.Itoa(s.Runs),
	)
}

// CommandLine renders tool, extra and Args as a single shell-quoted line,
// for display in dry runs.
func (s Spec) CommandLine(tool string, extra ...string) string {
	parts := []string{quote(tool)}
	for _, a := range append(slices.Clone(extra), s.Args()...) {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

// IncrementalTouchCommand returns a setup command that touches file, which is
// enough for cargo to consider the crate owning it dirty.
func IncrementalTouchCommand(file string) (string, error) {
	q, err := syntax.Quote(file, syntax.LangPOSIX)
	if err != nil {
		return "", err
	}
	return "touch " + q, nil
}

func checkShell(cmd string) error {
	_, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(cmd), "")
	return err
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}
