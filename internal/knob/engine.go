// SPDX-License-Identifier: MPL-2.0

package knob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/customs-bench/customs/internal/tomldoc"
)

type (
	// Options configures where each knob lives and the values it writes.
	// Zero fields take the value from DefaultOptions.
	Options struct {
		// Manifest is the package manifest, relative to the project directory.
		Manifest string
		// BuildConfig is the cargo build configuration, relative to the project directory.
		BuildConfig string
		// MainOptLevel is the dev profile opt-level written by DependencyOpt.
		MainOptLevel int64
		// DepsOptLevel is the opt-level written for every dependency by DependencyOpt.
		DepsOptLevel int64
		// CodegenProfile is the profile whose codegen-backend Codegen sets.
		CodegenProfile string
		// CodegenBackend is the backend name Codegen writes.
		CodegenBackend string
		// LinkerTarget is the target triple whose table holds the linker template.
		LinkerTarget string
		// FrontendThreads is the thread count passed to the parallel frontend.
		FrontendThreads int
	}

	// Engine toggles knobs on disk. Every call re-reads the target file, so an
	// Engine holds no project state and can be shared across projects.
	Engine struct {
		opts   Options
		logger *log.Logger
	}

	// mutator owns the on-disk representation of one knob.
	mutator interface {
		// file is the target configuration file, relative to the project directory.
		file() string
		// holds reports whether the document is already in the requested state.
		holds(doc *tomldoc.Document, on bool) (bool, error)
		// apply edits the document into the requested state.
		apply(doc *tomldoc.Document, on bool) error
	}
)

// DefaultOptions returns the settings of a cargo-leptos project building for
// x86_64 Linux.
func DefaultOptions() Options {
	return Options{
		Manifest:        "Cargo.toml",
		BuildConfig:     filepath.Join(".cargo", "config.toml"),
		MainOptLevel:    1,
		DepsOptLevel:    3,
		CodegenProfile:  "server-dev",
		CodegenBackend:  "cranelift",
		LinkerTarget:    "x86_64-unknown-linux-gnu",
		FrontendThreads: 8,
	}
}

// New creates an Engine. A nil logger discards log output.
func New(opts Options, logger *log.Logger) *Engine {
	def := DefaultOptions()
	if opts.Manifest == "" {
		opts.Manifest = def.Manifest
	}
	if opts.BuildConfig == "" {
		opts.BuildConfig = def.BuildConfig
	}
	// 0 is a valid level for either profile on its own. Both at 0 would make
	// the enabled state equal the disabled one, so that pair means unset.
	if opts.MainOptLevel == 0 && opts.DepsOptLevel == 0 {
		opts.MainOptLevel, opts.DepsOptLevel = def.MainOptLevel, def.DepsOptLevel
	}
	if opts.CodegenProfile == "" {
		opts.CodegenProfile = def.CodegenProfile
	}
	if opts.CodegenBackend == "" {
		opts.CodegenBackend = def.CodegenBackend
	}
	if opts.LinkerTarget == "" {
		opts.LinkerTarget = def.LinkerTarget
	}
	if opts.FrontendThreads == 0 {
		opts.FrontendThreads = def.FrontendThreads
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the effective options, defaults applied.
func (e *Engine) Options() Options { return e.opts }

// File returns the path of the file that holds k inside dir.
func (e *Engine) File(dir string, k Knob) (string, error) {
	m, err := e.mutator(k)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, m.file()), nil
}

// Enable switches k on in the project at dir.
func (e *Engine) Enable(ctx context.Context, dir string, k Knob) error {
	return e.Apply(ctx, dir, k, true)
}

// Disable switches k off in the project at dir.
func (e *Engine) Disable(ctx context.Context, dir string, k Knob) error {
	return e.Apply(ctx, dir, k, false)
}

// Apply moves k into the requested state with one read-mutate-write cycle. If
// the state already holds, the file is not written.
func (e *Engine) Apply(ctx context.Context, dir string, k Knob, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := e.mutator(k)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, m.file())

	doc, mode, err := readDocument(path, k)
	if err != nil {
		return err
	}

	done, err := m.holds(doc, on)
	if err != nil {
		return &FileError{Op: OpEdit, Knob: k, Path: path, Err: err}
	}
	if done {
		e.logger.Debug("knob already in state", "knob", k, "on", on, "file", path)
		return nil
	}

	if err := m.apply(doc, on); err != nil {
		return &FileError{Op: OpEdit, Knob: k, Path: path, Err: editError(err)}
	}

	// The whole file is rendered in memory and written with a single call.
	// A failure here may leave the file truncated; there is no rollback.
	if err := os.WriteFile(path, doc.Bytes(), mode); err != nil {
		return &FileError{Op: OpWrite, Knob: k, Path: path, Err: err}
	}
	e.logger.Debug("knob toggled", "knob", k, "on", on, "file", path)
	return nil
}

// State reports whether k is enabled in the project at dir.
func (e *Engine) State(dir string, k Knob) (bool, error) {
	m, err := e.mutator(k)
	if err != nil {
		return false, err
	}
	path := filepath.Join(dir, m.file())
	doc, _, err := readDocument(path, k)
	if err != nil {
		return false, err
	}
	on, err := m.holds(doc, true)
	if err != nil {
		return false, &FileError{Op: OpEdit, Knob: k, Path: path, Err: err}
	}
	return on, nil
}

// States returns which of ks are enabled in the project at dir. With no ks
// every knob is read.
func (e *Engine) States(dir string, ks ...Knob) (Set, error) {
	if len(ks) == 0 {
		ks = All()
	}
	var set Set
	for _, k := range ks {
		on, err := e.State(dir, k)
		if err != nil {
			return 0, err
		}
		if on {
			set = set.With(k)
		}
	}
	return set, nil
}

func (e *Engine) mutator(k Knob) (mutator, error) {
	switch k {
	case DependencyOpt:
		return depOptMutator{opts: e.opts}, nil
	case Codegen:
		return codegenMutator{opts: e.opts}, nil
	case Linker:
		return linkerMutator{opts: e.opts}, nil
	case Parallel:
		return parallelMutator{opts: e.opts}, nil
	default:
		return nil, &UnknownKnobError{Label: k.String()}
	}
}

func readDocument(path string, k Knob) (*tomldoc.Document, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, &FileError{Op: OpRead, Knob: k, Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, &FileError{Op: OpRead, Knob: k, Path: path, Err: err}
	}
	doc, err := tomldoc.Parse(data)
	if err != nil {
		return nil, 0, &FileError{Op: OpParse, Knob: k, Path: path, Err: err}
	}
	return doc, info.Mode().Perm(), nil
}

// editError marks structural conflicts as malformed configuration. Anything
// else (such as ErrTemplateMissing) passes through unchanged.
func editError(err error) error {
	if errors.Is(err, tomldoc.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}
	return err
}
