// SPDX-License-Identifier: MPL-2.0

package knob

import (
	"fmt"

	"github.com/customs-bench/customs/internal/tomldoc"
)

var (
	mainOptLevelPath = tomldoc.MustParsePath("profile.dev.opt-level")
	depsOptLevelPath = tomldoc.MustParsePath(`profile.dev.package."*".opt-level`)
	rustflagsPath    = tomldoc.MustParsePath("build.rustflags")
)

type (
	// depOptMutator edits the dev profile opt-levels in the manifest.
	depOptMutator struct{ opts Options }

	// codegenMutator adds or removes the profile codegen-backend key.
	codegenMutator struct{ opts Options }

	// parallelMutator adds or removes the frontend thread flags in build.rustflags.
	parallelMutator struct{ opts Options }

	// linkerMutator comments or uncomments the linker template entries of the
	// target table.
	linkerMutator struct{ opts Options }
)

func (m depOptMutator) file() string { return m.opts.Manifest }

// holds treats a missing opt-level as 0, which is cargo's dev default. A
// non-integer level ("s", "z") matches neither state.
func (m depOptMutator) holds(doc *tomldoc.Document, on bool) (bool, error) {
	main, mainOK := optLevel(doc, mainOptLevelPath)
	deps, depsOK := optLevel(doc, depsOptLevelPath)
	if !mainOK || !depsOK {
		return false, nil
	}
	if on {
		return main == m.opts.MainOptLevel && deps == m.opts.DepsOptLevel, nil
	}
	return main == 0 && deps == 0, nil
}

func (m depOptMutator) apply(doc *tomldoc.Document, on bool) error {
	main, deps := int64(0), int64(0)
	if on {
		main, deps = m.opts.MainOptLevel, m.opts.DepsOptLevel
	}
	if err := doc.Set(mainOptLevelPath, main); err != nil {
		return err
	}
	return doc.Set(depsOptLevelPath, deps)
}

func optLevel(doc *tomldoc.Document, path tomldoc.Path) (int64, bool) {
	if !doc.Has(path) {
		return 0, true
	}
	return doc.Int(path)
}

func (m codegenMutator) file() string { return m.opts.BuildConfig }

func (m codegenMutator) path() tomldoc.Path {
	return tomldoc.Path{"profile", m.opts.CodegenProfile, "codegen-backend"}
}

func (m codegenMutator) holds(doc *tomldoc.Document, on bool) (bool, error) {
	return doc.Has(m.path()) == on, nil
}

func (m codegenMutator) apply(doc *tomldoc.Document, on bool) error {
	if on {
		return doc.Set(m.path(), m.opts.CodegenBackend)
	}
	return doc.Remove(m.path())
}

func (m parallelMutator) file() string { return m.opts.BuildConfig }

func (m parallelMutator) holds(doc *tomldoc.Document, on bool) (bool, error) {
	return doc.Has(rustflagsPath) == on, nil
}

func (m parallelMutator) apply(doc *tomldoc.Document, on bool) error {
	if on {
		return doc.Set(rustflagsPath, []string{"-Z", fmt.Sprintf("threads=%d", m.opts.FrontendThreads)})
	}
	return doc.Remove(rustflagsPath)
}

func (m linkerMutator) file() string { return m.opts.BuildConfig }

func (m linkerMutator) table() tomldoc.Path {
	return tomldoc.Path{"target", m.opts.LinkerTarget}
}

// holds requires both template entries to agree. A template may omit
// rustflags, so on holds with an active linker and no disabled rustflags, and
// off holds with neither entry active. A half-edited table matches neither
// state and the next apply completes it.
func (m linkerMutator) holds(doc *tomldoc.Document, on bool) (bool, error) {
	linker, rustflags := m.table().Join("linker"), m.table().Join("rustflags")
	if !doc.Has(linker) && !doc.Commented(linker) {
		return false, fmt.Errorf("%w: no active or commented %s", ErrTemplateMissing, linker)
	}
	if on {
		return doc.Has(linker) && !doc.Commented(rustflags), nil
	}
	return !doc.Has(linker) && !doc.Has(rustflags), nil
}

func (m linkerMutator) apply(doc *tomldoc.Document, on bool) error {
	entries := []tomldoc.Path{m.table().Join("linker"), m.table().Join("rustflags")}
	for _, p := range entries {
		if on {
			if !doc.Commented(p) {
				continue
			}
			if err := doc.Uncomment(p); err != nil {
				return err
			}
			continue
		}
		if err := doc.CommentOut(p); err != nil {
			return err
		}
	}
	return nil
}
