// SPDX-License-Identifier: MPL-2.0

package knob

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownKnob is the sentinel error wrapped by UnknownKnobError.
var ErrUnknownKnob = errors.New("unknown knob")

type (
	// Knob is a binary build setting that can be switched on or off in a
	// project's Cargo configuration.
	Knob int

	// Set is a set of enabled knobs. The zero value is the baseline with every
	// knob off.
	Set uint8

	// UnknownKnobError is returned when a knob label is not recognized.
	UnknownKnobError struct {
		Label string
	}
)

const (
	// DependencyOpt raises the optimization level of the main package and of
	// every dependency in the dev profile.
	DependencyOpt Knob = iota
	// Codegen switches the server profile to an alternate code generator backend.
	Codegen
	// Linker activates the alternate linker entries of the target table.
	Linker
	// Parallel enables the parallel compiler frontend through rustflags.
	Parallel

	knobCount
)

var (
	labels = [knobCount]string{
		DependencyOpt: "o3",
		Codegen:       "cranelift",
		Linker:        "mold",
		Parallel:      "parallel",
	}

	descriptions = [knobCount]string{
		DependencyOpt: "aggressive dependency optimization",
		Codegen:       "alternate code generator",
		Linker:        "alternate linker",
		Parallel:      "parallel compiler frontend",
	}
)

// Error implements the error interface.
func (e *UnknownKnobError) Error() string {
	return fmt.Sprintf("unknown knob %q (valid: %s)", e.Label, strings.Join(Labels(), ", "))
}

// Unwrap returns ErrUnknownKnob so callers can use errors.Is for programmatic detection.
func (e *UnknownKnobError) Unwrap() error { return ErrUnknownKnob }

// All returns every knob in canonical order.
func All() []Knob {
	return []Knob{DependencyOpt, Codegen, Linker, Parallel}
}

// Labels returns the label of every knob in canonical order.
func Labels() []string {
	return slices.Clone(labels[:])
}

// Parse returns the knob with the given label.
func Parse(label string) (Knob, error) {
	for k, l := range labels {
		if l == label {
			return Knob(k), nil
		}
	}
	return 0, &UnknownKnobError{Label: label}
}

// IsValid reports whether k is one of the defined knobs.
func (k Knob) IsValid() bool { return k >= 0 && k < knobCount }

// String returns the knob label used in result file names, e.g. "mold".
func (k Knob) String() string {
	if !k.IsValid() {
		return fmt.Sprintf("knob(%d)", int(k))
	}
	return labels[k]
}

// Description returns a human-readable name for the knob.
func (k Knob) Description() string {
	if !k.IsValid() {
		return k.String()
	}
	return descriptions[k]
}

// NewSet returns the set holding ks.
func NewSet(ks ...Knob) Set {
	var s Set
	for _, k := range ks {
		s = s.With(k)
	}
	return s
}

// ParseSet parses the canonical "_"-joined form produced by Set.String. The
// empty string and "baseline" denote the empty set. Labels may appear in any
// order.
func ParseSet(s string) (Set, error) {
	if s == "" || s == "baseline" {
		return 0, nil
	}
	var set Set
	for label := range strings.SplitSeq(s, "_") {
		k, err := Parse(label)
		if err != nil {
			return 0, err
		}
		set = set.With(k)
	}
	return set, nil
}

// Has reports whether k is in the set.
func (s Set) Has(k Knob) bool { return k.IsValid() && s&(1<<k) != 0 }

// With returns the set with k added.
func (s Set) With(k Knob) Set {
	if !k.IsValid() {
		return s
	}
	return s | 1<<k
}

// Without returns the set with k removed.
func (s Set) Without(k Knob) Set {
	if !k.IsValid() {
		return s
	}
	return s &^ (1 << k)
}

// Len returns the number of knobs in the set.
func (s Set) Len() int { return len(s.Knobs()) }

// Knobs returns the members of the set in canonical order.
func (s Set) Knobs() []Knob {
	var out []Knob
	for _, k := range All() {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// IsBaseline reports whether no knob is enabled.
func (s Set) IsBaseline() bool { return s == 0 }

// String joins the member labels with "_" in canonical order, e.g.
// "o3_cranelift_mold". The baseline renders as the empty string.
func (s Set) String() string {
	ks := s.Knobs()
	parts := make([]string, len(ks))
	for i, k := range ks {
		parts[i] = k.String()
	}
	return strings.Join(parts, "_")
}
