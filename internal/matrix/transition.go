// SPDX-License-Identifier: MPL-2.0

package matrix

import "github.com/customs-bench/customs/internal/knob"

// Toggle is a single enable or disable call.
type Toggle struct {
	Knob knob.Knob
	On   bool
}

// String renders the toggle as "+mold" or "-mold".
func (t Toggle) String() string {
	if t.On {
		return "+" + t.Knob.String()
	}
	return "-" + t.Knob.String()
}

// Transition returns the toggles that move from one state to another: only
// knobs whose state differs, disables before enables, each group in knob
// order.
func Transition(from, to knob.Set) []Toggle {
	var toggles []Toggle
	for _, k := range knob.All() {
		if from.Has(k) && !to.Has(k) {
			toggles = append(toggles, Toggle{Knob: k, On: false})
		}
	}
	for _, k := range knob.All() {
		if !from.Has(k) && to.Has(k) {
			toggles = append(toggles, Toggle{Knob: k, On: true})
		}
	}
	return toggles
}
