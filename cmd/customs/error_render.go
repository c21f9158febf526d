// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/customs-bench/customs/internal/bench"
	"github.com/customs-bench/customs/internal/config"
	"github.com/customs-bench/customs/internal/issue"
	"github.com/customs-bench/customs/internal/knob"
	"github.com/customs-bench/customs/internal/matrix"
)

// classifyError maps a failure to the catalog page that explains it. An
// issue already attached to an ActionableError wins.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	switch {
	case errors.Is(err, bench.ErrProcessLaunch) && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)):
		return issue.HyperfineNotFoundId
	case errors.Is(err, bench.ErrProcessExit):
		return issue.BenchmarkFailedId
	case errors.Is(err, knob.ErrTemplateMissing):
		return issue.LinkerTemplateMissingId
	case errors.Is(err, knob.ErrMalformedConfig):
		return issue.MalformedConfigId
	case errors.Is(err, knob.ErrConfigUnreadable):
		return issue.ProjectNotFoundId
	case errors.Is(err, knob.ErrUnknownKnob):
		return issue.UnknownKnobId
	case errors.Is(err, matrix.ErrDuplicateState), errors.Is(err, matrix.ErrEmptyPlan), errors.Is(err, matrix.ErrUnknownPlan):
		return issue.InvalidPlanId
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigNotFound):
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

// formatErrorForDisplay uses ActionableError.Format when available. In
// verbose mode the full error chain is shown.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError prints err and, when one applies, the matching issue page to
// the command's stderr. It returns an *ExitError so handlers can return its
// result directly.
func (a *App) renderError(cmd *cobra.Command, err error, scheme config.ColorScheme) error {
	cmd.SilenceErrors = true
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.verbose))

	if id := classifyError(err); id != 0 {
		if page := issue.Get(id); page != nil {
			rendered, renderErr := page.Render(glamourStyle(scheme))
			if renderErr != nil {
				log.Warn("failed to render issue page", "issue", id, "error", renderErr)
			} else {
				fmt.Fprint(w, rendered)
			}
		}
	}
	return &ExitError{Code: 1, Err: err}
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(scheme)
	default:
		return "auto"
	}
}
