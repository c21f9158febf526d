// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for descriptions and de-emphasized values.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle marks enabled knobs and written files.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error headlines.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command lines, knob labels and config keys.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// toggleOnStyle and toggleOffStyle render "+mold" and "-mold".
	toggleOnStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	toggleOffStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// stepIndexStyle right-aligns step numbers in plan listings.
	stepIndexStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(4).
			Align(lipgloss.Right)

	// labelColumnStyle pads state labels to a fixed column.
	labelColumnStyle = lipgloss.NewStyle().
				Foreground(ColorHighlight).
				Width(30)
)
