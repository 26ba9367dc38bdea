// Package tui provides the Bubble Tea front end for the formstep CLI:
// an interactive terminal runner that walks a form definition slide by
// slide, validating and persisting as it goes.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for slide titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(24)

	// FocusedLabelStyle for the focused field's label.
	FocusedLabelStyle = lipgloss.NewStyle().
				Foreground(highlightColor).
				Bold(true).
				Width(24)

	// ValueStyle for entered values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// ErrorStyle for validation errors.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// SuccessStyle for the submission confirmation.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// BoxStyle for the slide container.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// ProgressStyle for the progress line under the slide.
	ProgressStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			MarginTop(1)

	// HelpStyle for the key binding help line.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)
