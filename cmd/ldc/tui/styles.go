// Package tui renders the interactive scan progress view.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#28A745")
	warningColor = lipgloss.Color("#FFC107")
	dangerColor  = lipgloss.Color("#DC3545")
	mutedColor   = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#333333")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedTextStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	errorTextStyle   = lipgloss.NewStyle().Foreground(dangerColor)
	successTextStyle = lipgloss.NewStyle().Foreground(successColor)
	warningTextStyle = lipgloss.NewStyle().Foreground(warningColor)
	dividerStyle     = lipgloss.NewStyle().Foreground(borderColor)

	statsLabelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	statsValueStyle = lipgloss.NewStyle().Bold(true)
)
