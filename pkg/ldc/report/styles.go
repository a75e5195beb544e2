package report

import "github.com/charmbracelet/lipgloss"

// ANSI 256-color palette shared by the pretty formatter and the progress view.
const (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

var (
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	SuccessStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	DangerStyle   = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	AddedStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	DeletedStyle  = lipgloss.NewStyle().Foreground(ColorDanger)
	ModifiedStyle = lipgloss.NewStyle().Foreground(ColorWarning)
)
