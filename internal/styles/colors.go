package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/duomark/internal/state"
)

// Monokai Pro color palette
const (
	// Base colors
	Background = "#2D2A2E"
	Foreground = "#FCFCFA"

	// Accent colors
	Red     = "#FF6188" // Errors, failed syncs
	Orange  = "#FC9867" // Debouncing
	Yellow  = "#FFD866" // Applying
	Green   = "#A9DC76" // Applied
	Cyan    = "#78DCE8" // Unchanged
	Magenta = "#AB9DF2" // Titles

	// UI colors
	Comment = "#727072" // Dim text, help
	Border  = "#5B595C" // Borders, separators
)

// Common styles
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Magenta))
	LabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Foreground))
	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Magenta))
	HelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))

	PaneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border)).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(Magenta))
)

// Phase renders a sync phase badge
func Phase(p state.Phase) string {
	switch p {
	case state.PhaseDebouncing:
		return WarningStyle.Render("◌ debouncing")
	case state.PhaseApplying:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true).Render("● applying")
	default:
		return DimStyle.Render("○ idle")
	}
}

// Outcome renders the result of a sync attempt
func Outcome(o state.Outcome) string {
	switch o {
	case state.OutcomeApplied:
		return SuccessStyle.Render("✓ applied")
	case state.OutcomeUnchanged:
		return InfoStyle.Render("= unchanged")
	case state.OutcomeSkipped:
		return DimStyle.Render("- skipped")
	case state.OutcomeFailed:
		return ErrorStyle.Render("✗ failed")
	}
	return string(o)
}
