package tui

import "github.com/charmbracelet/lipgloss"

// Colors used in the watch TUI.
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#9CA3AF") // Light gray
)

// Styles holds the styles for the watch TUI.
type Styles struct {
	Title     lipgloss.Style
	Phase     lipgloss.Style
	Meta      lipgloss.Style
	Activity  lipgloss.Style
	Warning   lipgloss.Style
	Completed lipgloss.Style
	Failed    lipgloss.Style
	Cancelled lipgloss.Style
	Help      lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Phase: lipgloss.NewStyle().
			Bold(true),
		Meta: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Activity: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D1D5DB")),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Completed: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess),
		Failed: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),
		Cancelled: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning),
		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}
