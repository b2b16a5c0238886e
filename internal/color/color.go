package color

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	// Success renders passed results.
	Success = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1B7F3B", Dark: "#4ADE80"}).Bold(true)
	// Failure renders failed results.
	Failure = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B42318", Dark: "#F87171"}).Bold(true)
	// Warning renders errored results and warnings.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B54708", Dark: "#FBBF24"})
	// Muted renders skipped results and secondary detail.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#667085", Dark: "#9CA3AF"})
	// Title renders headings.
	Title = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Initialize sets the background the adaptive colors are chosen for.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Configure selects the color profile for w. Writers that are not a
// terminal, and NO_COLOR, get plain text.
func Configure(w io.Writer) {
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}
