package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/muesli/termenv"
)

const (
	EnvNoColor = "NO_COLOR"
	EnvTheme   = "HOSTRELAY_THEME"
)

// For mocking in tests
var lookupEnv = os.LookupEnv

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"})

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"})
)

// Initialize sets whether the terminal has a dark background.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Setup applies NO_COLOR and HOSTRELAY_THEME.
func Setup() {
	if _, ok := lookupEnv(EnvNoColor); ok {
		lipgloss.SetColorProfile(termenv.Ascii)
		text.DisableColors()
	}
	if theme, ok := lookupEnv(EnvTheme); ok {
		switch strings.ToLower(strings.TrimSpace(theme)) {
		case "dark":
			Initialize(true)
		case "light":
			Initialize(false)
		}
	}
}
