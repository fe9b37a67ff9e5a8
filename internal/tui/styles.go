package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ddownloader/ddclient/internal/config"
)

var (
	// Colors (Dracula on dark terminals, Alucard on light ones)
	ColorNeonPurple = lipgloss.AdaptiveColor{Light: "#644ac9", Dark: "#bd93f9"}
	ColorNeonPink   = lipgloss.AdaptiveColor{Light: "#a3144d", Dark: "#ff79c6"}
	ColorNeonCyan   = lipgloss.AdaptiveColor{Light: "#036a96", Dark: "#8be9fd"}
	ColorGray       = lipgloss.AdaptiveColor{Light: "#635d97", Dark: "#6272a4"}
	ColorLightGray  = lipgloss.AdaptiveColor{Light: "#1f1f1f", Dark: "#f8f8f2"}
	ColorBorder     = lipgloss.AdaptiveColor{Light: "#cfcfde", Dark: "#44475a"}

	// Task states
	ColorStateQueued      = lipgloss.AdaptiveColor{Light: "#846e15", Dark: "#f1fa8c"}
	ColorStateDownloading = lipgloss.AdaptiveColor{Light: "#036a96", Dark: "#8be9fd"}
	ColorStatePaused      = lipgloss.AdaptiveColor{Light: "#a34d14", Dark: "#ffb86c"}
	ColorStateError       = lipgloss.AdaptiveColor{Light: "#cb3a2a", Dark: "#ff5555"}
	ColorStateDone        = lipgloss.AdaptiveColor{Light: "#14710a", Dark: "#50fa7b"}

	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true)

	HeaderStatsStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Padding(DefaultPaddingY, DefaultPaddingX)

	// Card
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(DefaultPaddingY, DefaultPaddingX)

	SelectedCardStyle = CardStyle.
				BorderForeground(ColorNeonPink)

	CardTitleStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPurple).
			Bold(true)

	CardStatsStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	// Detail and wizard rows
	StatsLabelStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Width(14)

	StatsValueStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorStateError)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	NotificationStyle = lipgloss.NewStyle().
				Foreground(ColorNeonPink).
				Bold(true)
)

// ApplyTheme picks the light or dark palette. ThemeAdaptive asks the
// terminal for its background color.
func ApplyTheme(theme int) {
	switch theme {
	case config.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case config.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}
