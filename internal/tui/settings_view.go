package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ddownloader/ddclient/internal/config"
)

var (
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true).
			Underline(true).
			Padding(0, 1)
)

// viewSettings renders the effective configuration. Editing happens in the
// settings file or through `ddclient config`.
func (m RootModel) viewSettings() string {
	width := 70
	height := 16
	if m.width < width+4 {
		width = m.width - 4
	}
	if m.height < height+4 {
		height = m.height - 4
	}

	categories := config.CategoryOrder()
	metas := config.GetSettingsMetadata()[categories[m.settingsTab]]
	values := m.settings.Values()

	var tabItems []string
	for i, cat := range categories {
		label := fmt.Sprintf("[%d] %s", i+1, cat)
		if i == m.settingsTab {
			tabItems = append(tabItems, ActiveTabStyle.Render(label))
		} else {
			tabItems = append(tabItems, TabStyle.Render(label))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabItems...)

	leftWidth := 22
	rightWidth := width - leftWidth - 5

	var listLines []string
	for i, meta := range metas {
		if i == m.settingsRow {
			listLines = append(listLines, lipgloss.NewStyle().Foreground(ColorNeonPink).Bold(true).Render("> "+meta.Label))
		} else {
			listLines = append(listLines, lipgloss.NewStyle().Foreground(ColorLightGray).Render("  "+meta.Label))
		}
	}
	listBox := lipgloss.NewStyle().Width(leftWidth).Render(lipgloss.JoinVertical(lipgloss.Left, listLines...))

	separator := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render(strings.TrimSuffix(strings.Repeat("│\n", len(metas)), "\n"))

	var rightContent string
	if m.settingsRow < len(metas) {
		meta := metas[m.settingsRow]
		valueDisplay := lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true).
			Render("Value: " + formatSettingValue(meta.Key, values[meta.Key]))
		descDisplay := lipgloss.NewStyle().
			Foreground(ColorGray).
			Width(rightWidth - 2).
			Render(meta.Description)
		rightContent = valueDisplay + "\n\n" + descDisplay
	}
	rightBox := lipgloss.NewStyle().Width(rightWidth).PaddingLeft(1).Render(rightContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listBox, separator, rightBox)

	fullContent := lipgloss.JoinVertical(lipgloss.Left,
		tabBar,
		"",
		content,
		"",
		HintStyle.Render("env: DDCLIENT_"+strings.ToUpper(strings.ReplaceAll(m.selectedSettingKey(), ".", "_"))),
		m.help.View(SettingsKeys),
	)

	box := renderBtopBox("Settings", fullContent, width, height, ColorNeonPink, false)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m RootModel) selectedSettingKey() string {
	metas := config.GetSettingsMetadata()[config.CategoryOrder()[m.settingsTab]]
	if m.settingsRow < len(metas) {
		return metas[m.settingsRow].Key
	}
	return ""
}

func (m RootModel) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	categories := config.CategoryOrder()
	switch {
	case key.Matches(msg, SettingsKeys.Close):
		m.state = DashboardState
	case key.Matches(msg, SettingsKeys.Tab):
		m.settingsTab = (m.settingsTab + 1) % len(categories)
		m.settingsRow = 0
	case key.Matches(msg, SettingsKeys.Up):
		if m.settingsRow > 0 {
			m.settingsRow--
		}
	case key.Matches(msg, SettingsKeys.Down):
		if m.settingsRow < len(config.GetSettingsMetadata()[categories[m.settingsTab]])-1 {
			m.settingsRow++
		}
	default:
		// number keys jump to a category
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(categories) {
			m.settingsTab = int(s[0] - '1')
			m.settingsRow = 0
		}
	}
	return m, nil
}

// formatSettingValue formats a setting value for display
func formatSettingValue(settingKey string, value any) string {
	if settingKey == "general.theme" {
		switch value {
		case config.ThemeLight:
			return "Light"
		case config.ThemeDark:
			return "Dark"
		default:
			return "System"
		}
	}

	switch v := value.(type) {
	case nil:
		return "-"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case time.Duration:
		if v == 0 {
			return "disabled"
		}
		return v.String()
	case string:
		if v == "" {
			return "(empty)"
		}
		return v
	}
	return fmt.Sprintf("%v", value)
}
