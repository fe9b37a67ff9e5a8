package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
	"github.com/ddownloader/ddclient/internal/wizard"
)

func (m RootModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// === Modal states replace the dashboard ===

	if m.state == InputState {
		box := renderBtopBox(fmt.Sprintf("Add Task (%d/2)", m.wizard.State().Step()), m.wizardContent(), WizardWidth, WizardHeight, ColorNeonPink, false)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	if m.state == SettingsState {
		return m.viewSettings()
	}

	if m.state == DetailState {
		if task := m.grid.Selected(); task != nil {
			box := renderBtopBox("Task Details", renderTaskDetails(*task, m.bar, DetailWidth-4), DetailWidth, DetailHeight, ColorNeonPurple, false)
			return lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, box),
				m.footer(DetailKeys),
			)
		}
	}

	// === MAIN DASHBOARD LAYOUT ===

	availableWidth := m.width - 2
	header := m.renderHeader(availableWidth)
	footer := m.footer(DashboardKeys)

	gridHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if gridHeight < CardHeight+2 {
		gridHeight = CardHeight + 2
	}
	gridBox := renderBtopBox("Tasks", m.renderGrid(availableWidth-2, gridHeight-2), availableWidth, gridHeight, ColorNeonPink, true)

	return lipgloss.JoinVertical(lipgloss.Left, header, gridBox, footer)
}

func (m RootModel) renderHeader(width int) string {
	counts := m.grid.CountByStatus()
	stats := fmt.Sprintf("%d tasks  %d running  %d queued  %d paused  %d done  %d failed",
		m.grid.TotalCount,
		counts[types.StatusRunning],
		counts[types.StatusQueued],
		counts[types.StatusPaused],
		counts[types.StatusDone],
		counts[types.StatusError],
	)
	if m.grid.Refreshing() && m.grid.State != GridLoading {
		stats += "  " + m.spinner.View()
	}

	title := LogoStyle.Render("ddclient") + HintStyle.Render("  "+m.settings.Server.BaseURL)
	return lipgloss.NewStyle().Width(width).Padding(0, 1).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, HeaderStatsStyle.Render(stats)),
	)
}

// renderGrid renders the cards that fit in height, keeping the cursor visible.
func (m RootModel) renderGrid(width, height int) string {
	switch m.grid.State {
	case GridLoading:
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading tasks...")
	case GridFailed:
		msg := "Could not load tasks"
		if m.grid.Err != nil {
			msg += ": " + m.grid.Err.Error()
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				ErrorTextStyle.Render(truncateString(msg, width-6)),
				HintStyle.Render("[r] retry"),
			))
	}

	if len(m.grid.Tasks) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(ColorNeonCyan).Render("No tasks. Press [a] to add one."))
	}

	visible := height / CardHeight
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.grid.Cursor() >= visible {
		start = m.grid.Cursor() - visible + 1
	}
	end := min(start+visible, len(m.grid.Tasks))

	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		cards = append(cards, renderTaskCard(m.grid.Tasks[i], m.bar, width-2, i == m.grid.Cursor()))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, cards...))
}

func (m RootModel) footer(keys help.KeyMap) string {
	if m.notification != "" {
		return lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, NotificationStyle.Render(m.notification))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(keys))
}

func (m RootModel) wizardContent() string {
	labelStyle := lipgloss.NewStyle().Width(12).Foreground(ColorLightGray)
	w := m.wizard

	var lines []string
	lines = append(lines, "",
		lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render("URL:"), m.urlInput.View()))

	switch w.State() {
	case wizard.EnterURL:
		if w.URLError != nil {
			lines = append(lines, "", ErrorTextStyle.Render(w.URLError.Error()))
		} else {
			lines = append(lines, "", HintStyle.Render("Paste or type the address of the file to download."))
		}

	case wizard.Loading:
		lines = append(lines, "", m.spinner.View()+" Fetching metadata...")

	case wizard.MetadataFailed:
		lines = append(lines, "",
			ErrorTextStyle.Render("Could not fetch metadata"),
			HintStyle.Render(truncateString(errString(w.FetchError), WizardWidth-10)),
			"",
			HintStyle.Render("Go back to change the URL."))

	case wizard.MetadataReady, wizard.Queued:
		meta := w.Metadata()
		lines = append(lines, "",
			lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render("Size:"), StatsValueStyle.Render(utils.FormatBytes(meta.ContentLength))),
			lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render("Type:"), StatsValueStyle.Render(orDash(meta.ContentType))),
			lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render("Preview:"), StatsValueStyle.Render(m.previewLine(meta))),
			"",
			lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render("File name:"), m.nameInput.View()),
		)
		switch {
		case w.State() == wizard.Queued:
			lines = append(lines, "", m.spinner.View()+" Queuing...")
		case w.SubmitError != nil:
			lines = append(lines, "", ErrorTextStyle.Render(truncateString(w.SubmitError.Error(), WizardWidth-10)))
		}
	}

	lines = append(lines, "", m.help.View(WizardKeys))
	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m RootModel) previewLine(meta *types.URLMetadata) string {
	switch {
	case !preview.ShouldPreview(*meta):
		return "not an image, or larger than 10 MiB"
	case !m.previewEnabled():
		return "disabled"
	case m.previewErr != nil:
		return "preview unavailable"
	case m.preview == nil:
		return m.spinner.View() + " sniffing..."
	}
	return m.preview.Summary()
}

func renderTaskDetails(task types.Task, bar progress.Model, w int) string {
	contentWidth := w - 6

	divider := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render(strings.Repeat("─", contentWidth))

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render(label), StatsValueStyle.Render(truncateString(value, contentWidth-16)))
	}

	info := lipgloss.JoinVertical(lipgloss.Left,
		row("ID:", fmt.Sprintf("%d", task.ID)),
		row("Target:", task.TargetPath),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Status:"), renderStatusBadge(task.Status)),
		row("Size:", utils.FormatProgress(task.DownloadedSize, task.TotalSize)),
	)

	bar.Width = contentWidth
	progressSection := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(ColorNeonCyan).Bold(true).Render("Progress"),
		"",
		bar.ViewAs(utils.ProgressFraction(task.DownloadedSize, task.TotalSize)),
	)

	extra := []string{row("URL:", orDash(task.URL)), row("Hash:", orDash(task.FileHash))}
	if task.ErrMessage != "" {
		extra = append(extra, lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Error:"), ErrorTextStyle.Render(truncateString(task.ErrMessage, contentWidth-16))))
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		"",
		info,
		divider,
		"",
		progressSection,
		divider,
		"",
		lipgloss.JoinVertical(lipgloss.Left, extra...),
	))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// renderBtopBox creates a btop-style box with title embedded in the top border
// titleRight: if true, title appears on the right side; if false, on the left
// Example (left):  ╭─ TITLE ─────────────────────────────────╮
// Example (right): ╭─────────────────────────────────── TITLE ─╮
func renderBtopBox(title string, content string, width, height int, borderColor lipgloss.TerminalColor, titleRight bool) string {
	const (
		topLeft     = "╭"
		topRight    = "╮"
		bottomLeft  = "╰"
		bottomRight = "╯"
		horizontal  = "─"
		vertical    = "│"
	)

	innerWidth := width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(ColorNeonCyan).Bold(true)

	titleText := fmt.Sprintf(" %s ", title)
	remainingWidth := innerWidth - lipgloss.Width(titleText) - 1
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	var topBorder string
	if titleRight {
		topBorder = borderStyle.Render(topLeft+strings.Repeat(horizontal, remainingWidth)) +
			titleStyle.Render(titleText) +
			borderStyle.Render(horizontal+topRight)
	} else {
		topBorder = borderStyle.Render(topLeft+horizontal) +
			titleStyle.Render(titleText) +
			borderStyle.Render(strings.Repeat(horizontal, remainingWidth)+topRight)
	}

	bottomBorder := borderStyle.Render(bottomLeft + strings.Repeat(horizontal, innerWidth) + bottomRight)

	contentLines := strings.Split(content, "\n")
	innerHeight := height - 2

	wrappedLines := make([]string, 0, innerHeight)
	for i := 0; i < innerHeight; i++ {
		line := ""
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lineWidth := lipgloss.Width(line)
		if lineWidth < innerWidth {
			line += strings.Repeat(" ", innerWidth-lineWidth)
		} else if lineWidth > innerWidth {
			line = ansi.Truncate(line, innerWidth, "")
		}
		wrappedLines = append(wrappedLines, borderStyle.Render(vertical)+line+borderStyle.Render(vertical))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		topBorder,
		strings.Join(wrappedLines, "\n"),
		bottomBorder,
	)
}
