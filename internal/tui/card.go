package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
)

// renderTaskCard renders one task: path and status, a progress bar, and
// the "x of y (p%)" line.
func renderTaskCard(task types.Task, bar progress.Model, width int, selected bool) string {
	if width < MinCardWidth {
		width = MinCardWidth
	}
	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	// border (2) + padding (2)
	inner := width - 4

	status := renderStatusBadge(task.Status)
	pathWidth := inner - lipgloss.Width(status) - 1
	title := lipgloss.JoinHorizontal(lipgloss.Left,
		CardTitleStyle.Width(pathWidth).Render(truncateString(task.TargetPath, pathWidth-3)),
		" ",
		status,
	)

	bar.Width = inner - ProgressBarMargin
	barView := bar.ViewAs(utils.ProgressFraction(task.DownloadedSize, task.TotalSize))

	stats := CardStatsStyle.Render(utils.FormatProgress(task.DownloadedSize, task.TotalSize))

	return style.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, title, barView, stats))
}

func renderStatusBadge(status types.TaskStatus) string {
	style := lipgloss.NewStyle()

	switch status {
	case types.StatusError:
		return style.Foreground(ColorStateError).Render("✖ " + status.Label())
	case types.StatusDone:
		return style.Foreground(ColorStateDone).Render("✔ " + status.Label())
	case types.StatusPaused:
		return style.Foreground(ColorStatePaused).Render("⏸ " + status.Label())
	case types.StatusRunning:
		return style.Foreground(ColorStateDownloading).Render("⬇ " + status.Label())
	default:
		return style.Foreground(ColorStateQueued).Render("o " + status.Label())
	}
}

// truncateString shortens s to at most i runes plus an ellipsis.
func truncateString(s string, i int) string {
	if i < 1 {
		i = 1
	}
	runes := []rune(s)
	if len(runes) > i {
		return string(runes[:i]) + "..."
	}
	return s
}
