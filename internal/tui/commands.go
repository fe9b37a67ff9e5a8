package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ddownloader/ddclient/internal/messages"
	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/wizard"
)

// fetchTasksCmd lists the first page of tasks for grid generation gen.
func (m RootModel) fetchTasksCmd(gen uint64) tea.Cmd {
	svc, ctx, pageSize := m.service, m.ctx, m.settings.Server.PageSize
	return func() tea.Msg {
		page, err := svc.FetchTasksPage(ctx, 1, pageSize)
		return messages.TasksLoadedMsg{Gen: gen, Page: page, Err: err}
	}
}

// scheduleRefresh polls the task list while a refresh interval is configured.
func (m RootModel) scheduleRefresh() tea.Cmd {
	interval := m.settings.General.RefreshInterval
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return messages.RefreshTickMsg{}
	})
}

func (m RootModel) fetchMetadataCmd(req wizard.FetchRequest) tea.Cmd {
	svc, ctx := m.service, m.ctx
	return func() tea.Msg {
		meta, err := svc.GetURLMetadata(ctx, req.URL)
		return messages.MetadataMsg{Token: req.Token, URL: req.URL, Meta: meta, Err: err}
	}
}

func (m RootModel) fetchPreviewCmd(token uint64, meta types.URLMetadata) tea.Cmd {
	fetcher, ctx := m.fetcher, m.ctx
	return func() tea.Msg {
		p, err := fetcher.Fetch(ctx, meta)
		return messages.PreviewMsg{Token: token, Preview: p, Err: err}
	}
}

func (m RootModel) queueTaskCmd(token uint64, req types.TaskRequest) tea.Cmd {
	queue, ctx := m.hooks.Queue, m.ctx
	return func() tea.Msg {
		task, err := queue(ctx, req)
		return messages.TaskQueuedMsg{Token: token, Task: task, Err: err}
	}
}

func (m RootModel) runHookCmd(action string, task types.Task) tea.Cmd {
	hook, ctx := m.hooks.hook(action), m.ctx
	return func() tea.Msg {
		return messages.HookResultMsg{Action: action, TaskID: task.ID, Err: hook(ctx, task)}
	}
}

// notify shows text in the footer until NotificationDuration passes or a
// newer notification replaces it.
func (m *RootModel) notify(text string) tea.Cmd {
	m.notificationGen++
	m.notification = text
	gen := m.notificationGen
	return tea.Tick(NotificationDuration, func(time.Time) tea.Msg {
		return messages.NotificationExpiredMsg{Gen: gen}
	})
}
