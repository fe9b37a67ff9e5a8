package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ddownloader/ddclient/internal/messages"
	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/utils"
	"github.com/ddownloader/ddclient/internal/wizard"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.TasksLoadedMsg:
		if !m.grid.Apply(msg.Gen, msg.Page, msg.Err) {
			m.logger.Debug("dropping stale task listing", "gen", msg.Gen, "current", m.grid.Generation())
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Error("failed to load tasks", "err", msg.Err)
		}
		return m, nil

	case messages.RefreshTickMsg:
		var cmds []tea.Cmd
		// a slow backend is not stacked with polls
		if !m.grid.Refreshing() {
			cmds = append(cmds, m.fetchTasksCmd(m.grid.BeginFetch()))
		}
		cmds = append(cmds, m.scheduleRefresh())
		return m, tea.Batch(cmds...)

	case messages.MetadataMsg:
		if !m.wizard.ResolveMetadata(msg.Token, msg.Meta, msg.Err) {
			m.logger.Debug("dropping stale metadata", "url", msg.URL, "token", msg.Token)
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Warn("metadata fetch failed", "url", msg.URL, "err", msg.Err)
			return m, nil
		}
		m.nameInput.SetValue(m.wizard.FileName())
		m.nameInput.CursorEnd()
		cmds := []tea.Cmd{m.nameInput.Focus()}
		if meta := m.wizard.Metadata(); m.previewEnabled() && preview.ShouldPreview(*meta) {
			cmds = append(cmds, m.fetchPreviewCmd(msg.Token, *meta))
		}
		return m, tea.Batch(cmds...)

	case messages.PreviewMsg:
		if msg.Token != m.wizard.Token() {
			return m, nil
		}
		m.preview, m.previewErr = msg.Preview, msg.Err
		if msg.Err != nil {
			m.logger.Debug("preview unavailable", "err", msg.Err)
		}
		return m, nil

	case messages.TaskQueuedMsg:
		if msg.Token != m.wizard.Token() || m.wizard.State() != wizard.Queued {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Error("failed to queue task", "url", m.wizard.URL(), "err", msg.Err)
			m.wizard.Reject(msg.Err)
			cmd := m.nameInput.Focus()
			return m, cmd
		}
		path := m.wizard.FileName()
		if msg.Task != nil {
			path = msg.Task.TargetPath
		}
		m.closeWizard()
		notifyCmd := m.notify("Queued " + path)
		fetchCmd := m.fetchTasksCmd(m.grid.BeginFetch())
		return m, tea.Batch(notifyCmd, fetchCmd)

	case messages.HookResultMsg:
		if msg.Err == nil {
			cmd := m.notify(fmt.Sprintf("%s requested for task %d", capitalize(msg.Action), msg.TaskID))
			return m, cmd
		}
		// the detail view renders from the listing when the backend has nothing more
		if msg.Action == ActionDetails && errors.Is(msg.Err, ErrNotSupported) {
			return m, nil
		}
		cmd := m.notify(fmt.Sprintf("%s: %v", capitalize(msg.Action), msg.Err))
		return m, cmd

	case messages.NotificationExpiredMsg:
		if msg.Gen == m.notificationGen {
			m.notification = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case DashboardState:
			return m.updateDashboard(msg)
		case InputState:
			return m.updateWizard(msg)
		case DetailState:
			return m.updateDetail(msg)
		case SettingsState:
			return m.updateSettings(msg)
		}
	}

	return m, nil
}

func (m RootModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DashboardKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, DashboardKeys.Add):
		cmd := m.openWizard()
		return m, cmd
	case key.Matches(msg, DashboardKeys.Refresh):
		cmd := m.fetchTasksCmd(m.grid.BeginFetch())
		return m, cmd
	case key.Matches(msg, DashboardKeys.Up):
		m.grid.MoveUp()
	case key.Matches(msg, DashboardKeys.Down):
		m.grid.MoveDown()
	case key.Matches(msg, DashboardKeys.Details):
		if task := m.grid.Selected(); task != nil {
			m.state = DetailState
			return m, m.runHookCmd(ActionDetails, *task)
		}
	case key.Matches(msg, DashboardKeys.Pause):
		if task := m.grid.Selected(); task != nil {
			return m, m.runHookCmd(ActionPause, *task)
		}
	case key.Matches(msg, DashboardKeys.Abort):
		if task := m.grid.Selected(); task != nil {
			return m, m.runHookCmd(ActionAbort, *task)
		}
	case key.Matches(msg, DashboardKeys.Settings):
		m.state = SettingsState
		m.settingsTab, m.settingsRow = 0, 0
	case key.Matches(msg, DashboardKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m RootModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	task := m.grid.Selected()
	switch {
	case key.Matches(msg, DetailKeys.Close) || task == nil:
		m.state = DashboardState
	case key.Matches(msg, DetailKeys.Pause):
		return m, m.runHookCmd(ActionPause, *task)
	case key.Matches(msg, DetailKeys.Abort):
		return m, m.runHookCmd(ActionAbort, *task)
	}
	return m, nil
}

func (m RootModel) updateWizard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, WizardKeys.Quit) {
		return m, tea.Quit
	}

	switch m.wizard.State() {
	case wizard.EnterURL:
		switch {
		case key.Matches(msg, WizardKeys.Back):
			m.closeWizard()
			return m, nil
		case key.Matches(msg, WizardKeys.Submit):
			m.wizard.SetURL(m.urlInput.Value())
			req, ok := m.wizard.Submit()
			if !ok {
				return m, nil
			}
			m.urlInput.Blur()
			m.preview, m.previewErr = nil, nil
			return m, m.fetchMetadataCmd(req)
		}
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(msg)
		m.wizard.SetURL(m.urlInput.Value())
		return m, cmd

	case wizard.Loading, wizard.MetadataFailed:
		if key.Matches(msg, WizardKeys.Back) || (m.wizard.State() == wizard.MetadataFailed && key.Matches(msg, WizardKeys.Submit)) {
			cmd := m.backToURL()
			return m, cmd
		}

	case wizard.MetadataReady:
		switch {
		case key.Matches(msg, WizardKeys.Back):
			cmd := m.backToURL()
			return m, cmd
		case key.Matches(msg, WizardKeys.Submit):
			m.wizard.SetFileName(m.nameInput.Value())
			req, err := m.wizard.Confirm()
			if err != nil {
				return m, nil
			}
			m.nameInput.Blur()
			return m, m.queueTaskCmd(m.wizard.Token(), req)
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		m.wizard.SetFileName(m.nameInput.Value())
		return m, cmd
	}

	return m, nil
}

// openWizard starts a fresh add-task session, prefilling the URL from the
// clipboard when enabled and the clipboard holds a URL.
func (m *RootModel) openWizard() tea.Cmd {
	m.wizard.Reset()
	m.preview, m.previewErr = nil, nil
	m.urlInput.SetValue("")
	m.nameInput.SetValue("")
	m.nameInput.Blur()

	if m.settings.General.ClipboardPrefill && m.readClip != nil {
		if text, err := m.readClip(); err == nil && utils.IsValidHTTPURL(text) {
			m.urlInput.SetValue(strings.TrimSpace(text))
			m.urlInput.CursorEnd()
			m.wizard.SetURL(m.urlInput.Value())
		}
	}

	m.state = InputState
	return m.urlInput.Focus()
}

func (m *RootModel) closeWizard() {
	m.wizard.Reset()
	m.urlInput.Blur()
	m.nameInput.Blur()
	m.preview, m.previewErr = nil, nil
	m.state = DashboardState
}

func (m *RootModel) backToURL() tea.Cmd {
	m.wizard.Back()
	m.nameInput.Blur()
	m.preview, m.previewErr = nil, nil
	return m.urlInput.Focus()
}

func (m RootModel) previewEnabled() bool {
	return m.fetcher != nil && m.settings.General.Preview
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
