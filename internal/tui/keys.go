package tui

import "github.com/charmbracelet/bubbles/key"

// DashboardKeyMap defines the keys of the task grid
type DashboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Add      key.Binding
	Refresh  key.Binding
	Details  key.Binding
	Pause    key.Binding
	Abort    key.Binding
	Settings key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// WizardKeyMap defines the keys of the add-task wizard
type WizardKeyMap struct {
	Submit key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// SettingsKeyMap defines the keys of the read-only settings page
type SettingsKeyMap struct {
	Tab   key.Binding
	Up    key.Binding
	Down  key.Binding
	Close key.Binding
}

// DetailKeyMap defines the keys of the task detail view
type DetailKeyMap struct {
	Pause key.Binding
	Abort key.Binding
	Close key.Binding
}

var DashboardKeys = DashboardKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Add: key.NewBinding(
		key.WithKeys("a", "g"),
		key.WithHelp("a", "add"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Details: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Abort: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "abort"),
	),
	Settings: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "settings"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var WizardKeys = WizardKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "next"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

var SettingsKeys = SettingsKeyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab", "left", "right", "h", "l"),
		key.WithHelp("tab", "category"),
	),
	Up:   DashboardKeys.Up,
	Down: DashboardKeys.Down,
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "s"),
		key.WithHelp("esc", "close"),
	),
}

var DetailKeys = DetailKeyMap{
	Pause: DashboardKeys.Pause,
	Abort: DashboardKeys.Abort,
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "enter"),
		key.WithHelp("esc", "close"),
	),
}

func (k DashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Refresh, k.Details, k.Help, k.Quit}
}

func (k DashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Details},
		{k.Add, k.Refresh},
		{k.Pause, k.Abort},
		{k.Settings, k.Help, k.Quit},
	}
}

func (k WizardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back, k.Quit}
}

func (k WizardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func (k DetailKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Abort, k.Close}
}

func (k DetailKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func (k SettingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Up, k.Down, k.Close}
}

func (k SettingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
