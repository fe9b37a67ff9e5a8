package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/ddownloader/ddclient/internal/config"
	"github.com/ddownloader/ddclient/internal/core"
	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/wizard"
)

type UIState int

const (
	DashboardState UIState = iota
	InputState
	DetailState
	SettingsState
)

// PreviewFetcher fetches the image preview shown on wizard step 2.
type PreviewFetcher interface {
	Fetch(ctx context.Context, meta types.URLMetadata) (*preview.Preview, error)
}

// Options configure a RootModel. Zero values fall back to defaults.
type Options struct {
	Settings  *config.Settings
	Hooks     Hooks
	Preview   PreviewFetcher
	Clipboard func() (string, error)
	Logger    *log.Logger
}

type RootModel struct {
	ctx      context.Context
	service  core.TaskService
	hooks    Hooks
	fetcher  PreviewFetcher
	settings *config.Settings
	logger   *log.Logger
	readClip func() (string, error)

	width  int
	height int
	state  UIState

	grid TaskGrid
	bar  progress.Model

	wizard     *wizard.Wizard
	urlInput   textinput.Model
	nameInput  textinput.Model
	spinner    spinner.Model
	preview    *preview.Preview
	previewErr error

	settingsTab int
	settingsRow int

	help            help.Model
	notification    string
	notificationGen uint64
}

// NewRootModel builds the dashboard for svc.
func NewRootModel(ctx context.Context, svc core.TaskService, opts Options) RootModel {
	if ctx == nil {
		ctx = context.Background()
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com/file.zip"
	urlInput.Width = InputWidth
	urlInput.Prompt = ""

	nameInput := textinput.New()
	nameInput.Placeholder = "file name"
	nameInput.Width = InputWidth
	nameInput.Prompt = ""

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = s.Style.Foreground(ColorNeonPink)

	m := RootModel{
		ctx:       ctx,
		service:   svc,
		hooks:     opts.Hooks.withDefaults(svc),
		fetcher:   opts.Preview,
		settings:  settings,
		logger:    logger.WithPrefix("tui"),
		readClip:  opts.Clipboard,
		state:     DashboardState,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		wizard:    wizard.New(),
		urlInput:  urlInput,
		nameInput: nameInput,
		spinner:   s,
		help:      help.New(),
	}
	// the first listing is issued by Init
	m.grid.BeginFetch()
	return m
}

func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.fetchTasksCmd(m.grid.Generation()), m.spinner.Tick, m.scheduleRefresh())
}

// Grid exposes the task grid for rendering tests and the CLI.
func (m RootModel) Grid() *TaskGrid { return &m.grid }

// Wizard exposes the add-task state machine.
func (m RootModel) Wizard() *wizard.Wizard { return m.wizard }

// State returns the active screen.
func (m RootModel) State() UIState { return m.state }

// Notification returns the footer message, if any.
func (m RootModel) Notification() string { return m.notification }
