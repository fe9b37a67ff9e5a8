package tui

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddownloader/ddclient/internal/config"
	"github.com/ddownloader/ddclient/internal/core"
	"github.com/ddownloader/ddclient/internal/messages"
	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/testutil"
	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/wizard"
)

// collect runs cmd and returns the messages that arrive promptly. Timers
// (refresh polls, notification expiry, cursor blinks) are left out.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(300 * time.Millisecond):
		return nil
	}
}

func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed
		}
	}
	var zero T
	require.Failf(t, "message not produced", "wanted %T among %d messages", zero, len(msgs))
	return zero
}

func send(t *testing.T, m RootModel, msg tea.Msg) (RootModel, []tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	rm, ok := next.(RootModel)
	require.True(t, ok, "Update must return a RootModel")
	return rm, collect(cmd)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testSettings(baseURL string) *config.Settings {
	s := config.DefaultSettings()
	s.Server.BaseURL = baseURL
	s.General.RefreshInterval = 0
	s.General.ClipboardPrefill = false
	return s
}

func newTestModel(t *testing.T, backend *testutil.Backend, opts Options) RootModel {
	t.Helper()
	if opts.Settings == nil {
		opts.Settings = testSettings(backend.URL())
	}
	svc := core.NewRemoteTaskService(backend.URL(), 2*time.Second, nil)
	m := NewRootModel(context.Background(), svc, opts)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// loaded returns a model whose first listing has been applied.
func loaded(t *testing.T, backend *testutil.Backend, opts Options) RootModel {
	t.Helper()
	m := newTestModel(t, backend, opts)
	m, _ = send(t, m, find[messages.TasksLoadedMsg](t, collect(m.Init())))
	return m
}

func sampleTasks() []types.Task {
	return []types.Task{
		{TargetPath: "movies/big-buck-bunny.mkv", URL: "https://example.com/bbb.mkv", DownloadedSize: 256, TotalSize: 1024, Status: types.StatusRunning},
		{TargetPath: "iso/debian.iso", URL: "https://example.com/debian.iso", DownloadedSize: 0, TotalSize: 0, Status: types.StatusQueued},
	}
}

func TestInit_LoadsFirstPage(t *testing.T) {
	backend := testutil.NewBackendT(t, testutil.WithTasks(sampleTasks()...))
	m := loaded(t, backend, Options{})

	assert.Equal(t, GridReady, m.Grid().State)
	assert.Len(t, m.Grid().Tasks, 2)
	assert.Equal(t, 2, m.Grid().TotalCount)
	assert.False(t, m.Grid().Refreshing())
	assert.EqualValues(t, 1, backend.ListRequests.Load())

	view := m.View()
	assert.Contains(t, view, "movies/big-buck-bunny.mkv")
	assert.Contains(t, view, "25.00%")
	assert.Contains(t, view, "(0%)")
}

func TestGrid_ListsConfiguredPageSize(t *testing.T) {
	backend := testutil.NewBackendT(t, testutil.WithTasks(sampleTasks()...))
	settings := testSettings(backend.URL())
	settings.Server.PageSize = 1

	m := loaded(t, backend, Options{Settings: settings})

	assert.Equal(t, GridReady, m.Grid().State)
	require.Len(t, m.Grid().Tasks, 1)
	assert.Equal(t, "movies/big-buck-bunny.mkv", m.Grid().Tasks[0].TargetPath)
	assert.Equal(t, 2, m.Grid().TotalCount)
}

func TestGrid_FailedFetchShowsErrorLine(t *testing.T) {
	backend := testutil.NewBackendT(t, testutil.WithTasks(sampleTasks()...))
	backend.Fail(testutil.RouteListTasks, http.StatusInternalServerError, "database is locked")

	m := loaded(t, backend, Options{})

	assert.Equal(t, GridFailed, m.Grid().State)
	assert.Empty(t, m.Grid().Tasks)
	require.Error(t, m.Grid().Err)
	assert.True(t, errors.Is(m.Grid().Err, core.ErrServiceFailure))

	view := m.View()
	assert.Contains(t, view, "Could not load tasks")
	assert.Contains(t, view, "database is locked")
	assert.NotContains(t, view, "big-buck-bunny")

	// retry recovers
	backend.Fail(testutil.RouteListTasks, 0, "")
	m, msgs := send(t, m, keyPress("r"))
	m, _ = send(t, m, find[messages.TasksLoadedMsg](t, msgs))
	assert.Equal(t, GridReady, m.Grid().State)
	assert.Len(t, m.Grid().Tasks, 2)
}

func TestGrid_IgnoresStaleGeneration(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := newTestModel(t, backend, Options{})

	first := m.Grid().Generation()
	m, _ = send(t, m, keyPress("r"))
	require.Greater(t, m.Grid().Generation(), first)

	stale := &types.TaskPage{Page: 1, PageSize: 30, TotalCount: 1, Tasks: sampleTasks()[:1]}
	m, _ = send(t, m, messages.TasksLoadedMsg{Gen: first, Page: stale})
	assert.Equal(t, GridLoading, m.Grid().State)
	assert.Empty(t, m.Grid().Tasks)

	fresh := &types.TaskPage{Page: 1, PageSize: 30, TotalCount: 2, Tasks: sampleTasks()}
	m, _ = send(t, m, messages.TasksLoadedMsg{Gen: m.Grid().Generation(), Page: fresh})
	assert.Equal(t, GridReady, m.Grid().State)
	assert.Len(t, m.Grid().Tasks, 2)

	// a late failure from the old generation does not wipe the grid
	m, _ = send(t, m, messages.TasksLoadedMsg{Gen: first, Err: errors.New("boom")})
	assert.Equal(t, GridReady, m.Grid().State)
	assert.Len(t, m.Grid().Tasks, 2)
}

func TestGrid_RefreshTickSkipsWhileInFlight(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := newTestModel(t, backend, Options{})
	gen := m.Grid().Generation()

	// the initial fetch is still outstanding
	m, msgs := send(t, m, messages.RefreshTickMsg{})
	assert.Equal(t, gen, m.Grid().Generation())
	assert.Empty(t, msgs)
}

func TestCursorAndDetails(t *testing.T) {
	backend := testutil.NewBackendT(t, testutil.WithTasks(sampleTasks()...))
	m := loaded(t, backend, Options{})

	m, _ = send(t, m, keyPress("j"))
	assert.Equal(t, 1, m.Grid().Cursor())
	m, _ = send(t, m, keyPress("j"))
	assert.Equal(t, 1, m.Grid().Cursor(), "cursor stops at the last card")

	m, msgs := send(t, m, keyPress("enter"))
	assert.Equal(t, DetailState, m.State())
	hookMsg := find[messages.HookResultMsg](t, msgs)
	assert.Equal(t, ActionDetails, hookMsg.Action)
	assert.ErrorIs(t, hookMsg.Err, ErrNotSupported)

	// unsupported details are silent, the view renders from the listing
	m, _ = send(t, m, hookMsg)
	assert.Empty(t, m.Notification())
	view := m.View()
	assert.Contains(t, view, "Task Details")
	assert.Contains(t, view, "iso/debian.iso")
	assert.Contains(t, view, "https://example.com/debian.iso")

	m, _ = send(t, m, keyPress("esc"))
	assert.Equal(t, DashboardState, m.State())
}

func TestHooks_NotSupportedNotifies(t *testing.T) {
	backend := testutil.NewBackendT(t, testutil.WithTasks(sampleTasks()...))
	m := loaded(t, backend, Options{})

	for _, action := range []struct {
		key  string
		name string
	}{
		{key: "p", name: ActionPause},
		{key: "x", name: ActionAbort},
	} {
		t.Run(action.name, func(t *testing.T) {
			next, msgs := send(t, m, keyPress(action.key))
			hookMsg := find[messages.HookResultMsg](t, msgs)
			assert.Equal(t, action.name, hookMsg.Action)
			assert.ErrorIs(t, hookMsg.Err, ErrNotSupported)

			next, _ = send(t, next, hookMsg)
			assert.Contains(t, next.Notification(), "not supported")
			assert.Contains(t, next.View(), "not supported")
		})
	}
}

func TestHooks_CustomHookRuns(t *testing.T) {
	backend := testutil.NewBackendT(t, testutil.WithTasks(sampleTasks()...))

	var paused []int64
	m := loaded(t, backend, Options{Hooks: Hooks{
		Pause: func(_ context.Context, task types.Task) error {
			paused = append(paused, task.ID)
			return nil
		},
	}})

	m, msgs := send(t, m, keyPress("p"))
	m, _ = send(t, m, find[messages.HookResultMsg](t, msgs))

	require.Len(t, paused, 1)
	assert.Equal(t, m.Grid().Tasks[0].ID, paused[0])
	assert.Contains(t, m.Notification(), "Pause requested for task")
}

func TestNotificationExpiry(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := newTestModel(t, backend, Options{})

	_ = m.notify("first")
	_ = m.notify("second")
	require.Equal(t, "second", m.Notification())

	m, _ = send(t, m, messages.NotificationExpiredMsg{Gen: m.notificationGen - 1})
	assert.Equal(t, "second", m.Notification(), "an older expiry does not clear a newer notification")

	m, _ = send(t, m, messages.NotificationExpiredMsg{Gen: m.notificationGen})
	assert.Empty(t, m.Notification())
}

// openAndSubmit opens the wizard, types rawURL and presses enter.
func openAndSubmit(t *testing.T, m RootModel, rawURL string) (RootModel, []tea.Msg) {
	t.Helper()
	m, _ = send(t, m, keyPress("a"))
	require.Equal(t, InputState, m.State())
	m, _ = send(t, m, keyPress(rawURL))
	return send(t, m, keyPress("enter"))
}

func TestWizard_InvalidURLStaysOnFirstStep(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := loaded(t, backend, Options{})

	m, msgs := openAndSubmit(t, m, "not a url")

	assert.Empty(t, msgs)
	assert.Equal(t, wizard.EnterURL, m.Wizard().State())
	assert.ErrorIs(t, m.Wizard().URLError, wizard.ErrInvalidURL)
	assert.Contains(t, m.View(), wizard.ErrInvalidURL.Error())
	assert.Zero(t, backend.MetadataRequests.Load())
}

func TestWizard_MetadataThenQueue(t *testing.T) {
	const target = "https://example.com/releases/archive.zip"
	backend := testutil.NewBackendT(t, testutil.WithMetadata(types.URLMetadata{
		URL:              target,
		ContentLength:    2048,
		ContentType:      "application/zip",
		ProposedFileName: "archive.zip",
	}))
	m := loaded(t, backend, Options{})

	m, msgs := openAndSubmit(t, m, target)
	assert.Equal(t, wizard.Loading, m.Wizard().State())
	assert.Contains(t, m.View(), "Fetching metadata")

	metaMsg := find[messages.MetadataMsg](t, msgs)
	assert.EqualValues(t, 1, backend.MetadataRequests.Load(), "exactly one fetch per submit")

	m, _ = send(t, m, metaMsg)
	require.Equal(t, wizard.MetadataReady, m.Wizard().State())
	assert.Equal(t, "archive.zip", m.nameInput.Value())

	view := m.View()
	assert.Contains(t, view, "application/zip")
	assert.Contains(t, view, "archive.zip")
	assert.Contains(t, view, "not an image")

	m, msgs = send(t, m, keyPress("enter"))
	assert.Equal(t, wizard.Queued, m.Wizard().State())

	m, msgs = send(t, m, find[messages.TaskQueuedMsg](t, msgs))
	assert.Equal(t, DashboardState, m.State())
	assert.Equal(t, "Queued archive.zip", m.Notification())

	queued := backend.Queued()
	require.Len(t, queued, 1)
	assert.Equal(t, types.TaskRequest{URL: target, RelativeTargetPath: "archive.zip"}, queued[0])

	// the grid reloads with the new task
	m, _ = send(t, m, find[messages.TasksLoadedMsg](t, msgs))
	require.Len(t, m.Grid().Tasks, 1)
	assert.Equal(t, "archive.zip", m.Grid().Tasks[0].TargetPath)
}

func TestWizard_DropsStaleMetadata(t *testing.T) {
	const (
		urlA = "https://example.com/a.bin"
		urlB = "https://example.com/b.bin"
	)
	backend := testutil.NewBackendT(t)
	m := loaded(t, backend, Options{})

	m, msgs := openAndSubmit(t, m, urlA)
	metaA := find[messages.MetadataMsg](t, msgs)

	m, _ = send(t, m, keyPress("esc"))
	require.Equal(t, wizard.EnterURL, m.Wizard().State())
	assert.Equal(t, urlA, m.urlInput.Value(), "going back keeps the URL")

	m.urlInput.SetValue(urlB)
	m, msgs = send(t, m, keyPress("enter"))
	metaB := find[messages.MetadataMsg](t, msgs)

	m, _ = send(t, m, metaA)
	assert.Equal(t, wizard.Loading, m.Wizard().State(), "result for A is ignored")

	m, _ = send(t, m, metaB)
	require.Equal(t, wizard.MetadataReady, m.Wizard().State())
	assert.Equal(t, "b.bin", m.Wizard().FileName())
	assert.Equal(t, urlB, m.Wizard().Metadata().URL)
}

func TestWizard_MetadataFailure(t *testing.T) {
	backend := testutil.NewBackendT(t)
	backend.Fail(testutil.RouteURLMetadata, http.StatusBadGateway, "upstream refused HEAD")
	m := loaded(t, backend, Options{})

	m, msgs := openAndSubmit(t, m, "https://example.com/file.bin")
	m, _ = send(t, m, find[messages.MetadataMsg](t, msgs))

	assert.Equal(t, wizard.MetadataFailed, m.Wizard().State())
	view := m.View()
	assert.Contains(t, view, "Could not fetch metadata")
	assert.Contains(t, view, "upstream refused HEAD")

	m, _ = send(t, m, keyPress("esc"))
	assert.Equal(t, wizard.EnterURL, m.Wizard().State())
	assert.Equal(t, InputState, m.State())
}

func TestWizard_RejectsUnsafeFileName(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := loaded(t, backend, Options{})

	m, msgs := openAndSubmit(t, m, "https://example.com/file.bin")
	m, _ = send(t, m, find[messages.MetadataMsg](t, msgs))
	require.Equal(t, wizard.MetadataReady, m.Wizard().State())

	m.nameInput.SetValue("../etc/passwd")
	m, msgs = send(t, m, keyPress("enter"))

	assert.Empty(t, msgs)
	assert.Equal(t, wizard.MetadataReady, m.Wizard().State())
	assert.ErrorIs(t, m.Wizard().SubmitError, wizard.ErrInvalidFileName)
	assert.Zero(t, backend.QueueRequests.Load())
}

func TestWizard_QueueFailureReturnsToSecondStep(t *testing.T) {
	backend := testutil.NewBackendT(t)
	backend.Fail(testutil.RouteQueueTask, http.StatusBadRequest, "target already exists")
	m := loaded(t, backend, Options{})

	m, msgs := openAndSubmit(t, m, "https://example.com/file.bin")
	m, _ = send(t, m, find[messages.MetadataMsg](t, msgs))
	m, msgs = send(t, m, keyPress("enter"))
	m, _ = send(t, m, find[messages.TaskQueuedMsg](t, msgs))

	assert.Equal(t, InputState, m.State())
	assert.Equal(t, wizard.MetadataReady, m.Wizard().State())
	require.Error(t, m.Wizard().SubmitError)
	assert.Contains(t, m.View(), "target already exists")
}

type stubPreview struct {
	result *preview.Preview
	err    error
	calls  int
}

func (s *stubPreview) Fetch(_ context.Context, _ types.URLMetadata) (*preview.Preview, error) {
	s.calls++
	return s.result, s.err
}

func TestWizard_PreviewLine(t *testing.T) {
	const target = "https://example.com/cat.png"
	backend := testutil.NewBackendT(t, testutil.WithMetadata(types.URLMetadata{
		URL:              target,
		ContentLength:    4096,
		ContentType:      "image/png",
		ProposedFileName: "cat.png",
	}))

	tests := []struct {
		name    string
		stub    *stubPreview
		enabled bool
		want    string
		calls   int
	}{
		{
			name:    "sniffed",
			stub:    &stubPreview{result: &preview.Preview{MIME: "image/png", Extension: "png", Width: 3, Height: 2, Filename: "cat.png"}},
			enabled: true,
			want:    "PNG 3x2 (served as cat.png)",
			calls:   1,
		},
		{
			name:    "fetch failed",
			stub:    &stubPreview{err: preview.ErrNotImage},
			enabled: true,
			want:    "preview unavailable",
			calls:   1,
		},
		{
			name:    "disabled",
			stub:    &stubPreview{},
			enabled: false,
			want:    "disabled",
			calls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings(backend.URL())
			settings.General.Preview = tt.enabled
			m := loaded(t, backend, Options{Settings: settings, Preview: tt.stub})

			m, msgs := openAndSubmit(t, m, target)
			m, msgs = send(t, m, find[messages.MetadataMsg](t, msgs))
			for _, msg := range msgs {
				if pm, ok := msg.(messages.PreviewMsg); ok {
					m, _ = send(t, m, pm)
				}
			}

			assert.Equal(t, tt.calls, tt.stub.calls)
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestWizard_ClipboardPrefill(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		clip    string
		clipErr error
		want    string
	}{
		{name: "valid url", enabled: true, clip: "  https://example.com/a.iso\n", want: "https://example.com/a.iso"},
		{name: "not a url", enabled: true, clip: "hello world", want: ""},
		{name: "clipboard error", enabled: true, clipErr: errors.New("no clipboard"), want: ""},
		{name: "disabled", enabled: false, clip: "https://example.com/a.iso", want: ""},
	}

	backend := testutil.NewBackendT(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings(backend.URL())
			settings.General.ClipboardPrefill = tt.enabled
			m := newTestModel(t, backend, Options{
				Settings:  settings,
				Clipboard: func() (string, error) { return tt.clip, tt.clipErr },
			})

			m, _ = send(t, m, keyPress("a"))
			assert.Equal(t, tt.want, m.urlInput.Value())
			assert.Equal(t, tt.want, m.Wizard().URL())
		})
	}
}

func TestWizard_EscOnFirstStepCloses(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := loaded(t, backend, Options{})

	m, _ = send(t, m, keyPress("a"))
	m, _ = send(t, m, keyPress("esc"))
	assert.Equal(t, DashboardState, m.State())

	// a reopened wizard starts empty
	m, _ = send(t, m, keyPress("a"))
	assert.Empty(t, m.urlInput.Value())
	assert.Equal(t, wizard.EnterURL, m.Wizard().State())
}

func TestSettingsPage(t *testing.T) {
	backend := testutil.NewBackendT(t)
	m := loaded(t, backend, Options{})

	m, _ = send(t, m, keyPress("s"))
	require.Equal(t, SettingsState, m.State())
	view := m.View()
	assert.Contains(t, view, "Base URL")
	assert.Contains(t, view, backend.URL())
	assert.Contains(t, view, "DDCLIENT_SERVER_BASE_URL")

	m, _ = send(t, m, keyPress("tab"))
	m, _ = send(t, m, keyPress("j"))
	view = m.View()
	assert.Contains(t, view, "Refresh Interval")
	assert.Contains(t, view, "DDCLIENT_GENERAL_CLIPBOARD_PREFILL")

	m, _ = send(t, m, keyPress("esc"))
	assert.Equal(t, DashboardState, m.State())
}
