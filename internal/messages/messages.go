package messages

import (
	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/types"
)

// TasksLoadedMsg carries the result of one task listing. Gen is the grid
// fetch generation the request was issued for.
type TasksLoadedMsg struct {
	Gen  uint64
	Page *types.TaskPage
	Err  error
}

// RefreshTickMsg asks the dashboard to poll the task list again
type RefreshTickMsg struct{}

// MetadataMsg is the answer to a wizard metadata fetch
type MetadataMsg struct {
	Token uint64
	URL   string
	Meta  *types.URLMetadata
	Err   error
}

// PreviewMsg is the answer to an image preview fetch
type PreviewMsg struct {
	Token   uint64
	Preview *preview.Preview
	Err     error
}

// TaskQueuedMsg reports the outcome of submitting a confirmed task
type TaskQueuedMsg struct {
	Token uint64
	Task  *types.Task
	Err   error
}

// HookResultMsg reports the outcome of a task action (pause, abort, details)
type HookResultMsg struct {
	Action string
	TaskID int64
	Err    error
}

// NotificationExpiredMsg clears the footer notification if Gen still matches
type NotificationExpiredMsg struct {
	Gen uint64
}
