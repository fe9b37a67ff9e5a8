package tui

import (
	"context"
	"errors"

	"github.com/ddownloader/ddclient/internal/core"
	"github.com/ddownloader/ddclient/internal/types"
)

// ErrNotSupported is returned by task actions the backend does not offer.
var ErrNotSupported = errors.New("not supported by the ddownloader backend")

// TaskHook acts on one task from the grid or the detail view.
type TaskHook func(ctx context.Context, task types.Task) error

// QueueHook submits a task confirmed in the wizard.
type QueueHook func(ctx context.Context, req types.TaskRequest) (*types.Task, error)

// Hooks are the task actions the UI offers. Nil hooks behave like
// NotSupported.
type Hooks struct {
	Abort   TaskHook
	Pause   TaskHook
	Details TaskHook
	Queue   QueueHook
}

// NotSupported is the default for actions with no backend endpoint.
func NotSupported(context.Context, types.Task) error {
	return ErrNotSupported
}

// DefaultHooks queues through svc and leaves the other actions unsupported.
func DefaultHooks(svc core.TaskService) Hooks {
	return Hooks{
		Abort:   NotSupported,
		Pause:   NotSupported,
		Details: NotSupported,
		Queue:   svc.QueueTask,
	}
}

func (h Hooks) withDefaults(svc core.TaskService) Hooks {
	if h.Abort == nil {
		h.Abort = NotSupported
	}
	if h.Pause == nil {
		h.Pause = NotSupported
	}
	if h.Details == nil {
		h.Details = NotSupported
	}
	if h.Queue == nil {
		if svc != nil {
			h.Queue = svc.QueueTask
		} else {
			h.Queue = func(context.Context, types.TaskRequest) (*types.Task, error) {
				return nil, ErrNotSupported
			}
		}
	}
	return h
}

// hook returns the hook for a grid action name.
func (h Hooks) hook(action string) TaskHook {
	switch action {
	case ActionAbort:
		return h.Abort
	case ActionPause:
		return h.Pause
	case ActionDetails:
		return h.Details
	}
	return NotSupported
}

const (
	ActionAbort   = "abort"
	ActionPause   = "pause"
	ActionDetails = "details"
)
