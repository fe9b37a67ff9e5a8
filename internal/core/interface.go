package core

import (
	"context"

	"github.com/ddownloader/ddclient/internal/types"
)

// TaskService defines the interface the TUI and CLI use to talk to the
// ddownloader backend. Tests substitute fakes for the remote implementation.
type TaskService interface {
	// FetchTasks returns the first page of tasks using the backend's default paging.
	FetchTasks(ctx context.Context) (*types.TaskPage, error)

	// FetchTasksPage returns one explicit page of tasks.
	FetchTasksPage(ctx context.Context, page, pageSize int) (*types.TaskPage, error)

	// GetURLMetadata asks the backend to probe a URL before it is queued.
	GetURLMetadata(ctx context.Context, rawURL string) (*types.URLMetadata, error)

	// QueueTask submits a new download.
	QueueTask(ctx context.Context, req types.TaskRequest) (*types.Task, error)
}
