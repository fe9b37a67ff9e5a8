package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
)

// Routes understood by Backend.Fail.
const (
	RouteListTasks   = "GET /tasks"
	RouteURLMetadata = "GET /url/metadata"
	RouteQueueTask   = "POST /tasks"
)

const defaultPageSize = 30

type failure struct {
	status  int
	message string
}

// Backend is an in-memory ddownloader service.
type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	tasks      []types.Task
	metadata   map[string]types.URLMetadata
	delays     map[string]time.Duration
	failures   map[string]failure
	queued     []types.TaskRequest
	requestIDs []string
	nextID     int64

	// Tracking
	ListRequests     atomic.Int64
	MetadataRequests atomic.Int64
	QueueRequests    atomic.Int64
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithTasks seeds the task list.
func WithTasks(tasks ...types.Task) BackendOption {
	return func(b *Backend) {
		for _, task := range tasks {
			b.addTask(task)
		}
	}
}

// WithMetadata registers the metadata answered for meta.URL.
func WithMetadata(metas ...types.URLMetadata) BackendOption {
	return func(b *Backend) {
		for _, meta := range metas {
			b.metadata[meta.URL] = meta
		}
	}
}

// WithMetadataDelay delays the metadata answer for one URL.
func WithMetadataDelay(rawURL string, d time.Duration) BackendOption {
	return func(b *Backend) {
		b.delays[rawURL] = d
	}
}

// NewBackendT starts a fake backend that is closed when the test ends.
func NewBackendT(t *testing.T, opts ...BackendOption) *Backend {
	t.Helper()
	b := &Backend{
		metadata: make(map[string]types.URLMetadata),
		delays:   make(map[string]time.Duration),
		failures: make(map[string]failure),
	}
	for _, opt := range opts {
		opt(b)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteListTasks, b.handleListTasks)
	mux.HandleFunc(RouteURLMetadata, b.handleURLMetadata)
	mux.HandleFunc(RouteQueueTask, b.handleQueueTask)

	b.Server = NewHTTPServerT(t, b.recordRequestID(mux))
	return b
}

// URL returns the base URL of the backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Fail makes route answer with status and a {"message"} body. A zero status
// clears the failure.
func (b *Backend) Fail(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = failure{status: status, message: message}
}

// SetTasks replaces the task list.
func (b *Backend) SetTasks(tasks ...types.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = nil
	for _, task := range tasks {
		b.addTask(task)
	}
}

// Tasks returns a copy of the current task list.
func (b *Backend) Tasks() []types.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Task(nil), b.tasks...)
}

// Queued returns every accepted POST /tasks body.
func (b *Backend) Queued() []types.TaskRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.TaskRequest(nil), b.queued...)
}

// RequestIDs returns the X-Request-ID header of every request, in order.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

func (b *Backend) addTask(task types.Task) {
	b.nextID++
	if task.ID == 0 {
		task.ID = b.nextID
	}
	if task.Status == "" {
		task.Status = types.StatusQueued
	}
	b.tasks = append(b.tasks, task)
}

func (b *Backend) recordRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requestIDs = append(b.requestIDs, r.Header.Get("X-Request-ID"))
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) failed(w http.ResponseWriter, route string) bool {
	b.mu.Lock()
	f, ok := b.failures[route]
	b.mu.Unlock()
	if !ok {
		return false
	}
	if f.message == "" {
		http.Error(w, http.StatusText(f.status), f.status)
		return true
	}
	writeJSON(w, f.status, map[string]string{"message": f.message})
	return true
}

func (b *Backend) handleListTasks(w http.ResponseWriter, r *http.Request) {
	b.ListRequests.Add(1)
	if b.failed(w, RouteListTasks) {
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if page < 1 || pageSize < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "page and page_size must be positive"})
		return
	}

	b.mu.Lock()
	total := len(b.tasks)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	tasks := append([]types.Task{}, b.tasks[start:end]...)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, types.TaskPage{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		Tasks:      tasks,
	})
}

func (b *Backend) handleURLMetadata(w http.ResponseWriter, r *http.Request) {
	b.MetadataRequests.Add(1)
	if b.failed(w, RouteURLMetadata) {
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "url is required"})
		return
	}

	b.mu.Lock()
	meta, ok := b.metadata[target]
	delay := b.delays[target]
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		meta = types.URLMetadata{
			URL:              target,
			ContentLength:    1024,
			ContentType:      "application/octet-stream",
			ProposedFileName: utils.FilenameFromURL(target),
		}
	}
	writeJSON(w, http.StatusOK, meta)
}

func (b *Backend) handleQueueTask(w http.ResponseWriter, r *http.Request) {
	b.QueueRequests.Add(1)
	if b.failed(w, RouteQueueTask) {
		return
	}

	var req types.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}
	if !utils.IsValidHTTPURL(req.URL) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid url"})
		return
	}
	if !utils.IsSafeRelativePath(req.RelativeTargetPath) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid target path"})
		return
	}

	b.mu.Lock()
	b.queued = append(b.queued, req)
	b.addTask(types.Task{
		URL:        req.URL,
		TargetPath: req.RelativeTargetPath,
		Status:     types.StatusQueued,
		FileHash:   req.FileHash,
	})
	task := b.tasks[len(b.tasks)-1]
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, task)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
