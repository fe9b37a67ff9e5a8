package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
)

const (
	opFetchTasks     = "FetchTasks"
	opGetURLMetadata = "GetURLMetadata"
	opQueueTask      = "QueueTask"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1024

// RemoteTaskService implements TaskService over the ddownloader REST API.
// BaseURL is fixed at construction.
type RemoteTaskService struct {
	BaseURL string
	Client  *http.Client
	Logger  *log.Logger
}

// NewRemoteTaskService creates a service for baseURL. A zero timeout means
// requests are bounded only by their context.
func NewRemoteTaskService(baseURL string, timeout time.Duration, logger *log.Logger) *RemoteTaskService {
	if logger == nil {
		logger = log.Default()
	}
	return &RemoteTaskService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Logger:  logger.WithPrefix("api"),
	}
}

func (s *RemoteTaskService) doRequest(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bodyReader)
	if err != nil {
		return nil, &TransportError{Operation: op, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		s.Logger.Warn("request failed", "op", op, "id", requestID, "err", err)
		return nil, &TransportError{Operation: op, Err: err}
	}
	s.Logger.Debug("request", "op", op, "method", method, "path", path, "status", resp.StatusCode, "id", requestID, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteServiceError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Message:    errorMessage(bodyBytes),
		}
	}

	return resp, nil
}

// decode reads a JSON body into v, mapping any failure to a DecodeError.
func decode(op string, resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{Operation: op, Err: err}
	}
	return nil
}

// FetchTasks returns the tasks the backend lists by default.
func (s *RemoteTaskService) FetchTasks(ctx context.Context) (*types.TaskPage, error) {
	return s.fetchTasks(ctx, "/tasks")
}

// FetchTasksPage returns one page of tasks. Non-positive arguments are left
// to the backend defaults.
func (s *RemoteTaskService) FetchTasksPage(ctx context.Context, page, pageSize int) (*types.TaskPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return s.fetchTasks(ctx, path)
}

func (s *RemoteTaskService) fetchTasks(ctx context.Context, path string) (*types.TaskPage, error) {
	resp, err := s.doRequest(ctx, opFetchTasks, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var page types.TaskPage
	if err := decode(opFetchTasks, resp, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetURLMetadata validates rawURL locally, then asks the backend to probe it.
func (s *RemoteTaskService) GetURLMetadata(ctx context.Context, rawURL string) (*types.URLMetadata, error) {
	if !utils.IsValidHTTPURL(rawURL) {
		return nil, &InvalidURLError{URL: rawURL}
	}

	resp, err := s.doRequest(ctx, opGetURLMetadata, http.MethodGet, "/url/metadata?url="+url.QueryEscape(strings.TrimSpace(rawURL)), nil)
	if err != nil {
		return nil, err
	}

	var meta types.URLMetadata
	if err := decode(opGetURLMetadata, resp, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// QueueTask validates the request locally and submits it.
func (s *RemoteTaskService) QueueTask(ctx context.Context, req types.TaskRequest) (*types.Task, error) {
	req.URL = strings.TrimSpace(req.URL)
	if !utils.IsValidHTTPURL(req.URL) {
		return nil, &InvalidURLError{URL: req.URL}
	}
	if !utils.IsSafeRelativePath(req.RelativeTargetPath) {
		return nil, &InvalidPathError{Path: req.RelativeTargetPath}
	}
	req.RelativeTargetPath = strings.TrimSpace(req.RelativeTargetPath)

	resp, err := s.doRequest(ctx, opQueueTask, http.MethodPost, "/tasks", req)
	if err != nil {
		return nil, err
	}

	var task types.Task
	if err := decode(opQueueTask, resp, &task); err != nil {
		return nil, err
	}
	s.Logger.Info("task queued", "id", task.ID, "path", task.TargetPath)
	return &task, nil
}

// statusText returns the reason phrase, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = "HTTP " + strconv.Itoa(resp.StatusCode)
	}
	return text
}

// errorMessage extracts {"message": "..."} from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// IsUserError reports whether err was raised locally before any request.
func IsUserError(err error) bool {
	var urlErr *InvalidURLError
	var pathErr *InvalidPathError
	return errors.As(err, &urlErr) || errors.As(err, &pathErr)
}
