package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TaskStatus is the lifecycle state of a download task as reported by the backend
type TaskStatus string

const (
	StatusQueued  TaskStatus = "queued"
	StatusRunning TaskStatus = "running"
	StatusPaused  TaskStatus = "paused"
	StatusError   TaskStatus = "error"
	StatusDone    TaskStatus = "done"
)

// wire names used by the ddownloader backend
var backendStatusNames = map[TaskStatus]string{
	StatusQueued:  "Queued",
	StatusRunning: "In Progress",
	StatusPaused:  "Paused",
	StatusError:   "Failed",
	StatusDone:    "Completed",
}

// ParseTaskStatus accepts both the short names and the backend's display names.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued":
		return StatusQueued, nil
	case "running", "in progress":
		return StatusRunning, nil
	case "paused":
		return StatusPaused, nil
	case "error", "failed":
		return StatusError, nil
	case "done", "completed":
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Label returns the human-readable status name
func (s TaskStatus) Label() string {
	if name, ok := backendStatusNames[s]; ok {
		return name
	}
	return string(s)
}

func (s TaskStatus) MarshalJSON() ([]byte, error) {
	name, ok := backendStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown task status %q", string(s))
	}
	return json.Marshal(name)
}

func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Task is a read-only copy of one download job held by the backend
type Task struct {
	ID             int64      `json:"id,omitempty"`
	URL            string     `json:"url,omitempty"`
	TargetPath     string     `json:"target_path"`
	DownloadedSize uint64     `json:"downloaded_size"`
	TotalSize      uint64     `json:"total_size"`
	Status         TaskStatus `json:"status"`
	FileHash       string     `json:"file_hash,omitempty"`
	ErrMessage     string     `json:"err_message,omitempty"`
}

// UnmarshalJSON enforces the required fields. Sizes are accepted as floats
// because the backend stores them as REAL.
func (t *Task) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID             *int64       `json:"id"`
		URL            *string      `json:"url"`
		TargetPath     *string      `json:"target_path"`
		DownloadedSize *json.Number `json:"downloaded_size"`
		TotalSize      *json.Number `json:"total_size"`
		Status         *TaskStatus  `json:"status"`
		FileHash       *string      `json:"file_hash"`
		ErrMessage     *string      `json:"err_message"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TargetPath == nil {
		return &FieldError{Field: "target_path", Err: ErrMissingField}
	}
	if aux.DownloadedSize == nil {
		return &FieldError{Field: "downloaded_size", Err: ErrMissingField}
	}
	if aux.TotalSize == nil {
		return &FieldError{Field: "total_size", Err: ErrMissingField}
	}
	if aux.Status == nil {
		return &FieldError{Field: "status", Err: ErrMissingField}
	}

	downloaded, err := parseSize(*aux.DownloadedSize)
	if err != nil {
		return &FieldError{Field: "downloaded_size", Err: err}
	}
	total, err := parseSize(*aux.TotalSize)
	if err != nil {
		return &FieldError{Field: "total_size", Err: err}
	}

	*t = Task{
		TargetPath:     *aux.TargetPath,
		DownloadedSize: downloaded,
		TotalSize:      total,
		Status:         *aux.Status,
	}
	if aux.ID != nil {
		t.ID = *aux.ID
	}
	if aux.URL != nil {
		t.URL = *aux.URL
	}
	if aux.FileHash != nil {
		t.FileHash = *aux.FileHash
	}
	if aux.ErrMessage != nil {
		t.ErrMessage = *aux.ErrMessage
	}
	return nil
}

// TaskPage is one listing of tasks as returned by GET /tasks
type TaskPage struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int    `json:"total_count"`
	Tasks      []Task `json:"dtasks"`
}

func (p *TaskPage) UnmarshalJSON(data []byte) error {
	type plain TaskPage
	var aux plain
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Tasks == nil {
		aux.Tasks = []Task{}
	}
	*p = TaskPage(aux)
	return nil
}

// URLMetadata describes a remote resource before it is queued
type URLMetadata struct {
	URL              string `json:"url"`
	ContentLength    uint64 `json:"content_length"`
	ContentType      string `json:"content_type"`
	ProposedFileName string `json:"proposed_file_name"`
}

func (m *URLMetadata) UnmarshalJSON(data []byte) error {
	var aux struct {
		URL              *string      `json:"url"`
		ContentLength    *json.Number `json:"content_length"`
		ContentType      *string      `json:"content_type"`
		ProposedFileName *string      `json:"proposed_file_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.URL == nil:
		return &FieldError{Field: "url", Err: ErrMissingField}
	case aux.ContentLength == nil:
		return &FieldError{Field: "content_length", Err: ErrMissingField}
	case aux.ContentType == nil:
		return &FieldError{Field: "content_type", Err: ErrMissingField}
	case aux.ProposedFileName == nil:
		return &FieldError{Field: "proposed_file_name", Err: ErrMissingField}
	}

	length, err := parseSize(*aux.ContentLength)
	if err != nil {
		return &FieldError{Field: "content_length", Err: err}
	}

	*m = URLMetadata{
		URL:              *aux.URL,
		ContentLength:    length,
		ContentType:      *aux.ContentType,
		ProposedFileName: *aux.ProposedFileName,
	}
	return nil
}

// TaskRequest is the body of POST /tasks
type TaskRequest struct {
	URL                string `json:"url"`
	RelativeTargetPath string `json:"relative_target_path"`
	FileHash           string `json:"file_hash,omitempty"`
}

// ErrMissingField marks a required JSON key that was absent
var ErrMissingField = errors.New("missing required field")

// FieldError reports which JSON field failed to decode
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func parseSize(n json.Number) (uint64, error) {
	if v, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", n.String())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("size out of range: %s", n.String())
	}
	return uint64(f), nil
}
