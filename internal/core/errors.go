package core

import (
	"errors"
	"fmt"
)

// ErrServiceFailure matches every error that should put a view into its
// failure state: remote errors, transport errors and decode errors.
var ErrServiceFailure = errors.New("task service failure")

// InvalidURLError is returned before any request is made when the target URL
// is not an absolute http(s) URL.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: must be an absolute http or https URL", e.URL)
}

// InvalidPathError rejects a target path the backend would refuse anyway.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid target path %q: must be relative and must not contain \"..\"", e.Path)
}

// RemoteServiceError is a non-2xx response from the backend.
type RemoteServiceError struct {
	Operation  string
	StatusCode int
	StatusText string
	Message    string // backend "message" field, when present
}

func (e *RemoteServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Operation, e.StatusText, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.StatusText)
}

func (e *RemoteServiceError) Is(target error) bool {
	return target == ErrServiceFailure
}

// TransportError wraps a failure to reach the backend at all.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrServiceFailure
}

// DecodeError means the backend answered with a body that does not match
// the expected schema.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	return target == ErrServiceFailure
}
