// Package testutil provides HTTP test servers for the ddclient packages.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// MockServer serves one in-memory file, the way an origin server would
// answer the preview fetcher.
type MockServer struct {
	Server *httptest.Server

	// Configuration
	Data             []byte        // Body served for GET
	SupportsRanges   bool          // Whether to honour Range requests
	ContentType      string        // Content-Type header value
	Filename         string        // Filename in Content-Disposition header
	Latency          time.Duration // Artificial latency per request
	FailOnNthRequest int           // Fail on Nth request (0 = don't fail)

	// Tracking
	RequestCount   atomic.Int64
	RangeRequests  atomic.Int64
	FullRequests   atomic.Int64
	FailedRequests atomic.Int64
	BytesServed    atomic.Int64
	LastRange      atomic.Value // string
}

// MockServerOption is a function that configures a MockServer.
type MockServerOption func(*MockServer)

// WithData sets the served body.
func WithData(data []byte) MockServerOption {
	return func(m *MockServer) {
		m.Data = data
	}
}

// WithRangeSupport enables or disables Range request support.
func WithRangeSupport(enabled bool) MockServerOption {
	return func(m *MockServer) {
		m.SupportsRanges = enabled
	}
}

// WithContentType sets the Content-Type header.
func WithContentType(ct string) MockServerOption {
	return func(m *MockServer) {
		m.ContentType = ct
	}
}

// WithFilename sets the filename in the Content-Disposition header.
func WithFilename(name string) MockServerOption {
	return func(m *MockServer) {
		m.Filename = name
	}
}

// WithLatency adds artificial latency per request.
func WithLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) {
		m.Latency = d
	}
}

// WithFailOnNthRequest causes the Nth request to fail with a 500.
func WithFailOnNthRequest(n int) MockServerOption {
	return func(m *MockServer) {
		m.FailOnNthRequest = n
	}
}

// NewMockServerT starts a file server and skips the test if binding fails.
// The server is closed when the test ends.
func NewMockServerT(t *testing.T, opts ...MockServerOption) *MockServer {
	t.Helper()
	m := &MockServer{
		Data:           make([]byte, 1024),
		SupportsRanges: true,
		ContentType:    "application/octet-stream",
	}
	for _, opt := range opts {
		opt(m)
	}
	m.LastRange.Store("")

	m.Server = NewHTTPServerT(t, http.HandlerFunc(m.handleRequest))
	return m
}

// URL returns the server's URL for path.
func (m *MockServer) URL(path string) string {
	return m.Server.URL + path
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.Server != nil {
		m.Server.Close()
	}
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	reqNum := m.RequestCount.Add(1)

	if m.FailOnNthRequest > 0 && reqNum == int64(m.FailOnNthRequest) {
		m.FailedRequests.Add(1)
		http.Error(w, "Simulated failure", http.StatusInternalServerError)
		return
	}

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-r.Context().Done():
			return
		}
	}

	size := int64(len(m.Data))
	start, end := int64(0), size-1
	status := http.StatusOK

	rangeHeader := r.Header.Get("Range")
	m.LastRange.Store(rangeHeader)
	if rangeHeader != "" && m.SupportsRanges && size > 0 {
		m.RangeRequests.Add(1)
		var err error
		start, end, err = parseRange(rangeHeader, size)
		if err != nil {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			http.Error(w, "Invalid range", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		status = http.StatusPartialContent
	} else {
		m.FullRequests.Add(1)
	}

	w.Header().Set("Content-Type", m.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	if m.SupportsRanges {
		w.Header().Set("Accept-Ranges", "bytes")
	}
	if m.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, m.Filename))
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead || size == 0 {
		return
	}
	n, _ := w.Write(m.Data[start : end+1])
	m.BytesServed.Add(int64(n))
}

// parseRange parses a single "bytes=start-end" range. An end past the
// file is clamped, as real servers do.
func parseRange(rangeHeader string, fileSize int64) (int64, int64, error) {
	byteRange, ok := strings.CutPrefix(rangeHeader, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range prefix")
	}
	first, last, ok := strings.Cut(byteRange, "-")
	if !ok || strings.Contains(last, ",") {
		return 0, 0, fmt.Errorf("invalid range format")
	}

	if first == "" {
		// suffix range: -500 means the last 500 bytes
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid suffix range")
		}
		if n > fileSize {
			n = fileSize
		}
		return fileSize - n, fileSize - 1, nil
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	end := fileSize - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil {
			return 0, 0, err
		}
		if end >= fileSize {
			end = fileSize - 1
		}
	}
	if start < 0 || start >= fileSize || start > end {
		return 0, 0, fmt.Errorf("range out of bounds")
	}
	return start, end, nil
}
