package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"

	"github.com/ddownloader/ddclient/internal/types"
)

// SniffBytes is how much of the target is downloaded for a preview.
const SniffBytes = 64 * 1024

var (
	// ErrNotPreviewable is returned for metadata ShouldPreview rejects.
	ErrNotPreviewable = errors.New("resource is not previewable")
	// ErrNotImage is returned when the served bytes are not an image.
	ErrNotImage = errors.New("served content is not an image")
)

// Preview describes the first bytes of an image target.
type Preview struct {
	MIME      string
	Extension string
	Width     int // 0 when the header did not fit in SniffBytes
	Height    int
	Filename  string // from Content-Disposition, if the origin sent one
	Sniffed   int
}

// Summary is the one-line description shown in the wizard.
func (p *Preview) Summary() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(p.Extension))
	if p.Width > 0 && p.Height > 0 {
		fmt.Fprintf(&b, " %dx%d", p.Width, p.Height)
	}
	if p.Filename != "" {
		fmt.Fprintf(&b, " (served as %s)", p.Filename)
	}
	return b.String()
}

// Fetcher downloads the head of previewable targets.
type Fetcher struct {
	Client *http.Client
	Logger *log.Logger
}

// NewFetcher creates a Fetcher whose requests give up after timeout.
func NewFetcher(timeout time.Duration, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		Client: &http.Client{Timeout: timeout},
		Logger: logger.WithPrefix("preview"),
	}
}

// Fetch downloads up to SniffBytes of meta.URL and identifies the image.
func (f *Fetcher) Fetch(ctx context.Context, meta types.URLMetadata) (*Preview, error) {
	if !ShouldPreview(meta) {
		return nil, ErrNotPreviewable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", SniffBytes-1))

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("preview request failed: %s", resp.Status)
	}

	// servers that ignore Range still only get SniffBytes read
	head, err := io.ReadAll(io.LimitReader(resp.Body, SniffBytes))
	if err != nil {
		return nil, err
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(head) {
		return nil, ErrNotImage
	}

	p := &Preview{
		MIME:      kind.MIME.Value,
		Extension: kind.Extension,
		Sniffed:   len(head),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
		p.Width, p.Height = cfg.Width, cfg.Height
	} else {
		f.Logger.Debug("image header not decoded", "url", meta.URL, "err", err)
	}
	if _, filename, _ := httpheader.ContentDisposition(resp.Header); filename != "" {
		p.Filename = filename
	}

	f.Logger.Debug("preview", "url", meta.URL, "mime", p.MIME, "width", p.Width, "height", p.Height)
	return p, nil
}
