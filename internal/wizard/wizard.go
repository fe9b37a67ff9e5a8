// Package wizard holds the add-task flow as a plain state machine so the
// TUI only has to render it and run the fetches it asks for.
package wizard

import (
	"errors"
	"strings"

	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
)

// State is the wizard's position in the add-task flow.
type State int

const (
	EnterURL State = iota
	Loading
	MetadataReady
	MetadataFailed
	Queued
)

func (s State) String() string {
	switch s {
	case EnterURL:
		return "EnterURL"
	case Loading:
		return "Loading"
	case MetadataReady:
		return "MetadataReady"
	case MetadataFailed:
		return "MetadataFailed"
	case Queued:
		return "Queued"
	}
	return "Unknown"
}

// Step is the 1-based page shown to the user.
func (s State) Step() int {
	if s == EnterURL {
		return 1
	}
	return 2
}

var (
	ErrInvalidURL      = errors.New("enter an absolute http:// or https:// URL")
	ErrInvalidFileName = errors.New("file name must be relative and must not contain \"..\"")
)

// FetchRequest asks the caller to fetch metadata for URL and report the
// result with ResolveMetadata(Token, ...).
type FetchRequest struct {
	Token uint64
	URL   string
}

// Wizard is the add-task state machine. The zero value is not ready; use New.
type Wizard struct {
	state    State
	url      string
	fileName string
	meta     *types.URLMetadata
	token    uint64

	URLError    error // validation error shown under the URL field
	FetchError  error // metadata failure shown in MetadataFailed
	SubmitError error // file name or queue failure shown in MetadataReady
}

// New returns a wizard in EnterURL with empty fields.
func New() *Wizard {
	return &Wizard{state: EnterURL}
}

func (w *Wizard) State() State { return w.state }
func (w *Wizard) URL() string { return w.url }
func (w *Wizard) FileName() string { return w.fileName }
func (w *Wizard) Metadata() *types.URLMetadata { return w.meta }

// Token identifies the current fetch. Results carrying any other token are stale.
func (w *Wizard) Token() uint64 { return w.token }

// SetURL updates the URL while on step 1. No validation happens here.
func (w *Wizard) SetURL(u string) {
	if w.state != EnterURL {
		return
	}
	w.url = u
	w.URLError = nil
}

// Submit leaves step 1 if the URL is valid and returns the one metadata
// fetch the caller must issue. ok is false when nothing should be fetched.
func (w *Wizard) Submit() (req FetchRequest, ok bool) {
	if w.state != EnterURL {
		return FetchRequest{}, false
	}
	if !utils.IsValidHTTPURL(w.url) {
		w.URLError = ErrInvalidURL
		return FetchRequest{}, false
	}
	return w.beginFetch()
}

func (w *Wizard) beginFetch() (FetchRequest, bool) {
	u := strings.TrimSpace(w.url)
	// validated again immediately before every fetch
	if !utils.IsValidHTTPURL(u) {
		w.state = EnterURL
		w.URLError = ErrInvalidURL
		return FetchRequest{}, false
	}

	w.token++
	w.state = Loading
	w.URLError = nil
	w.FetchError = nil
	w.SubmitError = nil
	w.meta = nil
	w.fileName = ""
	return FetchRequest{Token: w.token, URL: u}, true
}

// ResolveMetadata applies a fetch result. It returns false and changes
// nothing when the result is stale.
func (w *Wizard) ResolveMetadata(token uint64, meta *types.URLMetadata, err error) bool {
	if w.state != Loading || token != w.token {
		return false
	}
	if err != nil || meta == nil {
		if err == nil {
			err = errors.New("empty metadata response")
		}
		w.state = MetadataFailed
		w.FetchError = err
		return true
	}

	m := *meta
	w.meta = &m
	w.fileName = m.ProposedFileName
	if strings.TrimSpace(w.fileName) == "" {
		w.fileName = utils.FilenameFromURL(w.url)
	}
	w.state = MetadataReady
	return true
}

// SetFileName edits the proposed file name on step 2.
func (w *Wizard) SetFileName(name string) {
	if w.state != MetadataReady {
		return
	}
	w.fileName = name
	w.SubmitError = nil
}

// Back returns to step 1, keeping the URL and forgetting any metadata.
// An in-flight fetch is invalidated.
func (w *Wizard) Back() {
	switch w.state {
	case Loading, MetadataReady, MetadataFailed:
	default:
		return
	}
	w.token++
	w.state = EnterURL
	w.meta = nil
	w.fileName = ""
	w.FetchError = nil
	w.SubmitError = nil
}

// Confirm validates the file name and returns the task to submit.
func (w *Wizard) Confirm() (types.TaskRequest, error) {
	if w.state != MetadataReady {
		return types.TaskRequest{}, errors.New("metadata is not ready")
	}
	name := strings.TrimSpace(w.fileName)
	if !utils.IsSafeRelativePath(name) {
		w.SubmitError = ErrInvalidFileName
		return types.TaskRequest{}, ErrInvalidFileName
	}

	w.state = Queued
	w.SubmitError = nil
	return types.TaskRequest{
		URL:                strings.TrimSpace(w.url),
		RelativeTargetPath: name,
	}, nil
}

// Reject reports that submitting a confirmed task failed, returning to step 2.
func (w *Wizard) Reject(err error) {
	if w.state != Queued {
		return
	}
	w.state = MetadataReady
	w.SubmitError = err
}

// Reset starts a fresh session. Pending fetches become stale.
func (w *Wizard) Reset() {
	token := w.token + 1
	*w = Wizard{state: EnterURL, token: token}
}
