// Package preview decides whether a URL is worth previewing before it is
// queued, and fetches just enough of it to describe the image.
package preview

import "github.com/ddownloader/ddclient/internal/types"

// MaxPreviewBytes is the largest resource that is previewed.
const MaxPreviewBytes = 10 * 1024 * 1024

// previewTypes is compared verbatim against the backend's content type.
// "image/jpege" is deliberately kept alongside "image/jpeg".
var previewTypes = map[string]bool{
	"image/jpeg":  true,
	"image/jpg":   true,
	"image/png":   true,
	"image/jpege": true,
}

// ShouldPreview reports whether meta describes a small JPEG or PNG image.
func ShouldPreview(meta types.URLMetadata) bool {
	if meta.ContentLength > MaxPreviewBytes {
		return false
	}
	return previewTypes[meta.ContentType]
}
