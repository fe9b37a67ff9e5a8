package utils

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// IsValidHTTPURL reports whether input is an absolute http or https URL.
// Surrounding whitespace is ignored, as browsers do when parsing URLs.
func IsValidHTTPURL(input string) bool {
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	if parsed.Hostname() == "" {
		return false
	}
	if port := parsed.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > 65535 {
			return false
		}
	}
	// url.Parse lowercases the scheme
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// FilenameFromURL extracts the last path segment of a URL
// Example: https://example.com/a/b/file.zip?x=1 -> file.zip
// Returns "" when the URL has no usable segment.
func FilenameFromURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	urlPath := strings.TrimSuffix(parsed.Path, "/")
	if urlPath == "" {
		return ""
	}

	name := path.Base(urlPath)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// IsSafeRelativePath mirrors the backend's target path validation: the path
// must be non-empty, relative, and free of ".." segments.
func IsSafeRelativePath(p string) bool {
	p = strings.TrimSpace(p)
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return false
	}
	if strings.ContainsRune(p, 0) {
		return false
	}
	// the backend rejects any occurrence of ".."
	return !strings.Contains(p, "..")
}
