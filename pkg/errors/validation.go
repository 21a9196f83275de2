package errors

import (
	"strings"
	"unicode"
)

// MaxStepIDLength bounds step identifiers coming from files or the API.
const MaxStepIDLength = 256

// ValidateStepID rejects identifiers that cannot be rendered or cached safely:
// empty ids, ids longer than [MaxStepIDLength], and ids with control characters.
func ValidateStepID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "step id cannot be empty")
	}
	if len(id) > MaxStepIDLength {
		return New(ErrCodeInvalidInput, "step id too long (max %d characters)", MaxStepIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "step id %q contains control characters", id)
		}
	}
	return nil
}

// ValidateCourseID validates a course identifier before it is put into a URL path.
func ValidateCourseID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "course id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "course id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "course id contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "?", "#"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "course id contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidatePath validates a relative file path supplied by a remote caller.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths
//   - No path traversal sequences (..)
//   - No backslashes
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// ValidateURL ensures the URL has an http or https scheme.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// ValidateImageRef accepts marker image references: http(s) URLs, data URIs,
// and bare asset names such as "pikachu.png".
func ValidateImageRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidInput, "marker image reference cannot be empty")
	}
	if strings.HasPrefix(ref, "data:image/") {
		return nil
	}
	if strings.Contains(ref, "://") {
		return ValidateURL(ref)
	}
	return ValidatePath(ref)
}
