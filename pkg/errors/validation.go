package errors

import (
	"strings"
	"unicode"
)

// ValidateMemberName validates an archive member name before it is used as a
// lookup key or written anywhere on disk.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No absolute paths or path traversal sequences
//   - Maximum length of 256 characters
func ValidateMemberName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidArchive, "member name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidArchive, "member name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArchive, "member name contains invalid control characters")
		}
	}

	if strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidArchive, "member name must be relative: %q", name)
	}

	for _, pattern := range []string{"..", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidArchive, "member name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates an output path supplied by a user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateOneOf checks that value is one of the allowed option values.
func ValidateOneOf(option, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(ErrCodeInvalidOption, "invalid %s: %q (must be one of: %s)", option, value, strings.Join(allowed, ", "))
}
