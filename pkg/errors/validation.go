package errors

import (
	"strings"
	"unicode"
)

// ValidateClassName validates a fully-qualified class name read from an index
// archive. Index files can come from untrusted build inputs, so names are
// checked before they are used as lookup keys or file path components.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 512 characters
func ValidateClassName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidClass, "class name cannot be empty")
	}

	if len(name) > 512 {
		return New(ErrCodeInvalidClass, "class name too long (max 512 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidClass, "class name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidClass, "class name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateIndexFilename validates an index archive filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateIndexFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidIndex, "index filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidIndex, "index filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidIndex, "index filename cannot be a hidden file")
	}

	return nil
}
