package errors

import (
	"strings"
	"unicode"
)

// ValidateGroupKey validates a user-entered group key before normalization.
// An empty key is legal (it is coerced to the default group later); what is
// rejected is content that would corrupt composite child ids or stored
// JSON.
//
// The validation rules are intentionally conservative:
//   - No control characters
//   - No "::" (reserved by the composite child-id format)
//   - Maximum length of 64 characters
func ValidateGroupKey(key string) error {
	if len(key) > 64 {
		return New(ErrCodeInvalidGroupKey, "group key too long (max 64 characters)")
	}

	for _, r := range key {
		if unicode.IsControl(r) && r != '\t' {
			return New(ErrCodeInvalidGroupKey, "group key contains control characters")
		}
	}

	if strings.Contains(key, "::") {
		return New(ErrCodeInvalidGroupKey, "group key cannot contain %q", "::")
	}

	return nil
}

// ValidateMaskMode validates a stored mask-mode string. The empty string is
// accepted (no mode chosen yet).
func ValidateMaskMode(v string) error {
	switch v {
	case "", "solo", "all":
		return nil
	}
	return New(ErrCodeInvalidMaskMode, "unknown mask mode %q", v)
}

// ValidateImageRef validates a bare image reference (after link-wrapper
// stripping) for safety.
//
// Validation rules:
//   - Reference cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateImageRef(ref string) error {
	if ref == "" {
		return New(ErrCodeImageNotFound, "image reference is empty")
	}

	const maxRefLength = 500
	if len(ref) > maxRefLength {
		return New(ErrCodeImageNotFound, "image reference too long (max %d characters)", maxRefLength)
	}

	for _, r := range ref {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeImageNotFound, "image reference contains invalid characters")
		}
	}

	if strings.Contains(ref, "..") {
		return New(ErrCodeImageNotFound, "image reference cannot contain path traversal sequences (..)")
	}

	if strings.Contains(ref, "\\") {
		return New(ErrCodeImageNotFound, "image reference cannot contain backslashes")
	}

	return nil
}
