package errors

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxVersionNameLength bounds snapshot names.
const MaxVersionNameLength = 100

// ValidateVersionName validates a snapshot name supplied by a user.
//
// Rules:
//   - Name cannot be empty or whitespace only
//   - Maximum of MaxVersionNameLength characters
//   - No control characters (newlines, tabs, null bytes)
func ValidateVersionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidVersionName, "version name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxVersionNameLength {
		return New(ErrCodeInvalidVersionName, "version name too long (max %d characters)", MaxVersionNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidVersionName, "version name contains invalid control characters")
		}
	}

	return nil
}

// ValidateDimensions validates a canvas size for layout computation.
// Zero is accepted; negative, NaN, and infinite values are not.
func ValidateDimensions(width, height float64) error {
	for _, d := range []struct {
		name  string
		value float64
	}{{"width", width}, {"height", height}} {
		if math.IsNaN(d.value) || math.IsInf(d.value, 0) {
			return New(ErrCodeInvalidDimensions, "%s must be finite", d.name)
		}
		if d.value < 0 {
			return New(ErrCodeInvalidDimensions, "%s must be >= 0, got %v", d.name, d.value)
		}
	}
	return nil
}

// ValidateVersionID validates an identifier used to look up a snapshot.
// IDs become file names and Redis keys, so separators are rejected.
func ValidateVersionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "version id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "version id too long (max 64 characters)")
	}
	for _, r := range id {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return New(ErrCodeInvalidInput, "version id contains invalid character %q", r)
		}
	}
	return nil
}
