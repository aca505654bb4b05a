package shortlinks

import (
	"regexp"
	"strings"

	"github.com/linkcart/storefront-core/pkg/enums"
)

const (
	MinPathLength = 2
	MaxPathLength = 100
)

var pathCharset = regexp.MustCompile(`^[A-Za-z0-9_/-]+$`)

// ValidationResult is the outcome of a format check. Path holds the
// normalized (trimmed, lowercased) form when Valid.
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	Path      string              `json:"path,omitempty"`
	Violation enums.PathViolation `json:"violation,omitempty"`
	Message   string              `json:"message,omitempty"`
}

func violation(v enums.PathViolation, msg string) ValidationResult {
	return ValidationResult{Violation: v, Message: msg}
}

// NormalizePath trims surrounding whitespace and lowercases.
func NormalizePath(path string) string {
	return strings.ToLower(strings.TrimSpace(path))
}

// ValidatePathFormat reports the first formatting rule the path breaks.
func ValidatePathFormat(path string) ValidationResult {
	trimmed := strings.TrimSpace(path)
	switch {
	case len(trimmed) < MinPathLength:
		return violation(enums.PathViolationTooShort, "Path must be at least 2 characters")
	case len(trimmed) > MaxPathLength:
		return violation(enums.PathViolationTooLong, "Path must be at most 100 characters")
	case !pathCharset.MatchString(trimmed):
		return violation(enums.PathViolationInvalidCharacters, "Path may only contain letters, numbers, hyphens, underscores and slashes")
	case strings.ContainsAny(trimmed[:1], "-_/"):
		return violation(enums.PathViolationLeadingSpecialChar, "Path cannot start with a hyphen, underscore or slash")
	case strings.HasSuffix(trimmed, "/"):
		return violation(enums.PathViolationTrailingSlash, "Path cannot end with a slash")
	case strings.Contains(trimmed, "//"):
		return violation(enums.PathViolationDoubleSlash, "Path cannot contain consecutive slashes")
	}
	return ValidationResult{Valid: true, Path: strings.ToLower(trimmed)}
}
