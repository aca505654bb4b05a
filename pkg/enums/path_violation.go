package enums

import "fmt"

// PathViolation names the first formatting rule a short path breaks.
type PathViolation string

const (
	PathViolationTooShort           PathViolation = "too_short"
	PathViolationTooLong            PathViolation = "too_long"
	PathViolationInvalidCharacters  PathViolation = "invalid_characters"
	PathViolationLeadingSpecialChar PathViolation = "leading_special_char"
	PathViolationTrailingSlash      PathViolation = "trailing_slash"
	PathViolationDoubleSlash        PathViolation = "double_slash"
)

var validPathViolations = []PathViolation{
	PathViolationTooShort,
	PathViolationTooLong,
	PathViolationInvalidCharacters,
	PathViolationLeadingSpecialChar,
	PathViolationTrailingSlash,
	PathViolationDoubleSlash,
}

// String implements fmt.Stringer.
func (p PathViolation) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PathViolation.
func (p PathViolation) IsValid() bool {
	for _, candidate := range validPathViolations {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePathViolation converts raw input into a PathViolation.
func ParsePathViolation(value string) (PathViolation, error) {
	for _, candidate := range validPathViolations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid path violation %q", value)
}
