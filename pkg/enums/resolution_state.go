package enums

import "fmt"

// ResolutionState tracks a short path lookup at request time.
type ResolutionState string

const (
	ResolutionStateChecking      ResolutionState = "checking"
	ResolutionStateFoundActive   ResolutionState = "found_active"
	ResolutionStateFoundInactive ResolutionState = "found_inactive"
	ResolutionStateNotFound      ResolutionState = "not_found"
	ResolutionStateRedirect      ResolutionState = "redirect"
)

var validResolutionStates = []ResolutionState{
	ResolutionStateChecking,
	ResolutionStateFoundActive,
	ResolutionStateFoundInactive,
	ResolutionStateNotFound,
	ResolutionStateRedirect,
}

// String implements fmt.Stringer.
func (r ResolutionState) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ResolutionState.
func (r ResolutionState) IsValid() bool {
	for _, candidate := range validResolutionStates {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResolutionState converts raw input into a ResolutionState.
func ParseResolutionState(value string) (ResolutionState, error) {
	for _, candidate := range validResolutionStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resolution state %q", value)
}
