package trail

import (
	"fmt"
	"strings"
)

// Status is the learner's progress on a single step.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Completed
)

var statusNames = [...]string{
	NotStarted: "NOT_STARTED",
	InProgress: "IN_PROGRESS",
	Completed:  "COMPLETED",
}

// ParseStatus maps a backend status string onto a [Status].
// Matching ignores case, surrounding whitespace, and treats '-' and ' ' like
// '_'. Anything unrecognized is NotStarted, since the backend vocabulary may grow.
func ParseStatus(s string) Status {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "COMPLETED":
		return Completed
	case "IN_PROGRESS", "INPROGRESS":
		return InProgress
	default:
		return NotStarted
	}
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText encodes the status as its backend string.
func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("trail: invalid status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText decodes a backend string with [ParseStatus]; it never fails.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}
