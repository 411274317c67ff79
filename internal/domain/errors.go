package domain

import (
	"fmt"
	"time"
)

// MalformedRowError reports a single archive row that failed
// validation. Rows are independent: the pipeline collects these and
// keeps going unless strict parsing is on.
type MalformedRowError struct {
	Line   int
	Column string
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("row %d: column %s: %s", e.Line, e.Column, e.Reason)
}

func malformed(line int, column, format string, args ...any) *MalformedRowError {
	return &MalformedRowError{Line: line, Column: column, Reason: fmt.Sprintf(format, args...)}
}

// ConflictingIdentityError reports observations under one storm ID
// that disagree on a storm-level attribute. The whole storm is
// rejected: there is no precedence rule for identity.
type ConflictingIdentityError struct {
	SID       string
	Attribute string
	Values    []string
}

func (e *ConflictingIdentityError) Error() string {
	return fmt.Sprintf("storm %s: conflicting %s values %v", e.SID, e.Attribute, e.Values)
}

// DuplicateTimestampError reports two canonical observations of one
// storm on the same synoptic timestamp. The merge step resolves
// multi-agency reports into one observation per time, so a surviving
// duplicate means corrupt input and fails the storm.
type DuplicateTimestampError struct {
	SID  string
	Time time.Time
}

func (e *DuplicateTimestampError) Error() string {
	return fmt.Sprintf("storm %s: duplicate observation at %s", e.SID, e.Time.UTC().Format(TimeLayout))
}
