package archive

import (
	"fmt"
	"strings"
)

// NotFoundError reports a lookup that matched no storm.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no storm matches %s", e.Query)
}

// AmbiguousMatchError reports a lookup that matched more than one
// storm. SIDs lets the caller retry by exact identifier.
type AmbiguousMatchError struct {
	Query string
	SIDs  []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d storms match %s: %s", len(e.SIDs), e.Query, strings.Join(e.SIDs, ", "))
}
