package pattern

import (
	"errors"
	"fmt"
)

// ErrReservedEventType is the cause of a PatternError whose event_type
// names one of the events a Session emits.
var ErrReservedEventType = errors.New("reserved event type")

// ValidationError reports a file-level problem such as an unsupported
// version or an empty pattern list.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// PatternError reports a problem with one pattern of the file.
type PatternError struct {
	Index   int    // 0-based position in the file
	ID      string // empty when the id itself is missing
	Field   string
	Message string
	Cause   error // e.g. the regexp compile error
}

func (e *PatternError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("pattern %q: %s: %s", e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("pattern[%d]: %s: %s", e.Index, e.Field, e.Message)
}

func (e *PatternError) Unwrap() error {
	return e.Cause
}
