package publish

import (
	"fmt"
	"strings"
)

// ValidationError carries every field rejected by the gate
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "invalid changes: " + strings.Join(msgs, "; ")
}

// NotFoundError means the page does not exist or vanished before the write
type NotFoundError struct {
	PageID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.PageID)
}

// PersistenceError wraps a storage failure opaque to this layer
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
