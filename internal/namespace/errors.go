package namespace

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a folder or file that is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidName rejects empty names, the reserved root name, and names containing the separator.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidPath rejects malformed path-style identifiers.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidOperation rejects root mutation and self-parenting.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrCycleDetected rejects re-parenting a folder under one of its descendants.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrStorageIO wraps transient object-store failures.
	ErrStorageIO = errors.New("storage i/o error")
)

// CascadeError reports a partially-completed recursive folder delete.
// Metadata cleanup is best-effort: items in Deleted are gone, items in
// Failed remain and callers may re-issue the delete for the remainder.
type CascadeError struct {
	Deleted []string
	Failed  []string
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete incomplete: %d removed, %d failed", len(e.Deleted), len(e.Failed))
}

func (e *CascadeError) hasFailures() bool {
	return len(e.Failed) > 0
}
