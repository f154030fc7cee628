package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNoCenter        = errors.New("snapshot has no center node")
	ErrMultipleCenters = errors.New("snapshot has more than one center node")
	ErrDuplicateNode   = errors.New("duplicate node id")
	ErrUnknownNode     = errors.New("unknown node id")
	ErrInvalidRecord   = errors.New("invalid node record")
)

// GraphError provides structured error information for snapshot construction
// and lookup.
type GraphError struct {
	Op     string // Operation that failed (e.g., "build", "load")
	NodeID string // Offending node id, if any
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s node %q: %v", e.Op, e.NodeID, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func newError(op, nodeID string, cause error) error {
	return &GraphError{Op: op, NodeID: nodeID, Cause: cause}
}
