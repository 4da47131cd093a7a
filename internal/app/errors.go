package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyWatching indicates Watch was called while a watch is running.
	ErrAlreadyWatching = errors.New("already watching")

	// ErrNothingToWatch indicates no plugin root folder exists to watch.
	ErrNothingToWatch = errors.New("no plugin root folders to watch")

	// ErrEmptyTarget indicates a toggle was requested without a target.
	ErrEmptyTarget = errors.New("empty target")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (scan, disable, enable)
	Target string // Plugin name or path the operation was applied to
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InitError reports a component that could not be constructed.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
