package plugin

import (
	"errors"
	"fmt"
	"io/fs"
)

// Standard errors returned by plugswitch operations.
var (
	// ErrNotFound indicates a plugin file or directory was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDisabled indicates the plugin is already renamed to its disabled form.
	ErrAlreadyDisabled = errors.New("already removed")

	// ErrAlreadyEnabled indicates the plugin is already in its enabled form.
	ErrAlreadyEnabled = errors.New("already enabled")

	// ErrNotTracked indicates the plugin has no entry in the state table.
	ErrNotTracked = errors.New("not found in state table")

	// ErrCollision indicates the rename destination exists and can not be replaced.
	ErrCollision = errors.New("destination already exists")

	// ErrPermission indicates the operating system denied the operation.
	ErrPermission = errors.New("permission denied")

	// ErrIO indicates any other file system failure.
	ErrIO = errors.New("i/o failure")

	// ErrMalformedState indicates the persisted state record could not be parsed.
	ErrMalformedState = errors.New("malformed state record")

	// ErrTraversal indicates a directory could not be enumerated.
	ErrTraversal = errors.New("traversal failed")

	// ErrUnknownExtension indicates a state entry has no usable enabled-form extension.
	ErrUnknownExtension = errors.New("original extension unknown")
)

// PathError records a failed operation on a path, classified by Kind.
type PathError struct {
	Op   string // Operation that failed (disable, enable, discover, load, save)
	Path string
	Kind error // One of the sentinel errors above
	Err  error // Underlying error, may be nil
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Err != nil && e.Err != e.Kind {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
}

// Unwrap returns both the classification and the underlying error.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewPathError creates a PathError, classifying err when kind is nil.
func NewPathError(op, path string, kind, err error) *PathError {
	if kind == nil {
		kind = Classify(err)
	}
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}

// Classify maps a raw file system error onto the plugswitch taxonomy.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrExist):
		return ErrCollision
	case errors.Is(err, fs.ErrPermission):
		return ErrPermission
	default:
		return ErrIO
	}
}

// IsNotFound returns true if the error indicates a missing file or entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotTracked)
}

// IsNoop returns true if the error indicates the requested transition had
// already happened.
func IsNoop(err error) bool {
	return errors.Is(err, ErrAlreadyDisabled) || errors.Is(err, ErrAlreadyEnabled)
}
