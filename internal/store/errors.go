package store

import (
	"errors"
	"fmt"
)

// OpenError reports that the storage medium could not produce a handle.
type OpenError struct {
	Name string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Name, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// CloseError reports a failure while releasing a handle. It is not fatal:
// the handle counts as released regardless.
type CloseError struct {
	Name string
	Err  error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close %s: %v", e.Name, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }

// DeleteError reports that the database files could not be removed.
type DeleteError struct {
	Name string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Name, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// IsOpenError returns true if err is or wraps an *OpenError.
func IsOpenError(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}

// IsCloseError returns true if err is or wraps a *CloseError.
func IsCloseError(err error) bool {
	var ce *CloseError
	return errors.As(err, &ce)
}

// IsDeleteError returns true if err is or wraps a *DeleteError.
func IsDeleteError(err error) bool {
	var de *DeleteError
	return errors.As(err, &de)
}
