package listview

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyUniverse is returned when "select all matching" is attempted
	// while the committed filter matches nothing.
	ErrEmptyUniverse = errors.New("no items match the current filter")

	// ErrNoMatches is returned when exclude-by-filter finds no identifiers.
	ErrNoMatches = errors.New("no items match the active filters")

	// ErrNothingToExclude is returned when no filter is active and the
	// visible page offers nothing eligible for exclusion.
	ErrNothingToExclude = errors.New("nothing on this page to exclude")

	// ErrRequestCanceled marks a request superseded by a newer one. It never
	// reaches the user.
	ErrRequestCanceled = errors.New("request superseded")

	// ErrEmptySelection is returned when a bulk action is resolved with a
	// logical count of zero.
	ErrEmptySelection = errors.New("selection is empty")

	// ErrCountMismatch means the server returned a different number of records
	// than the selection count shown to the user.
	ErrCountMismatch = errors.New("resolved record count does not match selection count")

	// ErrScreenClosed is returned by loads started after Close.
	ErrScreenClosed = errors.New("screen is closed")
)

// NetworkError wraps a failed backend call. The page it was loading is
// cleared and the failure can be retried.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable is always true; it exists so callers can offer a retry action
// without depending on the concrete type.
func (e *NetworkError) Retryable() bool { return true }

// IsNotice reports whether err is a logical precondition failure that should
// be shown as a transient notice rather than an error.
func IsNotice(err error) bool {
	return errors.Is(err, ErrEmptyUniverse) ||
		errors.Is(err, ErrNoMatches) ||
		errors.Is(err, ErrNothingToExclude) ||
		errors.Is(err, ErrEmptySelection)
}
