package state

import (
	"errors"
	"fmt"
)

// Sentinel errors for the state store.
var (
	// ErrConcurrentWrite is raised when a write guard is requested while
	// another one is live. This is a programming error.
	ErrConcurrentWrite = errors.New("state: concurrent write to store")

	// ErrGuardReleased is raised when a released guard is used.
	ErrGuardReleased = errors.New("state: write guard already released")

	// ErrStoreClosed is returned by Submit after the writer loop stopped.
	ErrStoreClosed = errors.New("state: store writer loop is not running")

	// ErrStoreRunning is returned when Run is called twice.
	ErrStoreRunning = errors.New("state: store writer loop already running")

	// ErrIndexOutOfRange is the cause of every IndexError.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// IndexError reports an out-of-range panel or tab index.
// It is raised as a panic value, since it indicates a caller bug.
type IndexError struct {
	// Kind is "panel" or "tab".
	Kind  string
	Index int
	Len   int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("state: %s index %d out of range [0, %d)", e.Kind, e.Index, e.Len)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

func checkIndex(kind string, i, n int) {
	if i < 0 || i >= n {
		panic(&IndexError{Kind: kind, Index: i, Len: n})
	}
}
