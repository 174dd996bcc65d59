// Package process provides the OS-neutral types and interfaces used to drive a remote process
package process

import (
	"errors"
	"fmt"
)

// Error kinds. Operations wrap one of these together with the underlying OS error,
// so callers can match the kind with errors.Is and the OS code with errors.As.
var (
	// ErrResolutionFailed is returned when an identifier cannot be mapped to a live process.
	ErrResolutionFailed = errors.New("process resolution failed")

	// ErrProcessNotFound is returned when no process name matches the requested prefix.
	ErrProcessNotFound = fmt.Errorf("%w: process not found", ErrResolutionFailed)

	ErrHandleCreationFailed = errors.New("handle creation failed")
	ErrAllocationFailed     = errors.New("remote allocation failed")
	ErrWriteFailed          = errors.New("remote write failed")
	ErrVerifyFailed         = errors.New("remote memory does not match payload")
	ErrSnapshotFailed       = errors.New("snapshot creation failed")
	ErrNoThreadsFound       = errors.New("no threads to enumerate")
	ErrQueueFailed          = errors.New("deferred call queuing failed")

	// ErrNoMoreEntries is returned by Snapshot.Next once the table is exhausted.
	ErrNoMoreEntries = errors.New("no more snapshot entries")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrThreadNotOpen is the thread counterpart of ErrProcessNotOpen.
	ErrThreadNotOpen = errors.New("thread not open")

	ErrNotAllocated     = errors.New("no remote allocation")
	ErrAlreadyAllocated = errors.New("remote memory already allocated")
	ErrShortWrite       = errors.New("short write")
)
