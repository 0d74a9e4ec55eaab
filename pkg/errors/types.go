package errors

import (
	"fmt"
)

var (
	// ErrSnapshotNotFound is returned when a project has never been deployed
	// from this machine, so there's nothing to compare against.
	ErrSnapshotNotFound = New("snapshot not found")

	// ErrTransferInFlight is returned when a second transfer is started on a
	// connection before the first one finished.
	ErrTransferInFlight = New("another transfer is already in progress on this connection")

	// ErrStreamConsumed is returned when an upload stream is started twice.
	ErrStreamConsumed = New("upload stream already consumed")
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}
