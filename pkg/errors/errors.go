// Package errors contains the error helpers used throughout hoist. Errors are
// annotated with short context strings as they travel up the stack, so that a
// failure deep in a deploy reads like "upload: read archive: unexpected EOF".
package errors

import (
	goErrors "errors"
	"fmt"
)

// New creates a new error with the given formatted message.
func New(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goErrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return goErrors.As(err, target)
}

type withContext struct {
	context string
	cause   error
}

// WithContext annotates `err` with a description of what was being attempted
// when it occurred. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return withContext{context: context, cause: err}
}

func (err withContext) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.cause)
}

func (err withContext) Unwrap() error {
	return err.cause
}

// RootCause strips all of the context added by WithContext, and returns the
// original error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(withContext)
		if !ok {
			return err
		}
		err = ctxErr.cause
	}
}

// FriendlyError is an error whose message is meant to be shown directly to
// the user. Context added on top of it is dropped when printing.
type FriendlyError struct {
	msg string
}

// NewFriendlyError creates a new FriendlyError.
func NewFriendlyError(format string, a ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, a...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message that should be shown to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be printed for `err`.
// If the root cause has a friendly message, only that message is returned.
func GetPrintableMessage(err error) string {
	var friendly friendlyMessager
	if As(err, &friendly) {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
