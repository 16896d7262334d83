// Package service implements the application's business flows on top of
// the store layer.
package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors shared by the services.
var (
	// ErrCommentBodyRequired indicates an empty comment body.
	ErrCommentBodyRequired = errors.New("comment body is required")

	// ErrCommentOwnerRequired indicates that neither (or both of) a task
	// and a project was given for a comment.
	ErrCommentOwnerRequired = errors.New("comment requires exactly one of task or project")

	// ErrParentMismatch indicates a reply whose parent comment belongs to
	// a different task or project.
	ErrParentMismatch = errors.New("parent comment belongs to a different task or project")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrMemberExists indicates the user is already on the project roster.
	ErrMemberExists = errors.New("user is already a project member")
)

// Error wraps service failures with the failing operation for logging.
type Error struct {
	// Operation is the operation that failed (e.g., "create_comment")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with operation context, passing sentinel errors
// through unchanged so callers can match on them.
func newError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrCommentBodyRequired,
		ErrCommentOwnerRequired,
		ErrParentMismatch,
		ErrNotFound,
		ErrInvalidCredentials,
		ErrForbidden,
		ErrMemberExists,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return &Error{Operation: operation, Message: message, Err: err}
}
