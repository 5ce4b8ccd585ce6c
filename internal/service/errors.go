package service

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Common sentinel errors for the service layer. Every error returned
// by a service wraps one of the four taxonomy roots so callers can
// classify it with errors.Is:
//
//   - domain.ErrValidation: bad input, caller-fixable
//   - domain.ErrUnauthorized: actor lacks permission, never retried
//   - store.ErrNotFound: referenced entity absent
//   - domain.ErrInvalidState: illegal transition in the current state
var (
	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", store.ErrNotFound)

	// ErrAssigneeNotFound indicates that the requested assignee does
	// not exist.
	ErrAssigneeNotFound = fmt.Errorf("%w: assignee", store.ErrNotFound)

	// ErrCommentNotFound indicates that the comment does not exist.
	ErrCommentNotFound = fmt.Errorf("%w: comment", store.ErrNotFound)

	// ErrTaskArchived indicates a mutation was attempted on an archived
	// task; archived is terminal, so edits and deletes are refused
	// regardless of role.
	ErrTaskArchived = fmt.Errorf("%w: task is archived", domain.ErrInvalidState)

	// ErrTaskNotCompleted indicates an archive was attempted on a task
	// that has not been completed yet.
	ErrTaskNotCompleted = fmt.Errorf("%w: task is not completed", domain.ErrInvalidState)
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g. "create_task").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// newTaskServiceError wraps err with operation context. Errors that
// already carry taxonomy sentinels pass through errors.Is unchanged
// because TaskServiceError unwraps.
func newTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// asValidation tags a domain validation failure with the taxonomy root
// so callers can classify it without knowing every field-level
// sentinel.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}
