package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when an actor lacks permission for an
	// operation. Never retried.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrInvalidState is returned when an operation is not legal in the
	// entity's current lifecycle state, e.g. completing an archived task.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrInvalidRole is returned when a user role is not one of the
	// known roles.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidStatus is returned when a task status is not valid.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task priority is not valid.
	ErrInvalidPriority = errors.New("invalid task priority")
)
