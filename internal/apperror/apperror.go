package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// ErrLocked marks a task-generation policy rejection: the user has not
	// yet met the unlock conditions for the language. Expected and
	// user-recoverable — handlers surface it with actionable detail
	// instead of a generic failure.
	ErrLocked = errors.New("locked")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Detail  any    // Optional: structured payload for the client (e.g. recordings needed)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// AlreadyExists returns a conflict error with a free-form message, for
// cases where no single id names the collision (duplicate email, a user
// who was already referred). Use Conflict when a concrete id exists.
func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Locked returns an AppError for a task-generation policy rejection.
// The detail payload tells the client what to do next — how many more
// recordings are needed, or which starter task is still pending.
func Locked(message string, detail any) *AppError {
	return &AppError{
		Err:     ErrLocked,
		Message: message,
		Detail:  detail,
	}
}
