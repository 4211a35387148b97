package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Job intake errors
	ErrValidation         = errors.New("request validation failed")
	ErrExternalService    = errors.New("storage service failure")
	ErrJobCreation        = errors.New("failed to create media process")
	ErrCompile            = errors.New("cannot compile command")
	ErrRateLimited        = errors.New("too many submissions")
	ErrUnknownRequestKind = errors.New("unknown request kind")
)

// ValidationError carries the human readable reason a request was rejected.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// JobCreationError wraps any unexpected fault on the submit path.
type JobCreationError struct {
	Reason string
	Err    error
}

func NewJobCreationError(reason string, err error) *JobCreationError {
	if reason == "" {
		reason = ErrJobCreation.Error()
	}
	return &JobCreationError{Reason: reason, Err: err}
}

func (e *JobCreationError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *JobCreationError) Unwrap() error { return e.Err }

func (e *JobCreationError) Is(target error) bool { return target == ErrJobCreation }

// NotFoundError carries the caller-facing reason a lookup came back empty.
type NotFoundError struct {
	Reason string
}

func NewNotFoundError(reason string) *NotFoundError {
	return &NotFoundError{Reason: reason}
}

func (e *NotFoundError) Error() string { return e.Reason }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
