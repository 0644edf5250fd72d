package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store and the lifecycle
// controller wraps exactly one of these, so callers branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStorageFailure    = errors.New("storage failure")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("request %w", ErrNotFound)
	ErrMediaNotFound   = fmt.Errorf("media %w", ErrNotFound)

	ErrEmptyProblemText = fmt.Errorf("%w: problem text is required", ErrInvalidInput)
	ErrInvalidRole      = fmt.Errorf("%w: unknown role", ErrInvalidInput)
	ErrInvalidUserID    = fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	ErrInvalidPhotoRef  = fmt.Errorf("%w: malformed photo reference", ErrInvalidInput)
	ErrUnknownAction    = fmt.Errorf("%w: unknown action", ErrInvalidInput)
	ErrInvalidStatus    = fmt.Errorf("%w: unknown status", ErrInvalidInput)

	ErrForbidden       = fmt.Errorf("%w: actor is not permitted", ErrInvalidTransition)
	ErrWorkerNotMaster = fmt.Errorf("%w: assignee must have role master", ErrInvalidTransition)
	ErrPhotoRequired   = fmt.Errorf("%w: completion requires an after photo", ErrInvalidTransition)
	ErrStatusConflict  = fmt.Errorf("%w: request status changed concurrently", ErrInvalidTransition)
)

// StorageError wraps a failure of the underlying persistence layer.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageFailure.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}

// Retryable reports whether err may succeed if the same call is repeated
// unchanged. Only storage failures are transient.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
