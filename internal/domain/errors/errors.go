package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrConflict              = errors.New("conflict")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("operator identity required")
	ErrCriticalInconsistency = errors.New("critical inconsistency")
)

// Status is the result code reported by every engine operation.
type Status string

const (
	StatusOK                    Status = "ok"
	StatusValidation            Status = "validation_error"
	StatusConflict              Status = "conflict"
	StatusNotFound              Status = "not_found"
	StatusUnauthorized          Status = "unauthorized"
	StatusCriticalInconsistency Status = "critical_inconsistency"
	StatusInternal              Status = "internal"
)

// Validation wraps ErrValidation with a description of the violated precondition.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a description of the offending state.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound naming the missing entity.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// CriticalInconsistencyError reports state that automated recovery could not repair.
// It must reach an operator and never be retried automatically.
type CriticalInconsistencyError struct {
	OrderID    int64
	AttemptID  uuid.UUID
	OperatorID int64
	Detail     string
	Cause      error
}

func (e *CriticalInconsistencyError) Error() string {
	msg := fmt.Sprintf("critical inconsistency on order %d", e.OrderID)
	if e.AttemptID != uuid.Nil {
		msg += fmt.Sprintf(" (attempt %s)", e.AttemptID)
	}
	if e.OperatorID != 0 {
		msg += fmt.Sprintf(" by operator %d", e.OperatorID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CriticalInconsistencyError) Is(target error) bool {
	return target == ErrCriticalInconsistency
}

func (e *CriticalInconsistencyError) Unwrap() error {
	return e.Cause
}

// IsDomain reports whether err carries a definite outcome, as opposed to an
// infrastructure failure whose effect on the store is unknown.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrCriticalInconsistency)
}

// StatusOf maps an operation error to its status code.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrCriticalInconsistency):
		return StatusCriticalInconsistency
	case errors.Is(err, ErrValidation):
		return StatusValidation
	case errors.Is(err, ErrConflict):
		return StatusConflict
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return StatusUnauthorized
	default:
		return StatusInternal
	}
}
