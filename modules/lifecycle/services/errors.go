package services

import (
	"errors"
	"fmt"
)

var (
	ErrAppendRefused      = errors.New("append refused")
	ErrRemoveRefused      = errors.New("remove refused")
	ErrEditRefused        = errors.New("edit refused")
	ErrModeReadOnly       = errors.New("mode does not permit changes")
	ErrTerminalExists     = errors.New("list already holds the terminal category")
	ErrMaxLines           = errors.New("list reached its maximum length")
	ErrLastLine           = errors.New("cannot remove the only line")
	ErrNotLastLine        = errors.New("only the last line may be removed")
	ErrUnknownLine        = errors.New("unknown line")
	ErrDuplicateKey       = errors.New("line key used more than once")
	ErrFieldInactive      = errors.New("field is not active for the line category")
	ErrInvalidList        = errors.New("line list failed validation")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// ServiceError carries an API-facing status and code alongside the cause.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func refused(kind error, reason error) error {
	return fmt.Errorf("%w: %w", kind, reason)
}
