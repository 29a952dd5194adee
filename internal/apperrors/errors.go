package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request conflicts with the current state of a resource.
var ErrConflict = errors.New("conflict")

// ErrMissingExchangeRate indicates that no usable exchange rate exists for a currency pair.
var ErrMissingExchangeRate = errors.New("missing exchange rate")

// ErrInvalidExchangeRate indicates a non-positive or malformed exchange rate.
var ErrInvalidExchangeRate = errors.New("invalid exchange rate")

// ErrUnbalanced indicates that total debits differ from total credits.
var ErrUnbalanced = errors.New("journal entries do not balance")

// ErrAllocation indicates a payment allocation inconsistent with the referenced document.
var ErrAllocation = errors.New("allocation error")

// ErrRejected is returned when a rejected validation result is submitted for commit.
var ErrRejected = errors.New("posting rejected")

// AppError wraps an infrastructure failure with an HTTP-ish status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps ErrValidation with a message.
func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}
