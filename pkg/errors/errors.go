// Package errors provides structured error handling for Buddy
package errors

import (
	"fmt"

	"github.com/buddylabs/buddy/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Resource errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// System errors
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Configuration errors
	ErrCodeConfigError ErrorCode = "CONFIG_ERROR"
)

// BuddyError represents a structured error in Buddy
type BuddyError struct {
	Type    types.ErrorType        `json:"type"`
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *BuddyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *BuddyError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *BuddyError) WithDetail(key string, value interface{}) *BuddyError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new Buddy error
func New(errType types.ErrorType, code ErrorCode, message string) *BuddyError {
	return &BuddyError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// NewWithCause creates a new Buddy error with a cause
func NewWithCause(errType types.ErrorType, code ErrorCode, message string, cause error) *BuddyError {
	return &BuddyError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError reports malformed user input; surfaced as a
// user-visible message without aborting the request pipeline.
func NewValidationError(message string) *BuddyError {
	return New(types.ErrorTypeValidation, ErrCodeValidation, message)
}

// NewInvalidInputError reports rejected input with the offending field attached
func NewInvalidInputError(message string) *BuddyError {
	return New(types.ErrorTypeValidation, ErrCodeInvalidInput, message)
}

// NewUnauthorizedError reports a credential failure. The message is
// deliberately generic so account lookup failures and password mismatches
// are indistinguishable to the caller.
func NewUnauthorizedError(message string) *BuddyError {
	return New(types.ErrorTypeUnauthorized, ErrCodeUnauthorized, message)
}

// NewForbiddenError reports an authorization failure
func NewForbiddenError(message string) *BuddyError {
	return New(types.ErrorTypeUnauthorized, ErrCodeForbidden, message)
}

// NewInvalidTokenError reports a bad or expired session token
func NewInvalidTokenError() *BuddyError {
	return New(types.ErrorTypeUnauthorized, ErrCodeInvalidToken, "invalid token")
}

// NewNotFoundError reports a missing resource
func NewNotFoundError(resource string) *BuddyError {
	return New(types.ErrorTypeNotFound, ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource)).WithDetail("resource", resource)
}

// NewAlreadyExistsError reports a uniqueness violation
func NewAlreadyExistsError(resource string) *BuddyError {
	return New(types.ErrorTypeValidation, ErrCodeAlreadyExists,
		fmt.Sprintf("%s already exists", resource)).WithDetail("resource", resource)
}

// NewInternalError reports an unexpected internal failure
func NewInternalError(message string) *BuddyError {
	return New(types.ErrorTypeInternal, ErrCodeInternal, message)
}

// NewDatabaseError wraps a storage failure. Storage failures are fatal to
// the request: no retry, no partial-write recovery.
func NewDatabaseError(message string, cause error) *BuddyError {
	return NewWithCause(types.ErrorTypeInternal, ErrCodeDatabaseError, message, cause)
}

// NewConfigError reports invalid configuration
func NewConfigError(message string) *BuddyError {
	return New(types.ErrorTypeValidation, ErrCodeConfigError, message)
}

// IsBuddyError checks if an error is a BuddyError
func IsBuddyError(err error) bool {
	_, ok := err.(*BuddyError)
	return ok
}

// GetBuddyError extracts a BuddyError from an error
func GetBuddyError(err error) *BuddyError {
	if berr, ok := err.(*BuddyError); ok {
		return berr
	}
	return nil
}

// HasCode reports whether err is a BuddyError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	berr := GetBuddyError(err)
	return berr != nil && berr.Code == code
}
