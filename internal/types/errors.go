package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for OpenVault errors.
type ErrorCode string

// Validation error codes
const (
	VALIDATION_EMPTY_TEXT    ErrorCode = "VALIDATION_EMPTY_TEXT"
	VALIDATION_TEXT_TOO_LONG ErrorCode = "VALIDATION_TEXT_TOO_LONG"
	VALIDATION_FAILED        ErrorCode = "VALIDATION_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Safety error codes
const (
	SAFETY_BLOCKED         ErrorCode = "SAFETY_BLOCKED"
	SAFETY_ANALYSIS_FAILED ErrorCode = "SAFETY_ANALYSIS_FAILED"
	SAFETY_REVISION_FAILED ErrorCode = "SAFETY_REVISION_FAILED"
)

// Storage error codes
const (
	STORE_OPEN_FAILED  ErrorCode = "STORE_OPEN_FAILED"
	STORE_QUERY_FAILED ErrorCode = "STORE_QUERY_FAILED"
)

// Internal error codes
const (
	INTERNAL_ERROR ErrorCode = "INTERNAL_ERROR"
)

// OpenVaultError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for error
// handling logic.
type OpenVaultError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *OpenVaultError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *OpenVaultError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *OpenVaultError) Is(target error) bool {
	var ovErr *OpenVaultError
	if errors.As(target, &ovErr) {
		return e.Code == ovErr.Code
	}
	return false
}

// NewError creates a new non-retryable OpenVaultError with the given code and message.
func NewError(code ErrorCode, message string) *OpenVaultError {
	return &OpenVaultError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable OpenVaultError with the given code and
// message. Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *OpenVaultError {
	return &OpenVaultError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable OpenVaultError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *OpenVaultError {
	return &OpenVaultError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}
