package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openvault/openvault/internal/types"
)

// Completion provider error codes
const (
	ErrProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed    types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnavailable   types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized  types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited   types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderAlreadyExists types.ErrorCode = "LLM_PROVIDER_ALREADY_EXISTS"
	ErrProviderInvalidInput  types.ErrorCode = "LLM_PROVIDER_INVALID_INPUT"
)

// Request and completion error codes
const (
	ErrInvalidRequest    types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrCompletionFailed  types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrStreamingFailed   types.ErrorCode = "LLM_STREAMING_FAILED"
	ErrTimeoutExceeded   types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrContextCanceled   types.ErrorCode = "LLM_CONTEXT_CANCELED"
	ErrNetworkFailed     types.ErrorCode = "LLM_NETWORK_FAILED"
	ErrModelNotFound     types.ErrorCode = "LLM_MODEL_NOT_FOUND"
)

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var ovErr *types.OpenVaultError
	if !errors.As(err, &ovErr) {
		return false
	}

	if ovErr.Retryable {
		return true
	}

	switch ovErr.Code {
	case ErrNetworkFailed, ErrProviderRateLimited, ErrProviderUnavailable, ErrTimeoutExceeded:
		return true
	default:
		return false
	}
}

// IsProviderError reports whether the error originated in the completion
// provider layer. The orchestrator uses this to keep provider faults distinct
// from safety verdicts.
func IsProviderError(err error) bool {
	var ovErr *types.OpenVaultError
	if !errors.As(err, &ovErr) {
		return false
	}
	return strings.HasPrefix(string(ovErr.Code), "LLM_")
}

// NewProviderNotFoundError creates an error for when a provider is not found
func NewProviderNotFoundError(providerName string) *types.OpenVaultError {
	return types.NewError(ErrProviderNotFound, "provider not found: "+providerName)
}

// NewProviderUnavailableError creates a retryable error for when a provider is
// temporarily unavailable
func NewProviderUnavailableError(providerName string, cause error) *types.OpenVaultError {
	return &types.OpenVaultError{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting
func NewRateLimitError(providerName string) *types.OpenVaultError {
	return &types.OpenVaultError{
		Code:      ErrProviderRateLimited,
		Message:   "rate limit exceeded for provider: " + providerName,
		Retryable: true,
	}
}

// NewProviderUnauthorizedError creates an unauthorized provider error
func NewProviderUnauthorizedError(providerName string, cause error) *types.OpenVaultError {
	return &types.OpenVaultError{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", providerName),
		Cause:   cause,
	}
}

// NewInvalidRequestError creates an error for invalid requests
func NewInvalidRequestError(message string) *types.OpenVaultError {
	return types.NewError(ErrInvalidRequest, message)
}

// NewCompletionError creates an error for completion failures
func NewCompletionError(message string, cause error) *types.OpenVaultError {
	return types.WrapError(ErrCompletionFailed, message, cause)
}

// NewNetworkError creates a retryable error for network failures
func NewNetworkError(message string, cause error) *types.OpenVaultError {
	return &types.OpenVaultError{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a retryable error for timeout failures
func NewTimeoutError(message string) *types.OpenVaultError {
	return &types.OpenVaultError{
		Code:      ErrTimeoutExceeded,
		Message:   message,
		Retryable: true,
	}
}

// TranslateError translates generic provider errors into OpenVault errors
// based on error message content.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var ovErr *types.OpenVaultError
	if errors.As(err, &ovErr) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") || strings.Contains(lowerMsg, "api key"):
		return NewProviderUnauthorizedError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests"):
		return NewRateLimitError(provider)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(lowerMsg, "context canceled"):
		return types.WrapError(ErrContextCanceled, "completion canceled", err)
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(err.Error(), err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
