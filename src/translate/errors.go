package translate

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies provider failures.
type ErrorCode string

const (
	ErrorTimeout     ErrorCode = "TIMEOUT"
	ErrorAuth        ErrorCode = "AUTH"
	ErrorRateLimited ErrorCode = "RATE_LIMITED"
	ErrorBadResponse ErrorCode = "BAD_RESPONSE"
	ErrorUnavailable ErrorCode = "UNAVAILABLE"
	ErrorFailed      ErrorCode = "FAILED"
)

// ErrStreamConsumed is yielded when a stream is ranged over a second time.
var ErrStreamConsumed = errors.New("translate: stream already consumed")

// ProviderError is the only error a provider failure surfaces as.
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s provider %s: %v", e.Code, e.Provider, e.Cause)
	}
	return fmt.Sprintf("%s provider %s", e.Code, e.Provider)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func NewProviderError(provider string, code ErrorCode, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Cause: cause}
}

// CodeForStatus maps an HTTP status to an ErrorCode.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == 401 || status == 403:
		return ErrorAuth
	case status == 429:
		return ErrorRateLimited
	case status >= 500:
		return ErrorUnavailable
	case status >= 400:
		return ErrorBadResponse
	default:
		return ErrorFailed
	}
}

// asProviderError wraps err unless it already is a ProviderError.
func asProviderError(provider string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, ErrorTimeout, err)
	}
	return NewProviderError(provider, ErrorFailed, err)
}
