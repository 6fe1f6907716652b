package assemblyai

import (
	"errors"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
	"github.com/assemblyai/assemblyai-go-sdk/internal/httpx"
)

// Errors returned by API calls. Every one of them wraps *APIError.
type (
	// APIError is the base error for a failed API request.
	APIError = httpx.APIError
	// AuthenticationError represents a 401 error.
	AuthenticationError = httpx.AuthenticationError
	// AuthorizationError represents a 403 error.
	AuthorizationError = httpx.AuthorizationError
	// NotFoundError represents a 404 error.
	NotFoundError = httpx.NotFoundError
	// ConflictError represents a 409 error.
	ConflictError = httpx.ConflictError
	// ValidationError represents a 400/422 error returned by the API.
	ValidationError = httpx.ValidationError
	// RateLimitError represents a 429 error.
	RateLimitError = httpx.RateLimitError
	// PayloadTooLargeError represents a 413 error.
	PayloadTooLargeError = httpx.PayloadTooLargeError
	// ServerError represents a 5xx error.
	ServerError = httpx.ServerError
	// NetworkError represents a network-level error.
	NetworkError = httpx.NetworkError
	// TimeoutError is returned when a single HTTP request times out.
	TimeoutError = httpx.TimeoutError
	// CircuitBreakerOpenError is returned while the circuit breaker is open.
	CircuitBreakerOpenError = httpx.CircuitBreakerOpenError
)

// Errors raised by the SDK itself, before or between API calls.
type (
	// ParamsError is returned when request parameters are invalid.
	ParamsError = resources.ParamsError
	// UploadError is returned when audio could not be read or uploaded.
	UploadError = resources.UploadError
	// PollingTimeoutError is returned when a transcript is not ready within
	// the polling timeout.
	PollingTimeoutError = resources.PollingTimeoutError
	// ParseError is returned for a malformed list URL value.
	ParseError = resources.ParseError
)

// Sentinel errors for common conditions
var (
	// ErrNoAuth is returned when no API key is configured.
	ErrNoAuth = errors.New("assemblyai: no API key configured: use WithAPIKey")

	// ErrInvalidAPIKey is returned when the API key cannot be sent as a header.
	ErrInvalidAPIKey = errors.New("assemblyai: invalid API key: must not contain whitespace")

	// ErrMissingArgument is returned when a required argument is empty.
	ErrMissingArgument = resources.ErrMissingArgument

	// ErrPollingTimeout matches any PollingTimeoutError.
	ErrPollingTimeout = resources.ErrPollingTimeout
)

// IsRequestError returns true if the error came from an API request, either
// a response with an error status or a transport failure.
func IsRequestError(err error) bool {
	return httpx.IsRequestError(err)
}

// AsAPIError extracts the *APIError from a request error.
func AsAPIError(err error) (*APIError, bool) {
	return httpx.AsAPIError(err)
}

// IsRetryable returns true if repeating the request may succeed.
func IsRetryable(err error) bool {
	return httpx.IsRetryable(err)
}

// IsAuthenticationError returns true if the error is an authentication error.
func IsAuthenticationError(err error) bool {
	return httpx.IsAuthenticationError(err)
}

// IsNotFoundError returns true if the error is a not found error.
func IsNotFoundError(err error) bool {
	return httpx.IsNotFoundError(err)
}

// IsRateLimitError returns true if the error is a rate limit error.
func IsRateLimitError(err error) bool {
	return httpx.IsRateLimitError(err)
}

// IsValidationError returns true if the API rejected the request (400/422)
// or the SDK rejected the parameters before sending it.
func IsValidationError(err error) bool {
	var paramsErr *ParamsError
	return httpx.IsValidationError(err) || errors.As(err, &paramsErr)
}

// IsUploadError returns true if the error is an upload error.
func IsUploadError(err error) bool {
	var uploadErr *UploadError
	return errors.As(err, &uploadErr)
}

// IsPollingTimeout returns true if waiting for a transcript timed out.
func IsPollingTimeout(err error) bool {
	return errors.Is(err, ErrPollingTimeout)
}
