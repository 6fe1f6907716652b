package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is returned for any failed request: a non-2xx response or a
// transport failure. Typed wrappers below embed it.
type APIError struct {
	StatusCode int    `json:"status_code,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	RawBody    []byte `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("assemblyai: ")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "status %d", e.StatusCode)
	} else if e.Code != "" {
		b.WriteString(e.Code)
	} else {
		b.WriteString("request failed")
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.StatusCode > 0:
		b.WriteString(": ")
		b.WriteString(strings.ToLower(http.StatusText(e.StatusCode)))
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true for 5xx and 429 responses.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests
}

// AuthenticationError is returned for 401 responses (missing or invalid API key).
type AuthenticationError struct{ *APIError }

func (e *AuthenticationError) Unwrap() error { return e.APIError }

// AuthorizationError is returned for 403 responses.
type AuthorizationError struct{ *APIError }

func (e *AuthorizationError) Unwrap() error { return e.APIError }

// NotFoundError is returned for 404 responses, e.g. an unknown transcript ID.
type NotFoundError struct{ *APIError }

func (e *NotFoundError) Unwrap() error { return e.APIError }

// ConflictError is returned for 409 responses.
type ConflictError struct{ *APIError }

func (e *ConflictError) Unwrap() error { return e.APIError }

// ValidationError is returned for 400 and 422 responses.
type ValidationError struct{ *APIError }

func (e *ValidationError) Unwrap() error { return e.APIError }

// RateLimitError is returned for 429 responses. RetryAfter is zero when
// the response carried no usable Retry-After header.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Unwrap() error { return e.APIError }

// PayloadTooLargeError is returned for 413 responses, typically an upload
// over the size limit.
type PayloadTooLargeError struct{ *APIError }

func (e *PayloadTooLargeError) Unwrap() error { return e.APIError }

// ServerError is returned for 5xx responses.
type ServerError struct{ *APIError }

func (e *ServerError) Unwrap() error { return e.APIError }

func (e *ServerError) IsRetryable() bool { return true }

// NetworkError wraps a failure to reach the API at all.
type NetworkError struct{ *APIError }

func (e *NetworkError) Unwrap() error { return e.APIError }

func (e *NetworkError) IsRetryable() bool { return true }

// TimeoutError is returned when a single HTTP request exceeds its deadline.
// It is unrelated to the transcript polling timeout.
type TimeoutError struct {
	*APIError
	Timeout time.Duration
}

func (e *TimeoutError) Unwrap() error { return e.APIError }

func (e *TimeoutError) IsRetryable() bool { return true }

// CircuitBreakerOpenError is returned without contacting the API while the
// breaker is open.
type CircuitBreakerOpenError struct{ *APIError }

func (e *CircuitBreakerOpenError) Unwrap() error { return e.APIError }

func (e *CircuitBreakerOpenError) IsRetryable() bool { return false }

// errorBody is the shape of API error responses: {"error": "..."}. Some edge
// proxies answer with {"message": "..."} instead.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// statusErrors maps a response status to its typed wrapper. 429 and 5xx
// are handled separately.
var statusErrors = map[int]func(*APIError) error{
	http.StatusBadRequest:            func(e *APIError) error { return &ValidationError{e} },
	http.StatusUnauthorized:          func(e *APIError) error { return &AuthenticationError{e} },
	http.StatusForbidden:             func(e *APIError) error { return &AuthorizationError{e} },
	http.StatusNotFound:              func(e *APIError) error { return &NotFoundError{e} },
	http.StatusConflict:              func(e *APIError) error { return &ConflictError{e} },
	http.StatusRequestEntityTooLarge: func(e *APIError) error { return &PayloadTooLargeError{e} },
	http.StatusUnprocessableEntity:   func(e *APIError) error { return &ValidationError{e} },
}

// ParseErrorFromResponse maps a non-2xx response to a typed error.
func ParseErrorFromResponse(statusCode int, body []byte, headers http.Header) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		RequestID:  headers.Get("X-Request-ID"),
		RawBody:    body,
	}
	apiErr.Code, apiErr.Message = errorMessage(body)

	if wrap, ok := statusErrors[statusCode]; ok {
		return wrap(apiErr)
	}
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(headers.Get("Retry-After"))}
	case statusCode >= 500:
		return &ServerError{apiErr}
	}
	return apiErr
}

// errorMessage extracts the code and message of an error body. Plain-text
// bodies are kept; HTML error pages are not.
func errorMessage(body []byte) (code, message string) {
	if len(body) == 0 {
		return "", ""
	}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Error != "" {
			return eb.Code, eb.Error
		}
		return eb.Code, eb.Message
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") {
		return "", ""
	}
	return "", text
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// NewNetworkError creates a new network error.
func NewNetworkError(err error) *NetworkError {
	return &NetworkError{
		APIError: &APIError{
			Code:    "network_error",
			Message: err.Error(),
			Err:     err,
		},
	}
}

// NewTimeoutError creates a new request timeout error.
func NewTimeoutError(timeout time.Duration, err error) *TimeoutError {
	msg := "request deadline exceeded"
	if timeout > 0 {
		msg = fmt.Sprintf("request timed out after %v", timeout)
	}
	return &TimeoutError{
		APIError: &APIError{
			Code:    "timeout",
			Message: msg,
			Err:     err,
		},
		Timeout: timeout,
	}
}

// NewCircuitBreakerOpenError creates a new circuit breaker open error.
func NewCircuitBreakerOpenError() *CircuitBreakerOpenError {
	return &CircuitBreakerOpenError{
		APIError: &APIError{
			Code:    "circuit_breaker_open",
			Message: "too many consecutive failures, requests are paused",
		},
	}
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	type retryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	return false
}

// IsRequestError reports whether err came from a request to the API, either
// an error response or a transport failure.
func IsRequestError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsAuthenticationError returns true if the error is a 401 error.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsNotFoundError returns true if the error is a 404 error.
func IsNotFoundError(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsRateLimitError returns true if the error is a 429 error.
func IsRateLimitError(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsValidationError returns true if the error is a 400/422 error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// AsAPIError extracts the underlying API error.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
