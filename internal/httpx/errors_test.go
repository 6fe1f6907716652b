package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestParseErrorFromResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       []byte
		headers    http.Header
		checkType  func(error) bool
		checkMsg   string
	}{
		{
			name:       "401 authentication error",
			statusCode: 401,
			body:       []byte(`{"error":"Authentication error, API token missing/invalid"}`),
			headers:    http.Header{"X-Request-Id": []string{"req-123"}},
			checkType:  IsAuthenticationError,
			checkMsg:   "assemblyai: status 401: Authentication error, API token missing/invalid",
		},
		{
			name:       "403 authorization error",
			statusCode: 403,
			body:       []byte(`{"error":"Your account does not have access to this model"}`),
			headers:    http.Header{},
			checkType: func(err error) bool {
				var authErr *AuthorizationError
				return errors.As(err, &authErr)
			},
			checkMsg: "assemblyai: status 403: Your account does not have access to this model",
		},
		{
			name:       "404 not found error",
			statusCode: 404,
			body:       []byte(`{"error":"Transcript lookup error, transcript id not found"}`),
			headers:    http.Header{},
			checkType:  IsNotFoundError,
			checkMsg:   "assemblyai: status 404: Transcript lookup error, transcript id not found",
		},
		{
			name:       "409 conflict error",
			statusCode: 409,
			body:       []byte(`{"error":"Transcript is still processing"}`),
			headers:    http.Header{},
			checkType: func(err error) bool {
				var conflictErr *ConflictError
				return errors.As(err, &conflictErr)
			},
			checkMsg: "assemblyai: status 409: Transcript is still processing",
		},
		{
			name:       "400 validation error",
			statusCode: 400,
			body:       []byte(`{"error":"Invalid audio_url"}`),
			headers:    http.Header{},
			checkType:  IsValidationError,
			checkMsg:   "assemblyai: status 400: Invalid audio_url",
		},
		{
			name:       "422 validation error",
			statusCode: 422,
			body:       []byte(`{"error":"Unprocessable entity"}`),
			headers:    http.Header{},
			checkType:  IsValidationError,
			checkMsg:   "assemblyai: status 422: Unprocessable entity",
		},
		{
			name:       "413 payload too large error",
			statusCode: 413,
			body:       []byte(`{"error":"File too large"}`),
			headers:    http.Header{},
			checkType: func(err error) bool {
				var payloadErr *PayloadTooLargeError
				return errors.As(err, &payloadErr)
			},
			checkMsg: "assemblyai: status 413: File too large",
		},
		{
			name:       "500 server error",
			statusCode: 500,
			body:       []byte(`{"error":"Internal server error"}`),
			headers:    http.Header{},
			checkType: func(err error) bool {
				var serverErr *ServerError
				return errors.As(err, &serverErr)
			},
			checkMsg: "assemblyai: status 500: Internal server error",
		},
		{
			name:       "message field from a proxy",
			statusCode: 502,
			body:       []byte(`{"message":"Bad gateway"}`),
			headers:    http.Header{},
			checkType: func(err error) bool {
				var serverErr *ServerError
				return errors.As(err, &serverErr)
			},
			checkMsg: "assemblyai: status 502: Bad gateway",
		},
		{
			name:       "plain text body",
			statusCode: 400,
			body:       []byte("bad request\n"),
			headers:    http.Header{},
			checkType:  IsValidationError,
			checkMsg:   "assemblyai: status 400: bad request",
		},
		{
			name:       "html body is dropped",
			statusCode: 503,
			body:       []byte("<html><body>Service Unavailable</body></html>"),
			headers:    http.Header{},
			checkType: func(err error) bool {
				var serverErr *ServerError
				return errors.As(err, &serverErr)
			},
			checkMsg: "assemblyai: status 503: service unavailable",
		},
		{
			name:       "empty body",
			statusCode: 500,
			body:       nil,
			headers:    http.Header{},
			checkType: func(err error) bool {
				var serverErr *ServerError
				return errors.As(err, &serverErr)
			},
			checkMsg: "assemblyai: status 500: internal server error",
		},
		{
			name:       "unmapped status",
			statusCode: 418,
			body:       []byte(`{"error":"teapot"}`),
			headers:    http.Header{},
			checkType:  IsRequestError,
			checkMsg:   "assemblyai: status 418: teapot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseErrorFromResponse(tt.statusCode, tt.body, tt.headers)

			if !tt.checkType(err) {
				t.Errorf("Expected error type check to pass for %v", err)
			}
			if !IsRequestError(err) {
				t.Errorf("IsRequestError(%v) = false", err)
			}
			if err.Error() != tt.checkMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.checkMsg)
			}
		})
	}
}

func TestParseErrorFromResponse_RequestID(t *testing.T) {
	err := ParseErrorFromResponse(404, []byte(`{"error":"not found"}`), http.Header{"X-Request-Id": []string{"req-123"}})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatal("Expected APIError")
	}
	if apiErr.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want %q", apiErr.RequestID, "req-123")
	}
	if string(apiErr.RawBody) != `{"error":"not found"}` {
		t.Errorf("RawBody = %q", apiErr.RawBody)
	}
}

func TestParseErrorFromResponse_RateLimit(t *testing.T) {
	tests := []struct {
		retryAfter string
		want       time.Duration
	}{
		{"60", 60 * time.Second},
		{"", 0},
		{"0", 0},
		{"soon", 0},
		{time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		t.Run(tt.retryAfter, func(t *testing.T) {
			headers := http.Header{}
			headers.Set("Retry-After", tt.retryAfter)
			err := ParseErrorFromResponse(429, []byte(`{"error":"Too many concurrent transcriptions"}`), headers)

			var rateLimitErr *RateLimitError
			if !errors.As(err, &rateLimitErr) {
				t.Fatalf("Expected RateLimitError, got %T", err)
			}
			if rateLimitErr.RetryAfter != tt.want {
				t.Errorf("RetryAfter = %v, want %v", rateLimitErr.RetryAfter, tt.want)
			}
			if !IsRetryable(err) {
				t.Error("429 should be retryable")
			}
		})
	}
}

func TestParseErrorFromResponse_RetryAfterDate(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", time.Now().Add(90*time.Second).UTC().Format(http.TimeFormat))

	var rateLimitErr *RateLimitError
	if !errors.As(ParseErrorFromResponse(429, nil, headers), &rateLimitErr) {
		t.Fatal("Expected RateLimitError")
	}
	if rateLimitErr.RetryAfter < 80*time.Second || rateLimitErr.RetryAfter > 90*time.Second {
		t.Errorf("RetryAfter = %v, want about 90s", rateLimitErr.RetryAfter)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"network error", NewNetworkError(errors.New("connection refused")), true},
		{"timeout error", NewTimeoutError(30*time.Second, errors.New("timeout")), true},
		{"server error (500)", &ServerError{APIError: &APIError{StatusCode: 500}}, true},
		{"rate limit error (429)", &RateLimitError{APIError: &APIError{StatusCode: 429}}, true},
		{"authentication error (401)", &AuthenticationError{APIError: &APIError{StatusCode: 401}}, false},
		{"validation error (400)", &ValidationError{APIError: &APIError{StatusCode: 400}}, false},
		{"not found error (404)", &NotFoundError{APIError: &APIError{StatusCode: 404}}, false},
		{"circuit breaker open error", NewCircuitBreakerOpenError(), false},
		{"wrapped server error", fmt.Errorf("get transcript: %w", &ServerError{APIError: &APIError{StatusCode: 503}}), true},
		{"generic error", errors.New("some error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "status and message",
			err:      &APIError{StatusCode: 400, Message: "Invalid audio_url"},
			expected: "assemblyai: status 400: Invalid audio_url",
		},
		{
			name:     "status only",
			err:      &APIError{StatusCode: 401},
			expected: "assemblyai: status 401: unauthorized",
		},
		{
			name:     "code and message",
			err:      &APIError{Code: "network_error", Message: "connection refused"},
			expected: "assemblyai: network_error: connection refused",
		},
		{
			name:     "nothing set",
			err:      &APIError{},
			expected: "assemblyai: request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	underlying := errors.New("dial tcp: connection refused")
	err := NewNetworkError(underlying)

	if !errors.Is(err, underlying) {
		t.Error("Expected Unwrap to expose underlying error")
	}
	if !IsRequestError(err) {
		t.Error("Network errors should be request errors")
	}
}

func TestAsAPIError(t *testing.T) {
	t.Run("extracts from typed error", func(t *testing.T) {
		extracted, ok := AsAPIError(&ServerError{APIError: &APIError{StatusCode: 500}})
		if !ok {
			t.Fatal("Expected to extract APIError from ServerError")
		}
		if extracted.StatusCode != 500 {
			t.Errorf("StatusCode = %d, want 500", extracted.StatusCode)
		}
	})

	t.Run("returns false for non-API error", func(t *testing.T) {
		if _, ok := AsAPIError(errors.New("generic error")); ok {
			t.Error("Expected AsAPIError to return false for generic error")
		}
	})
}
