// Package httpx provides the HTTP transport used by the AssemblyAI SDK.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/assemblyai/assemblyai-go-sdk/internal/version"
)

// Transport wraps an http.Client with auth headers, optional retries and an
// optional circuit breaker.
type Transport struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	userAgent      string
	headers        map[string]string
	retry          *RetryPolicy
	circuitBreaker *CircuitBreaker
	logger         Logger
}

// Logger is an interface for debug logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

// Config holds configuration for the transport.
type Config struct {
	BaseURL        string
	APIKey         string
	UserAgent      string
	Headers        map[string]string
	Timeout        time.Duration
	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig
	Logger         Logger
	// HTTPClient replaces the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Factor     float64
	Jitter     bool
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultRetryConfig returns the default retry configuration. Retries are off
// unless MaxRetries is raised.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Factor:     2.0,
		Jitter:     true,
	}
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          false,
		FailureThreshold: 5,
		SuccessThreshold: 3,
		Timeout:          30 * time.Second,
	}
}

// NewTransport creates a new Transport with the given configuration.
func NewTransport(cfg Config) *Transport {
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	t := &Transport{
		client:    httpClient,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		headers:   cfg.Headers,
		logger:    cfg.Logger,
		retry:     NewRetryPolicy(cfg.Retry),
	}

	if cfg.CircuitBreaker.Enabled {
		t.circuitBreaker = NewCircuitBreaker(cfg.CircuitBreaker)
		t.circuitBreaker.OnStateChange(func(from, to CircuitState) {
			t.log("circuit breaker state changed", "from", from, "to", to)
		})
	}

	return t
}

// Request represents an HTTP request to be made.
type Request struct {
	Method string
	// Path is appended to the base URL. URL, when set, is used verbatim instead.
	Path string
	URL  string
	Body any
	// RawBody, when set, is sent verbatim instead of Body. Unlike BodyReader
	// it can be replayed, so idempotent requests with a RawBody are retried.
	RawBody []byte
	// BodyReader streams the request body. Requests with a BodyReader are never retried.
	BodyReader  io.Reader
	ContentType string
	Accept      string
	Query       map[string]string
	Headers     map[string]string
	// SkipAuth omits the Authorization header (e.g. for pre-signed download URLs).
	SkipAuth   bool
	Idempotent bool // If true, can be retried for POST
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	RequestID  string
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Do executes an HTTP request with retry and circuit breaker logic.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	err := t.withRetry(ctx, req, func() error {
		httpResp, err := t.send(ctx, req)
		if err != nil {
			return err
		}
		resp, err = readResponse(httpResp)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.log("received response", "status", resp.StatusCode, "request_id", resp.RequestID)
	return resp, nil
}

// Stream executes a GET request against an absolute URL, such as a
// pre-signed media URL, without the API key and returns the open response
// body. The caller must close it. Failed attempts are retried like any
// other GET.
func (t *Transport) Stream(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req := &Request{Method: http.MethodGet, URL: rawURL, Accept: "*/*", SkipAuth: true}
	var body io.ReadCloser
	err := t.withRetry(ctx, req, func() error {
		httpResp, err := t.send(ctx, req)
		if err != nil {
			return err
		}
		body = httpResp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// withRetry runs attempt until it succeeds, the error is not retryable for
// req, or retries are exhausted.
func (t *Transport) withRetry(ctx context.Context, req *Request, attempt func() error) error {
	if t.circuitBreaker != nil && !t.circuitBreaker.Allow() {
		return NewCircuitBreakerOpenError()
	}

	var lastErr error
	for n := 0; n <= t.retry.MaxRetries; n++ {
		if n > 0 {
			delay := t.retry.DelayFor(n-1, lastErr)
			t.log("retrying request", "attempt", n, "delay", delay, "url", t.requestURL(req))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := attempt()
		if t.circuitBreaker != nil && !errors.Is(err, context.Canceled) {
			t.circuitBreaker.Record(err)
		}
		if err == nil {
			return nil
		}

		lastErr = err
		if !t.shouldRetry(req, err, n) {
			break
		}
	}
	return lastErr
}

// requestURL resolves the URL of req, including its query.
func (t *Transport) requestURL(req *Request) string {
	fullURL := req.URL
	if fullURL == "" {
		fullURL = t.baseURL + req.Path
	}
	if len(req.Query) == 0 {
		return fullURL
	}
	q := url.Values{}
	for k, v := range req.Query {
		q.Set(k, v)
	}
	if encoded := q.Encode(); encoded != "" {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + encoded
	}
	return fullURL
}

// requestBody returns the body of req and its default content type.
func requestBody(req *Request) (io.Reader, string, error) {
	switch {
	case req.BodyReader != nil:
		// Hide any Close method: net/http closes request bodies, and the
		// reader belongs to the caller.
		return struct{ io.Reader }{req.BodyReader}, "application/octet-stream", nil
	case req.RawBody != nil:
		return bytes.NewReader(req.RawBody), "application/octet-stream", nil
	case req.Body != nil:
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(bodyBytes), "application/json", nil
	}
	return nil, "", nil
}

// send executes a single HTTP request. On success the response body is
// open; error statuses are read, closed and mapped to typed errors.
func (t *Transport) send(ctx context.Context, req *Request) (*http.Response, error) {
	fullURL := t.requestURL(req)

	bodyReader, contentType, err := requestBody(req)
	if err != nil {
		return nil, err
	}
	if req.ContentType != "" {
		contentType = req.ContentType
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("X-AssemblyAI-SDK-Name", version.SDKName)
	httpReq.Header.Set("X-AssemblyAI-SDK-Version", version.Version)
	httpReq.Header.Set("X-AssemblyAI-SDK-Language", version.Language)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	// The API expects the raw key, without an auth scheme.
	if !req.SkipAuth && t.apiKey != "" {
		httpReq.Header.Set("Authorization", t.apiKey)
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	t.log("executing request", "method", req.Method, "url", fullURL)
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, NewTimeoutError(t.client.Timeout, ctxErr)
			}
			return nil, ctxErr
		}
		return nil, NewNetworkError(err)
	}

	if httpResp.StatusCode >= 400 {
		defer httpResp.Body.Close()
		body, _ := io.ReadAll(httpResp.Body)
		return nil, ParseErrorFromResponse(httpResp.StatusCode, body, httpResp.Header)
	}
	return httpResp, nil
}

// readResponse reads and closes the body of a successful response.
func readResponse(httpResp *http.Response) (*Response, error) {
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
		RequestID:  httpResp.Header.Get("X-Request-ID"),
	}, nil
}

// shouldRetry determines if a request should be retried.
func (t *Transport) shouldRetry(req *Request, err error, attempt int) bool {
	if attempt >= t.retry.MaxRetries {
		return false
	}

	// A consumed reader cannot be replayed.
	if req.BodyReader != nil {
		return false
	}

	if req.Method == http.MethodPost && !req.Idempotent {
		return false
	}

	return IsRetryable(err)
}

// Debug logs through the configured logger, if any.
func (t *Transport) Debug(msg string, keysAndValues ...any) {
	t.log(msg, keysAndValues...)
}

// log logs a debug message.
func (t *Transport) log(msg string, keysAndValues ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, keysAndValues...)
	}
}

// JSON decodes the response body into v. An empty body leaves v untouched.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
