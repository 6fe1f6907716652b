package assemblyai

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
	"github.com/assemblyai/assemblyai-go-sdk/internal/version"
)

// Default configuration values
const (
	DefaultBaseURL     = "https://api.assemblyai.com"
	DefaultRealtimeURL = "wss://api.assemblyai.com/v2/realtime/ws"
	DefaultTimeout     = 30 * time.Second
)

// realtimePath is appended to a derived realtime URL.
const realtimePath = "/v2/realtime/ws"

// RetryConfig configures retry behavior for failed idempotent requests.
// Retries are disabled unless MaxRetries is above zero.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int
	// BaseDelay is the initial delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
	// Factor is the exponential backoff multiplier.
	Factor float64
	// Jitter enables randomized jitter on retry delays.
	Jitter bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Factor:     2.0,
		Jitter:     true,
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Enabled determines if circuit breaker is active.
	Enabled bool
	// FailureThreshold is the number of failures before opening the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of successes needed to close the circuit.
	SuccessThreshold int
	// Timeout is the duration the circuit stays open before allowing a test request.
	Timeout time.Duration
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

// Logger is the interface for debug logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

// LoggerFunc is a function adapter for Logger.
type LoggerFunc func(msg string, keysAndValues ...any)

// Debug implements Logger.
func (f LoggerFunc) Debug(msg string, keysAndValues ...any) {
	f(msg, keysAndValues...)
}

// Config holds the SDK configuration.
type Config struct {
	// APIKey is sent verbatim in the Authorization header.
	APIKey string

	// BaseURL is the base URL for the REST API.
	BaseURL string
	// RealtimeURL is the WebSocket endpoint for streaming transcription.
	RealtimeURL string

	// Timeout is the per-request timeout. It does not bound polling.
	Timeout time.Duration
	// Retry is the retry configuration.
	Retry RetryConfig
	// CircuitBreaker is the circuit breaker configuration.
	CircuitBreaker CircuitBreakerConfig
	// Polling holds the defaults used by WaitUntilReady and Transcribe.
	Polling resources.PollOptions

	// Headers are additional headers to include in all requests.
	Headers map[string]string
	// UserAgent is the custom user agent string.
	UserAgent string
	// Logger is the debug logger.
	Logger Logger
	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client

	realtimeURLSet bool
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the base URL for the REST API.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithRealtimeURL sets the streaming endpoint. Without it the endpoint is
// derived from the base URL.
func WithRealtimeURL(url string) Option {
	return func(c *Config) {
		c.RealtimeURL = strings.TrimSuffix(url, "/")
		c.realtimeURLSet = true
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithRetry sets the retry configuration.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Config) {
		c.Retry = cfg
	}
}

// WithCircuitBreaker sets the circuit breaker configuration.
func WithCircuitBreaker(cfg CircuitBreakerConfig) Option {
	return func(c *Config) {
		c.CircuitBreaker = cfg
	}
}

// WithPolling sets the default poll interval and timeout used when waiting
// for transcripts. A zero interval keeps the 3s default; a zero timeout
// waits indefinitely.
func WithPolling(interval, timeout time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.Polling.Interval = interval
		}
		c.Polling.Timeout = timeout
	}
}

// WithHeaders sets additional headers for all requests.
func WithHeaders(headers map[string]string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range headers {
			c.Headers[k] = v
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithHTTPClient sets the HTTP client used for REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithDebug enables debug logging to stdout.
func WithDebug(enabled bool) Option {
	return func(c *Config) {
		if enabled {
			c.Logger = LoggerFunc(func(msg string, keysAndValues ...any) {
				fmt.Println(formatDebug(msg, keysAndValues...)...)
			})
		}
	}
}

func formatDebug(msg string, keysAndValues ...any) []any {
	parts := []any{"[assemblyai-sdk]", msg}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	return parts
}

// newDefaultConfig creates a new config with default values.
func newDefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		RealtimeURL:    DefaultRealtimeURL,
		Timeout:        DefaultTimeout,
		Retry:          DefaultRetryConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Polling:        resources.DefaultPollOptions(),
		Headers:        make(map[string]string),
		UserAgent:      version.UserAgent(),
	}
}

// resolveConfig applies options and resolves derived values.
func resolveConfig(opts ...Option) *Config {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.realtimeURLSet && cfg.BaseURL != DefaultBaseURL {
		cfg.RealtimeURL = deriveRealtimeURL(cfg.BaseURL)
	}

	return cfg
}

// deriveRealtimeURL converts an HTTP base URL to the streaming endpoint.
func deriveRealtimeURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://") + realtimePath
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://") + realtimePath
	default:
		return baseURL + realtimePath
	}
}

// ValidateAPIKey checks that key is usable as an Authorization header value.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAuth
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return ErrInvalidAPIKey
	}
	return nil
}
