package assemblyai

import (
	"sync"

	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/batch"
	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/realtime"
	"github.com/assemblyai/assemblyai-go-sdk/assemblyai/resources"
	"github.com/assemblyai/assemblyai-go-sdk/internal/httpx"
)

// Client is the main AssemblyAI SDK client. It is safe for concurrent use.
type Client struct {
	cfg       *Config
	transport *httpx.Transport
	mu        sync.RWMutex
	closed    bool

	// Resource accessors
	files       *resources.FilesResource
	transcripts *resources.TranscriptsResource
	lemur       *resources.LemurResource
	realtime    *resources.RealtimeResource
}

// NewClient creates a new AssemblyAI client with the given options.
func NewClient(opts ...Option) (*Client, error) {
	cfg := resolveConfig(opts...)

	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	transport := httpx.NewTransport(httpx.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		Headers:    cfg.Headers,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
		Retry: httpx.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
			Factor:     cfg.Retry.Factor,
			Jitter:     cfg.Retry.Jitter,
		},
		CircuitBreaker: httpx.CircuitBreakerConfig{
			Enabled:          cfg.CircuitBreaker.Enabled,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			SuccessThreshold: cfg.CircuitBreaker.SuccessThreshold,
			Timeout:          cfg.CircuitBreaker.Timeout,
		},
		Logger: wrapLogger(cfg.Logger),
	})

	c := &Client{
		cfg:       cfg,
		transport: transport,
	}

	c.initResources()
	c.log("client created", "base_url", cfg.BaseURL, "realtime_url", cfg.RealtimeURL, "poll_interval", cfg.Polling.Interval)

	return c, nil
}

// wrapLogger adapts an assemblyai.Logger to an httpx.Logger.
func wrapLogger(l Logger) httpx.Logger {
	if l == nil {
		return nil
	}
	return l
}

// initResources initializes all resource accessors.
func (c *Client) initResources() {
	base := resources.NewBase(c.transport)
	c.files = resources.NewFilesResource(base)
	c.transcripts = resources.NewTranscriptsResource(base, c.files, c.cfg.Polling)
	c.lemur = resources.NewLemurResource(base)
	c.realtime = resources.NewRealtimeResource(base)
}

// Close marks the client closed. In-flight calls are not interrupted.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// GetConfig returns a copy of the client configuration.
func (c *Client) GetConfig() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg := *c.cfg
	cfg.Headers = make(map[string]string, len(c.cfg.Headers))
	for k, v := range c.cfg.Headers {
		cfg.Headers[k] = v
	}
	return cfg
}

// Files returns the Files resource.
func (c *Client) Files() *resources.FilesResource {
	return c.files
}

// Transcripts returns the Transcripts resource.
func (c *Client) Transcripts() *resources.TranscriptsResource {
	return c.transcripts
}

// Lemur returns the LeMUR resource.
func (c *Client) Lemur() *resources.LemurResource {
	return c.lemur
}

// Realtime returns the resource that issues temporary streaming tokens.
func (c *Client) Realtime() *resources.RealtimeResource {
	return c.realtime
}

// NewRealtimeTranscriber creates a streaming transcriber authenticated with
// the client's API key. URL, APIKey and Logger default to the client's
// unless set in opts.
func (c *Client) NewRealtimeTranscriber(opts realtime.Options) *realtime.Transcriber {
	if opts.URL == "" {
		opts.URL = c.cfg.RealtimeURL
	}
	if opts.APIKey == "" && opts.Token == "" {
		opts.APIKey = c.cfg.APIKey
	}
	if opts.Logger == nil && c.cfg.Logger != nil {
		opts.Logger = c.cfg.Logger
	}
	return realtime.NewTranscriber(opts)
}

// NewBatchTranscriber creates a batch transcriber over the client's
// Transcripts resource.
func (c *Client) NewBatchTranscriber(opts batch.Options) *batch.Transcriber {
	if opts.Logger == nil && c.cfg.Logger != nil {
		opts.Logger = c.cfg.Logger
	}
	return batch.NewTranscriber(c.transcripts, opts)
}

// log logs a debug message if logging is enabled.
func (c *Client) log(msg string, keysAndValues ...any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debug(msg, keysAndValues...)
	}
}
