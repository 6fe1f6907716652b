package httpx

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RetryPolicy implements exponential backoff with optional jitter.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Factor     float64
	Jitter     bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetryPolicy creates a new retry policy. MaxRetries is taken as given;
// zero disables retries.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Factor == 0 {
		cfg.Factor = 2.0
	}

	return &RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		MaxDelay:   cfg.MaxDelay,
		Factor:     cfg.Factor,
		Jitter:     cfg.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay calculates the delay for a given retry attempt (0-indexed).
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	jitter := 1.0
	if p.Jitter {
		p.mu.Lock()
		jitter = 0.5 + p.rng.Float64()
		p.mu.Unlock()
	}
	return p.DelayWithJitter(attempt, jitter)
}

// DelayWithJitter calculates delay with a fixed jitter factor (0.5 to 1.5).
func (p *RetryPolicy) DelayWithJitter(attempt int, jitterFactor float64) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay * jitterFactor)
}

// DelayFor returns the delay before retrying after err. A Retry-After hint
// from a 429 response takes precedence, capped at MaxDelay.
func (p *RetryPolicy) DelayFor(attempt int, err error) time.Duration {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
		if rateLimitErr.RetryAfter > p.MaxDelay {
			return p.MaxDelay
		}
		return rateLimitErr.RetryAfter
	}
	return p.Delay(attempt)
}

// ShouldRetry returns true if we haven't exhausted retry attempts.
func (p *RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}
