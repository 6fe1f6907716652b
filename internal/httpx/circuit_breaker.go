package httpx

import (
	"sync"
	"time"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	// CircuitClosed lets every request through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests until the cool-down elapses.
	CircuitOpen
	// CircuitHalfOpen lets probe requests through to decide whether to close.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker pauses requests after consecutive service-side failures.
// Only failures the service is responsible for (5xx, network, timeouts,
// throttling) count; a 404 for an unknown transcript says nothing about the
// health of the API and resets the streak like a success.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitState
	failures         int
	probeSuccesses   int
	failureThreshold int
	successThreshold int
	coolDown         time.Duration
	changedAt        time.Time
	onStateChange    func(from, to CircuitState)
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		coolDown:         cfg.Timeout,
		changedAt:        time.Now(),
	}
}

// OnStateChange registers fn to be called, with the lock released, after
// every state transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to CircuitState)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may be sent now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	if cb.state == CircuitOpen && time.Since(cb.changedAt) >= cb.coolDown {
		notify := cb.transitionLocked(CircuitHalfOpen)
		cb.mu.Unlock()
		notify()
		return true
	}
	allowed := cb.state != CircuitOpen
	cb.mu.Unlock()
	return allowed
}

// Record feeds the outcome of a request into the breaker. A nil error or a
// non-retryable error counts as success.
func (cb *CircuitBreaker) Record(err error) {
	if err != nil && IsRetryable(err) {
		cb.RecordFailure()
		return
	}
	cb.RecordSuccess()
}

// RecordSuccess records a healthy response.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	notify := func() {}
	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.probeSuccesses++
		if cb.probeSuccesses >= cb.successThreshold {
			notify = cb.transitionLocked(CircuitClosed)
		}
	}
	cb.mu.Unlock()
	notify()
}

// RecordFailure records a service-side failure.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	notify := func() {}
	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			notify = cb.transitionLocked(CircuitOpen)
		}
	case CircuitHalfOpen:
		notify = cb.transitionLocked(CircuitOpen)
	}
	cb.mu.Unlock()
	notify()
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	notify := cb.transitionLocked(CircuitClosed)
	cb.mu.Unlock()
	notify()
}

// Snapshot returns the breaker's counters.
func (cb *CircuitBreaker) Snapshot() CircuitBreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerSnapshot{
		State:          cb.state,
		Failures:       cb.failures,
		ProbeSuccesses: cb.probeSuccesses,
		ChangedAt:      cb.changedAt,
	}
}

// CircuitBreakerSnapshot is a point-in-time copy of breaker state.
type CircuitBreakerSnapshot struct {
	State          CircuitState
	Failures       int
	ProbeSuccesses int
	ChangedAt      time.Time
}

// transitionLocked must be called with mu held. The returned func runs the
// state change callback and must be called after mu is released.
func (cb *CircuitBreaker) transitionLocked(to CircuitState) func() {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.probeSuccesses = 0
	cb.changedAt = time.Now()

	fn := cb.onStateChange
	if fn == nil || from == to {
		return func() {}
	}
	return func() { fn(from, to) }
}
