package errors

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking the wrapped call while the
// breaker is cooling down.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// CircuitBreaker trips after a run of consecutive failures and rejects
// calls for a cooldown period. One probe call is allowed once the
// cooldown elapses; its outcome closes or re-opens the breaker.
type CircuitBreaker struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	failures    int
	openedAt    time.Time
	open        bool
	halfOpen    bool
	probeActive bool
}

// NewCircuitBreaker builds a breaker; non-positive arguments fall back to
// defaults.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// Call runs fn unless the breaker is open.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	cb.mu.Lock()
	if cb.open {
		if time.Since(cb.openedAt) < cb.cooldown {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}

		// cooldown elapsed: allow a single probe
		if cb.probeActive {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.halfOpen = true
		cb.probeActive = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.halfOpen || cb.failures >= cb.threshold {
			cb.open = true
			cb.halfOpen = false
			cb.probeActive = false
			cb.openedAt = time.Now()
			cb.failures = 0
		}
		return err
	}

	cb.open = false
	cb.halfOpen = false
	cb.probeActive = false
	cb.failures = 0
	return nil
}

// Open reports whether the breaker is currently rejecting calls.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open && time.Since(cb.openedAt) < cb.cooldown
}
