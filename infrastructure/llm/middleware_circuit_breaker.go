package llm

import (
	"context"
	"sync"
	"time"
)

// CircuitBreakerState represents the current state of a circuit breaker.
type CircuitBreakerState int

const (
	// StateClosed allows all requests to pass through normally.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects all requests immediately to prevent cascading
	// failures after too many consecutive errors.
	StateOpen

	// StateHalfOpen allows limited requests to test service recovery
	// after the cooldown period expires.
	StateHalfOpen
)

// CircuitBreaker implements the circuit breaker pattern. It tracks
// consecutive failures and opens when they exceed the threshold, then
// tests recovery through half-open probes.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitBreakerState
	failureCount     int
	maxFailures      int
	cooldownDuration time.Duration
	lastFailure      time.Time
}

// NewCircuitBreaker creates a circuit breaker that opens after maxFailures
// consecutive errors and stays open for cooldownDuration before probing.
func NewCircuitBreaker(maxFailures int, cooldownDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		maxFailures:      maxFailures,
		cooldownDuration: cooldownDuration,
	}
}

// Call executes fn through the circuit breaker, returning ErrCircuitOpen
// immediately while the circuit is open.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cooldownDuration {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		fallthrough
	case StateHalfOpen:
		if err := fn(); err != nil {
			cb.recordFailure()
			cb.state = StateOpen
			return err
		}
		cb.failureCount = 0
		cb.state = StateClosed
		return nil
	default: // StateClosed
		if err := fn(); err != nil {
			cb.recordFailure()
			if cb.failureCount >= cb.maxFailures {
				cb.state = StateOpen
			}
			return err
		}
		cb.failureCount = 0
		return nil
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failureCount++
	cb.lastFailure = time.Now()
}

// GetState returns the current circuit breaker state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// circuitBreakerLLM wraps a CoreLLM with circuit breaking.
type circuitBreakerLLM struct {
	next    CoreLLM
	breaker *CircuitBreaker
}

// CircuitBreakerMiddleware creates middleware that protects the provider
// with a circuit breaker.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	breaker := NewCircuitBreaker(maxFailures, cooldown)
	return func(next CoreLLM) CoreLLM {
		return &circuitBreakerLLM{next: next, breaker: breaker}
	}
}

// DoRequest executes the request through the circuit breaker.
func (c *circuitBreakerLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	var resp Response
	err := c.breaker.Call(func() error {
		var callErr error
		resp, callErr = c.next.DoRequest(ctx, prompt, opts)
		return callErr
	})
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

// GetModel returns the model name from the wrapped implementation.
func (c *circuitBreakerLLM) GetModel() string { return c.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (c *circuitBreakerLLM) SetModel(m string) { c.next.SetModel(m) }
