package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// DefaultJitterFraction spreads retry delays by ±25% around the backoff.
const DefaultJitterFraction = 0.25

// retryLLM implements automatic retry with exponential backoff for
// transient provider failures.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	jitter     float64
}

// RetryMiddleware creates middleware that retries failed requests with
// exponential backoff, spreading each delay by the jitter fraction (0 to 1,
// negative means DefaultJitterFraction). Only errors classified retryable
// are retried; authentication, quota, and bad-request failures surface
// immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration, jitterFraction float64) Middleware {
	if jitterFraction < 0 {
		jitterFraction = DefaultJitterFraction
	}
	if jitterFraction > 1 {
		jitterFraction = 1
	}
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
			jitter:     jitterFraction,
		}
	}
}

// DoRequest executes the request with automatic retry logic, respecting
// circuit breaker state and context cancellation.
func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil {
			break
		}

		var provErr *ProviderError
		if errors.As(err, &provErr) && !provErr.IsRetryable() {
			break
		}

		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	return Response{}, fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryLLM) calculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Spread the delay uniformly across [delay*(1-jitter), delay*(1+jitter)].
	jitter := time.Duration(rand.Float64() * float64(delay) * 2 * r.jitter)
	delay = delay + jitter - time.Duration(float64(delay)*r.jitter)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

// GetModel returns the model name from the wrapped implementation.
func (r *retryLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
