package execution

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentlab/evalrun/infrastructure/llm"
	"github.com/agentlab/evalrun/internal/domain"
)

// TestClassify_MessagePatterns exercises the ordered pattern table over
// realistic provider error strings.
func TestClassify_MessagePatterns(t *testing.T) {
	tests := []struct {
		message string
		want    domain.FailureCategory
	}{
		{"Rate limit reached for gpt-4o", domain.CategoryRateLimitExceeded},
		{"429 Too Many Requests", domain.CategoryRateLimitExceeded},
		{"Incorrect API key provided", domain.CategoryAuthenticationError},
		{"401 Unauthorized", domain.CategoryAuthenticationError},
		{"You exceeded your current quota, insufficient_quota", domain.CategoryCreditLimitExceeded},
		{"402 Payment Required", domain.CategoryCreditLimitExceeded},
		{"This model's maximum context length is 128000 tokens", domain.CategoryTokenLimitExceeded},
		{"prompt is too long: 210000 tokens", domain.CategoryTokenLimitExceeded},
		{"Your request was blocked by our content policy", domain.CategoryContentGuardrail},
		{"response flagged by safety filters", domain.CategoryContentGuardrail},
		{"The model refused to answer", domain.CategoryModelRefusal},
		{"I cannot help with that request", domain.CategoryModelRefusal},
		{"dial tcp: connection refused", domain.CategoryNetworkTimeout},
		{"request timed out after 120s", domain.CategoryNetworkTimeout},
		{"unexpected end of JSON input", domain.CategoryParsingError},
		{"failed to parse model output", domain.CategoryParsingError},
		{"400 Bad Request", domain.CategoryParsingError},
		{"malformed request: invalid parameter", domain.CategoryParsingError},
		{"something completely novel happened", domain.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := Classify(errors.New(tt.message))
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestClassify_OrderingBeatsGenericPatterns verifies that specific
// categories win when a message matches several patterns.
func TestClassify_OrderingBeatsGenericPatterns(t *testing.T) {
	// "billing" (credit) beats the generic "limit" words elsewhere in the
	// message.
	got := Classify(errors.New("billing hard limit reached, request timed out? no: denied"))
	assert.Equal(t, domain.CategoryCreditLimitExceeded, got)

	// An authentication message mentioning retry timing must not classify
	// as a rate limit.
	got = Classify(errors.New("invalid api key; retry after 30s"))
	assert.Equal(t, domain.CategoryAuthenticationError, got)
}

// TestClassify_TypedErrors verifies typed provider errors short-circuit
// the message matching.
func TestClassify_TypedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.FailureCategory
	}{
		{
			name: "rate limit provider error",
			err:  llm.NewProviderError("openai", llm.ErrorTypeRateLimit, 429, "slow down", nil),
			want: domain.CategoryRateLimitExceeded,
		},
		{
			name: "quota provider error",
			err:  llm.NewProviderError("openai", llm.ErrorTypeQuota, 402, "no credit", nil),
			want: domain.CategoryCreditLimitExceeded,
		},
		{
			name: "auth provider error",
			err:  llm.NewProviderError("anthropic", llm.ErrorTypeAuthentication, 401, "bad key", nil),
			want: domain.CategoryAuthenticationError,
		},
		{
			name: "timeout provider error",
			err:  llm.NewProviderError("google", llm.ErrorTypeTimeout, 0, "deadline", nil),
			want: domain.CategoryNetworkTimeout,
		},
		{
			name: "bad request provider error",
			err:  llm.NewProviderError("openai", llm.ErrorTypeBadRequest, 400, "malformed request: invalid parameter", nil),
			want: domain.CategoryParsingError,
		},
		{
			name: "wrapped provider error",
			err:  fmt.Errorf("request failed: %w", llm.NewProviderError("openai", llm.ErrorTypeRateLimit, 429, "slow down", nil)),
			want: domain.CategoryRateLimitExceeded,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: domain.CategoryNetworkTimeout,
		},
		{
			name: "empty response sentinel",
			err:  llm.ErrEmptyResponse,
			want: domain.CategoryParsingError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

// TestMapError verifies the full reason construction, including the
// recoverable flag per category.
func TestMapError(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rate := MapError(errors.New("rate limit exceeded"), now)
	assert.Equal(t, domain.CategoryRateLimitExceeded, rate.Category)
	assert.True(t, rate.Recoverable, "rate limits are retryable.")
	assert.Equal(t, "rate limit exceeded", rate.TechnicalDetails)
	assert.Equal(t, now, rate.OccurredAt)

	auth := MapError(errors.New("401 unauthorized"), now)
	assert.Equal(t, domain.CategoryAuthenticationError, auth.Category)
	assert.False(t, auth.Recoverable, "credential failures do not heal on retry.")

	timeout := MapError(errors.New("context deadline exceeded"), now)
	assert.Equal(t, domain.CategoryNetworkTimeout, timeout.Category)
	assert.True(t, timeout.Recoverable)

	unknown := MapError(errors.New("weird"), now)
	assert.Equal(t, domain.CategoryUnknown, unknown.Category)
	assert.False(t, unknown.Recoverable)
	assert.NotEmpty(t, unknown.Description)
}

// TestShouldRetry verifies the independent retry decision, in particular
// that non-retryable patterns win when a message mentions both kinds.
func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limit", err: errors.New("rate limit exceeded, retry after 20s"), want: true},
		{name: "timeout", err: errors.New("request timed out"), want: true},
		{name: "server overload", err: errors.New("503 service overloaded"), want: true},
		{name: "auth", err: errors.New("invalid api key provided"), want: false},
		{name: "billing", err: errors.New("402 payment required"), want: false},
		{name: "rate limit caused by quota is not retryable",
			err: errors.New("rate limit exceeded due to insufficient_quota"), want: false},
		{name: "typed retryable",
			err:  llm.NewProviderError("openai", llm.ErrorTypeServerError, 500, "internal error", nil),
			want: true},
		{name: "typed non-retryable",
			err:  llm.NewProviderError("openai", llm.ErrorTypeQuota, 429, "quota exceeded", nil),
			want: false},
		{name: "unclassified", err: errors.New("weird"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}
