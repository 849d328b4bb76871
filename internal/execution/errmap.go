package execution

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agentlab/evalrun/infrastructure/llm"
	"github.com/agentlab/evalrun/internal/domain"
)

// classification pairs a failure category with its recoverability and the
// standard human-readable description used for that category.
type classification struct {
	category    domain.FailureCategory
	description string
	recoverable bool
}

var classifications = map[domain.FailureCategory]classification{
	domain.CategoryParsingError: {
		domain.CategoryParsingError,
		"the model response could not be parsed into the expected structure", false,
	},
	domain.CategoryTokenLimitExceeded: {
		domain.CategoryTokenLimitExceeded,
		"the request or response exceeded the model's token limit", false,
	},
	domain.CategoryContentGuardrail: {
		domain.CategoryContentGuardrail,
		"the provider's content policy blocked the response", false,
	},
	domain.CategoryModelRefusal: {
		domain.CategoryModelRefusal,
		"the model declined to answer the question", false,
	},
	domain.CategoryNetworkTimeout: {
		domain.CategoryNetworkTimeout,
		"the request timed out or hit a transient network fault", true,
	},
	domain.CategoryRateLimitExceeded: {
		domain.CategoryRateLimitExceeded,
		"the provider rate-limited the request", true,
	},
	domain.CategoryCreditLimitExceeded: {
		domain.CategoryCreditLimitExceeded,
		"the provider account has exhausted its quota or credit", false,
	},
	domain.CategoryAuthenticationError: {
		domain.CategoryAuthenticationError,
		"the provider rejected the configured credentials", false,
	},
	domain.CategoryUnknown: {
		domain.CategoryUnknown,
		"an unclassified error occurred", false,
	},
}

// MapError translates a transport-level error into a domain failure reason.
// Typed provider errors are classified first; untyped errors fall back to
// ordered message-pattern matching, where specific patterns win over
// generic ones. Unrecognized errors map to the unknown category so the
// caller always gets a usable reason.
func MapError(err error, now time.Time) domain.FailureReason {
	category := Classify(err)
	c := classifications[category]
	return domain.NewFailureReason(c.category, c.description, err.Error(), c.recoverable, now)
}

// Classify resolves an error to its failure category without building the
// full reason.
func Classify(err error) domain.FailureCategory {
	if category, ok := classifyTyped(err); ok {
		return category
	}

	lower := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lower, pattern) {
				return rule.category
			}
		}
	}
	return domain.CategoryUnknown
}

// classifyTyped handles errors that carry their own classification.
func classifyTyped(err error) (domain.FailureCategory, bool) {
	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Type {
		case llm.ErrorTypeRateLimit:
			return domain.CategoryRateLimitExceeded, true
		case llm.ErrorTypeQuota:
			return domain.CategoryCreditLimitExceeded, true
		case llm.ErrorTypeAuthentication:
			return domain.CategoryAuthenticationError, true
		case llm.ErrorTypeTimeout, llm.ErrorTypeNetwork:
			return domain.CategoryNetworkTimeout, true
		case llm.ErrorTypeBadRequest:
			// A 400 means the request we built was malformed, which is a
			// defect in prompt or schema construction, not a provider fault.
			return domain.CategoryParsingError, true
		}
		// Server errors carry no dedicated category; fall through to
		// message matching.
		return "", false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.CategoryNetworkTimeout, true
	}
	if errors.Is(err, llm.ErrNoStructuredData) || errors.Is(err, llm.ErrEmptyResponse) {
		return domain.CategoryParsingError, true
	}

	return "", false
}

// ShouldRetry re-derives a retry decision from the error independently of
// the category mapping. Non-retryable patterns are checked first because
// they are the more specific ones: "rate limit exceeded due to quota" is a
// billing problem, not a transient one, and retrying it is pointless.
func ShouldRetry(err error) bool {
	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	lower := strings.ToLower(err.Error())
	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

var nonRetryablePatterns = []string{
	"insufficient credit", "insufficient_quota", "quota", "billing", "payment required", "402",
	"invalid api key", "incorrect api key", "unauthorized", "authentication", "401", "403",
	"content policy", "content_policy", "content filter",
}

var retryablePatterns = []string{
	"rate limit", "rate_limit", "too many requests", "429",
	"timeout", "timed out", "deadline exceeded", "connection refused",
	"connection reset", "no such host", "network",
	"500", "502", "503", "overloaded", "server error",
}

// messageRules is ordered: specific, unambiguous patterns precede generic
// ones so "insufficient credit" classifies as a billing failure before the
// broader limit patterns get a chance.
var messageRules = []struct {
	category domain.FailureCategory
	patterns []string
}{
	{domain.CategoryCreditLimitExceeded, []string{
		"insufficient credit", "insufficient_quota", "billing", "payment required", "402",
	}},
	{domain.CategoryAuthenticationError, []string{
		"invalid api key", "incorrect api key", "unauthorized", "authentication", "401", "403",
	}},
	{domain.CategoryRateLimitExceeded, []string{
		"rate limit", "rate_limit", "too many requests", "429",
	}},
	{domain.CategoryTokenLimitExceeded, []string{
		"maximum context length", "context length exceeded", "context_length_exceeded",
		"token limit", "max_tokens", "prompt is too long",
	}},
	{domain.CategoryContentGuardrail, []string{
		"content policy", "content_policy", "safety", "blocked by", "content filter", "harm_category",
	}},
	{domain.CategoryModelRefusal, []string{
		"refused", "refusal", "i cannot", "i can't assist", "unable to comply",
	}},
	{domain.CategoryNetworkTimeout, []string{
		"timeout", "timed out", "deadline exceeded", "connection refused",
		"connection reset", "no such host", "network",
	}},
	{domain.CategoryParsingError, []string{
		"failed to parse", "invalid json", "unexpected end of json", "unmarshal",
		"bad request", "malformed", "400",
	}},
}
