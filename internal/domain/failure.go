package domain

import "time"

// FailureCategory classifies a per-question domain failure. The set is
// closed; unrecognized provider errors map to CategoryUnknown.
type FailureCategory string

const (
	// CategoryParsingError covers malformed requests and responses that
	// could not be parsed into the expected structured form.
	CategoryParsingError FailureCategory = "parsing_error"

	// CategoryTokenLimitExceeded covers context-window and output-length
	// overruns.
	CategoryTokenLimitExceeded FailureCategory = "token_limit_exceeded"

	// CategoryContentGuardrail covers responses blocked by the provider's
	// content policy.
	CategoryContentGuardrail FailureCategory = "content_guardrail"

	// CategoryModelRefusal covers explicit refusals by the model itself.
	CategoryModelRefusal FailureCategory = "model_refusal"

	// CategoryNetworkTimeout covers timeouts and transient network faults.
	CategoryNetworkTimeout FailureCategory = "network_timeout"

	// CategoryRateLimitExceeded covers provider rate limiting.
	CategoryRateLimitExceeded FailureCategory = "rate_limit_exceeded"

	// CategoryCreditLimitExceeded covers exhausted quotas and billing limits.
	CategoryCreditLimitExceeded FailureCategory = "credit_limit_exceeded"

	// CategoryAuthenticationError covers invalid or missing credentials.
	CategoryAuthenticationError FailureCategory = "authentication_error"

	// CategoryUnknown covers everything the mapper could not classify.
	CategoryUnknown FailureCategory = "unknown"
)

// FailureSeverity grades a failure for reporting. Severity is informational
// only; no control-flow decision consumes it.
type FailureSeverity string

const (
	SeverityLow      FailureSeverity = "low"
	SeverityMedium   FailureSeverity = "medium"
	SeverityHigh     FailureSeverity = "high"
	SeverityCritical FailureSeverity = "critical"
)

// FailureReason describes one classified per-question failure.
type FailureReason struct {
	// Category is the closed-set classification of the failure.
	Category FailureCategory `json:"category"`

	// Description is the human-readable summary.
	Description string `json:"description"`

	// TechnicalDetails preserves the original error text for diagnostics.
	TechnicalDetails string `json:"technical_details,omitempty"`

	// OccurredAt records when the failure was observed.
	OccurredAt time.Time `json:"occurred_at"`

	// Recoverable reports whether retrying the same question could
	// plausibly succeed. Informational: the engine does not retry.
	Recoverable bool `json:"recoverable"`
}

// NewFailureReason builds a FailureReason stamped with the given time.
func NewFailureReason(category FailureCategory, description, details string, recoverable bool, now time.Time) FailureReason {
	return FailureReason{
		Category:         category,
		Description:      description,
		TechnicalDetails: details,
		OccurredAt:       now.UTC(),
		Recoverable:      recoverable,
	}
}

// Severity grades the failure category for reporting dashboards.
func (f FailureReason) Severity() FailureSeverity {
	switch f.Category {
	case CategoryAuthenticationError, CategoryCreditLimitExceeded:
		return SeverityCritical
	case CategoryContentGuardrail, CategoryModelRefusal, CategoryTokenLimitExceeded:
		return SeverityHigh
	case CategoryParsingError, CategoryUnknown:
		return SeverityMedium
	case CategoryRateLimitExceeded, CategoryNetworkTimeout:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
