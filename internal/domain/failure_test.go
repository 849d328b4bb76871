package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFailureReason_Severity checks the category-to-severity grading.
func TestFailureReason_Severity(t *testing.T) {
	tests := []struct {
		category FailureCategory
		want     FailureSeverity
	}{
		{CategoryAuthenticationError, SeverityCritical},
		{CategoryCreditLimitExceeded, SeverityCritical},
		{CategoryContentGuardrail, SeverityHigh},
		{CategoryModelRefusal, SeverityHigh},
		{CategoryTokenLimitExceeded, SeverityHigh},
		{CategoryParsingError, SeverityMedium},
		{CategoryUnknown, SeverityMedium},
		{CategoryRateLimitExceeded, SeverityLow},
		{CategoryNetworkTimeout, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			reason := NewFailureReason(tt.category, "d", "", false, time.Now())
			assert.Equal(t, tt.want, reason.Severity())
		})
	}
}

// TestNewFailureReason verifies field capture and UTC normalization.
func TestNewFailureReason(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	now := time.Date(2026, 3, 1, 13, 0, 0, 0, loc)

	reason := NewFailureReason(CategoryRateLimitExceeded, "slow down", "429 too many requests", true, now)
	assert.Equal(t, CategoryRateLimitExceeded, reason.Category)
	assert.Equal(t, "slow down", reason.Description)
	assert.Equal(t, "429 too many requests", reason.TechnicalDetails)
	assert.True(t, reason.Recoverable)
	assert.Equal(t, now.UTC(), reason.OccurredAt)
	assert.Equal(t, time.UTC, reason.OccurredAt.Location())
}
