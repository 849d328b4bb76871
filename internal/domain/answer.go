package domain

import (
	"fmt"
	"maps"
	"time"
)

// ApproachType identifies the reasoning approach that produced a trace.
type ApproachType string

const (
	// ApproachNone means the agent answered without explicit reasoning.
	ApproachNone ApproachType = "none"

	// ApproachChainOfThought means the agent reasoned step by step.
	ApproachChainOfThought ApproachType = "chain_of_thought"
)

// ReasoningTrace captures the reasoning an agent produced on the way to an
// answer. The invariant is enforced at construction: a "none" trace carries
// no reasoning text, a chain-of-thought trace must carry some.
type ReasoningTrace struct {
	// ApproachType identifies how the reasoning was produced.
	ApproachType ApproachType `json:"approach_type"`

	// ReasoningText is the agent's reasoning, empty for ApproachNone.
	ReasoningText string `json:"reasoning_text"`

	// Metadata carries approach-specific annotations.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewReasoningTrace builds a ReasoningTrace, enforcing the approach/text
// invariant.
func NewReasoningTrace(approach ApproachType, text string, metadata map[string]string) (ReasoningTrace, error) {
	switch approach {
	case ApproachNone:
		if text != "" {
			return ReasoningTrace{}, fmt.Errorf("reasoning trace: approach %q must not carry reasoning text", approach)
		}
	case ApproachChainOfThought:
		if text == "" {
			return ReasoningTrace{}, fmt.Errorf("reasoning trace: approach %q requires reasoning text", approach)
		}
	default:
		return ReasoningTrace{}, fmt.Errorf("reasoning trace: unknown approach %q", approach)
	}

	tr := ReasoningTrace{ApproachType: approach, ReasoningText: text}
	if len(metadata) > 0 {
		tr.Metadata = maps.Clone(metadata)
	}
	return tr, nil
}

// TokenUsage records the token consumption of one LLM interaction.
type TokenUsage struct {
	// PromptTokens counts tokens in the request.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens counts tokens in the response.
	CompletionTokens int `json:"completion_tokens"`
}

// Total returns the combined token count.
func (u TokenUsage) Total() int { return u.PromptTokens + u.CompletionTokens }

// Answer is the value object a reasoning agent produces for one question.
type Answer struct {
	// ExtractedAnswer is the final answer text pulled from the response.
	ExtractedAnswer string `json:"extracted_answer"`

	// ReasoningTrace records how the agent arrived at the answer.
	ReasoningTrace ReasoningTrace `json:"reasoning_trace"`

	// Confidence is the model's self-reported confidence in [0,1],
	// nil when the model did not report one.
	Confidence *float64 `json:"confidence,omitempty"`

	// ExecutionTime is the wall-clock duration of the provider call.
	ExecutionTime time.Duration `json:"execution_time"`

	// TokenUsage records token consumption for the call.
	TokenUsage TokenUsage `json:"token_usage"`

	// RawResponse preserves the provider's unprocessed response text.
	RawResponse string `json:"raw_response,omitempty"`
}

// Validate checks the Answer's numeric invariants.
func (a Answer) Validate() error {
	if a.ExecutionTime < 0 {
		return fmt.Errorf("answer: execution time must be non-negative, got %v", a.ExecutionTime)
	}
	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 1) {
		return fmt.Errorf("answer: confidence must be in [0,1], got %v", *a.Confidence)
	}
	return nil
}
