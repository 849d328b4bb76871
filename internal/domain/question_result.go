package domain

import (
	"fmt"
	"time"
)

// QuestionResult is the immutable, append-only record of one question's
// outcome within one evaluation. It is written exactly once, immediately
// after the question finishes, and doubles as the resume checkpoint: a
// persisted row means the question never runs again.
//
// Exactly one of the success fields (ActualAnswer + IsCorrect) or the
// failure field (ErrorMessage) is populated.
type QuestionResult struct {
	// ID uniquely identifies this record (UUID).
	ID string `json:"id"`

	// EvaluationID identifies the owning evaluation.
	EvaluationID string `json:"evaluation_id"`

	// QuestionID identifies the question within the benchmark.
	// (EvaluationID, QuestionID) is unique.
	QuestionID string `json:"question_id"`

	// QuestionText snapshots the question as asked.
	QuestionText string `json:"question_text"`

	// ExpectedAnswer snapshots the ground truth at processing time.
	ExpectedAnswer string `json:"expected_answer"`

	// ActualAnswer is the agent's answer. Nil on the failure path.
	ActualAnswer *string `json:"actual_answer,omitempty"`

	// IsCorrect records the grading outcome. Nil on the failure path.
	IsCorrect *bool `json:"is_correct,omitempty"`

	// ExecutionTime is the wall-clock duration of the provider call.
	ExecutionTime time.Duration `json:"execution_time"`

	// ReasoningTrace preserves the agent's reasoning for successful answers.
	ReasoningTrace *ReasoningTrace `json:"reasoning_trace,omitempty"`

	// ErrorMessage describes the failure. Nil on the success path.
	ErrorMessage *string `json:"error_message,omitempty"`

	// TechnicalDetails preserves the original error text for diagnostics.
	TechnicalDetails string `json:"technical_details,omitempty"`

	// ProcessedAt records when the question finished processing.
	ProcessedAt time.Time `json:"processed_at"`
}

// NewSuccessResult builds the record for a successfully answered question.
func NewSuccessResult(id, evaluationID string, q Question, answer Answer, correct bool, now time.Time) QuestionResult {
	text := answer.ExtractedAnswer
	trace := answer.ReasoningTrace
	return QuestionResult{
		ID:             id,
		EvaluationID:   evaluationID,
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		ExpectedAnswer: q.ExpectedAnswer,
		ActualAnswer:   &text,
		IsCorrect:      &correct,
		ExecutionTime:  answer.ExecutionTime,
		ReasoningTrace: &trace,
		ProcessedAt:    now.UTC(),
	}
}

// NewFailureResult builds the record for a question that failed processing.
func NewFailureResult(id, evaluationID string, q Question, reason FailureReason, execTime time.Duration, now time.Time) QuestionResult {
	msg := reason.Description
	return QuestionResult{
		ID:               id,
		EvaluationID:     evaluationID,
		QuestionID:       q.ID,
		QuestionText:     q.Text,
		ExpectedAnswer:   q.ExpectedAnswer,
		ExecutionTime:    execTime,
		ErrorMessage:     &msg,
		TechnicalDetails: reason.TechnicalDetails,
		ProcessedAt:      now.UTC(),
	}
}

// Succeeded reports whether this record is on the success path.
func (r QuestionResult) Succeeded() bool { return r.ErrorMessage == nil }

// Validate checks the mutual-exclusion and numeric invariants of the record.
func (r QuestionResult) Validate() error {
	if r.ExecutionTime < 0 {
		return fmt.Errorf("question result %s: execution time must be non-negative", r.ID)
	}
	success := r.ActualAnswer != nil && r.IsCorrect != nil
	failure := r.ErrorMessage != nil
	if success == failure {
		return fmt.Errorf("question result %s: exactly one of the success or failure path must be set", r.ID)
	}
	return nil
}
