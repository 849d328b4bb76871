package domain

import (
	"fmt"
	"time"
)

// EvaluationResults is the derived aggregate outcome of an evaluation.
// It is never persisted: it is always recomputed by folding over the
// evaluation's stored QuestionResult set, so it is correct for completed,
// interrupted, and still-running evaluations alike.
type EvaluationResults struct {
	// TotalQuestions counts every processed question, success or failure.
	TotalQuestions int `json:"total_questions"`

	// CorrectAnswers counts successfully processed questions graded correct.
	CorrectAnswers int `json:"correct_answers"`

	// Accuracy is CorrectAnswers / TotalQuestions * 100.
	Accuracy float64 `json:"accuracy"`

	// AverageExecutionTime is the mean provider-call duration across all
	// processed questions.
	AverageExecutionTime time.Duration `json:"average_execution_time"`

	// ErrorCount counts questions that failed processing.
	ErrorCount int `json:"error_count"`

	// DetailedResults holds the per-question records in benchmark order.
	DetailedResults []QuestionResult `json:"detailed_results"`
}

// ComputeResults folds the per-question records into aggregate metrics.
// It returns ErrNoResults when the record set is empty, since accuracy is
// undefined over zero questions.
func ComputeResults(records []QuestionResult) (EvaluationResults, error) {
	if len(records) == 0 {
		return EvaluationResults{}, ErrNoResults
	}

	var correct, failed int
	var totalTime time.Duration
	for _, r := range records {
		totalTime += r.ExecutionTime
		switch {
		case !r.Succeeded():
			failed++
		case r.IsCorrect != nil && *r.IsCorrect:
			correct++
		}
	}

	total := len(records)
	return EvaluationResults{
		TotalQuestions:       total,
		CorrectAnswers:       correct,
		Accuracy:             float64(correct) / float64(total) * 100,
		AverageExecutionTime: totalTime / time.Duration(total),
		ErrorCount:           failed,
		DetailedResults:      records,
	}, nil
}

// Progress is the storage-derived processing state of an evaluation.
// Counts always come from a fresh read of the persisted records, never from
// a separately maintained counter, so progress cannot drift from state.
type Progress struct {
	// Completed counts persisted question results, success or failure.
	Completed int `json:"completed"`

	// Successful counts persisted results on the success path.
	Successful int `json:"successful"`

	// Failed counts persisted results on the failure path.
	Failed int `json:"failed"`

	// Total is the benchmark's question count.
	Total int `json:"total"`

	// LatestTimestamp is the ProcessedAt of the most recent record,
	// nil when nothing has been processed yet.
	LatestTimestamp *time.Time `json:"latest_timestamp,omitempty"`
}

// Remaining returns the number of questions not yet processed.
func (p Progress) Remaining() int { return p.Total - p.Completed }

// ProgressInfo is the DTO handed to progress callbacks and the
// presentation layer after each persisted question result.
type ProgressInfo struct {
	// EvaluationID identifies the evaluation being reported on.
	EvaluationID string `json:"evaluation_id"`

	// CurrentQuestion is the 1-based count of processed questions.
	CurrentQuestion int `json:"current_question"`

	// TotalQuestions is the benchmark's question count.
	TotalQuestions int `json:"total_questions"`

	// SuccessfulAnswers counts questions processed without failure.
	SuccessfulAnswers int `json:"successful_answers"`

	// FailedQuestions counts questions recorded as failures.
	FailedQuestions int `json:"failed_questions"`

	// StartedAt is when the evaluation first began executing.
	StartedAt time.Time `json:"started_at"`

	// LastUpdated is the timestamp of the most recent persisted result.
	LastUpdated time.Time `json:"last_updated"`
}

// String renders a compact single-line progress summary.
func (p ProgressInfo) String() string {
	return fmt.Sprintf("%d/%d (ok=%d err=%d)",
		p.CurrentQuestion, p.TotalQuestions, p.SuccessfulAnswers, p.FailedQuestions)
}
