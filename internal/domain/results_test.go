package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successRecord(t *testing.T, evalID, questionID string, correct bool, took time.Duration) QuestionResult {
	t.Helper()
	q := NewQuestion(questionID, "What is 2+2?", "4", nil)
	answer := Answer{ExtractedAnswer: "4", ExecutionTime: took}
	r := NewSuccessResult("r-"+questionID, evalID, q, answer, correct, time.Now())
	require.NoError(t, r.Validate())
	return r
}

func failureRecord(t *testing.T, evalID, questionID string, took time.Duration) QuestionResult {
	t.Helper()
	q := NewQuestion(questionID, "What is 2+2?", "4", nil)
	reason := NewFailureReason(CategoryNetworkTimeout, "timed out", "deadline exceeded", true, time.Now())
	r := NewFailureResult("r-"+questionID, evalID, q, reason, took, time.Now())
	require.NoError(t, r.Validate())
	return r
}

// TestComputeResults checks the aggregate fold over mixed record sets.
func TestComputeResults(t *testing.T) {
	tests := []struct {
		name         string
		records      []QuestionResult
		wantTotal    int
		wantCorrect  int
		wantErrors   int
		wantAccuracy float64
		wantAvgTime  time.Duration
	}{
		{
			name: "all correct",
			records: []QuestionResult{
				successRecord(t, "e", "q1", true, 2*time.Second),
				successRecord(t, "e", "q2", true, 4*time.Second),
			},
			wantTotal: 2, wantCorrect: 2, wantErrors: 0,
			wantAccuracy: 100, wantAvgTime: 3 * time.Second,
		},
		{
			name: "mixed outcomes",
			records: []QuestionResult{
				successRecord(t, "e", "q1", true, time.Second),
				successRecord(t, "e", "q2", false, time.Second),
				failureRecord(t, "e", "q3", time.Second),
			},
			wantTotal: 3, wantCorrect: 1, wantErrors: 1,
			wantAccuracy: 100.0 / 3.0, wantAvgTime: time.Second,
		},
		{
			name: "failures count toward total",
			records: []QuestionResult{
				successRecord(t, "e", "q1", true, time.Second),
				failureRecord(t, "e", "q2", 3*time.Second),
			},
			wantTotal: 2, wantCorrect: 1, wantErrors: 1,
			wantAccuracy: 50, wantAvgTime: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeResults(tt.records)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, got.TotalQuestions)
			assert.Equal(t, tt.wantCorrect, got.CorrectAnswers)
			assert.Equal(t, tt.wantErrors, got.ErrorCount)
			assert.InDelta(t, tt.wantAccuracy, got.Accuracy, 1e-9)
			assert.Equal(t, tt.wantAvgTime, got.AverageExecutionTime)
			assert.Len(t, got.DetailedResults, tt.wantTotal)
		})
	}
}

// TestComputeResults_Empty verifies that accuracy is undefined over zero
// questions.
func TestComputeResults_Empty(t *testing.T) {
	_, err := ComputeResults(nil)
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = ComputeResults([]QuestionResult{})
	assert.ErrorIs(t, err, ErrNoResults)
}

// TestProgress_Remaining checks the derived remaining count.
func TestProgress_Remaining(t *testing.T) {
	p := Progress{Completed: 3, Successful: 2, Failed: 1, Total: 10}
	assert.Equal(t, 7, p.Remaining())

	assert.Equal(t, 0, Progress{Completed: 5, Total: 5}.Remaining())
}

// TestProgressInfo_String checks the compact rendering used by the CLI.
func TestProgressInfo_String(t *testing.T) {
	info := ProgressInfo{
		EvaluationID:      "e",
		CurrentQuestion:   3,
		TotalQuestions:    10,
		SuccessfulAnswers: 2,
		FailedQuestions:   1,
	}
	assert.Equal(t, "3/10 (ok=2 err=1)", info.String())
}

// TestQuestionResult_Validate exercises the success/failure mutual
// exclusion invariant.
func TestQuestionResult_Validate(t *testing.T) {
	answer := "4"
	correct := true
	errMsg := "boom"

	tests := []struct {
		name    string
		mutate  func(*QuestionResult)
		wantErr bool
	}{
		{name: "valid success", mutate: func(r *QuestionResult) {}},
		{
			name: "both paths set",
			mutate: func(r *QuestionResult) {
				r.ErrorMessage = &errMsg
			},
			wantErr: true,
		},
		{
			name: "neither path set",
			mutate: func(r *QuestionResult) {
				r.ActualAnswer = nil
				r.IsCorrect = nil
			},
			wantErr: true,
		},
		{
			name: "negative execution time",
			mutate: func(r *QuestionResult) {
				r.ExecutionTime = -time.Second
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := QuestionResult{
				ID: "r1", EvaluationID: "e", QuestionID: "q",
				ActualAnswer: &answer, IsCorrect: &correct,
				ExecutionTime: time.Second,
			}
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
