package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlab/evalrun/internal/domain"
)

func sampleResults(t *testing.T) domain.EvaluationResults {
	t.Helper()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	trace, err := domain.NewReasoningTrace(domain.ApproachNone, "", nil)
	require.NoError(t, err)
	success := domain.NewSuccessResult("r1", "eval-1",
		domain.NewQuestion("q1", "What is 2+2?", "4", nil),
		domain.Answer{ExtractedAnswer: "4", ReasoningTrace: trace, ExecutionTime: 1200 * time.Millisecond},
		true, now)

	reason := domain.NewFailureReason(domain.CategoryNetworkTimeout,
		"request timed out", "context deadline exceeded", true, now)
	failure := domain.NewFailureResult("r2", "eval-1",
		domain.NewQuestion("q2", "What is 3*3?", "9", nil), reason, 800*time.Millisecond, now)

	results, err := domain.ComputeResults([]domain.QuestionResult{success, failure})
	require.NoError(t, err)
	return results
}

// TestCSVExporter checks the column layout and the empty-cell convention for
// the success and failure record shapes.
func TestCSVExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, NewCSVExporter().Export(sampleResults(t), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "question_id,question_text,expected_answer,actual_answer,is_correct,execution_time_ms,error_message\n" +
		"q1,What is 2+2?,4,4,true,1200,\n" +
		"q2,What is 3*3?,9,,,800,request timed out\n"
	assert.Equal(t, want, string(raw))
}

// TestJSONExporter checks the aggregates and per-question detail survive the
// round trip through the file.
func TestJSONExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	results := sampleResults(t)
	require.NoError(t, NewJSONExporter().Export(results, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(raw) > 0 && raw[len(raw)-1] == '\n', "file ends with a newline.")

	var loaded domain.EvaluationResults
	require.NoError(t, json.Unmarshal(raw, &loaded))
	assert.Equal(t, 2, loaded.TotalQuestions)
	assert.Equal(t, 1, loaded.CorrectAnswers)
	assert.InDelta(t, 50.0, loaded.Accuracy, 0.001)
	assert.Equal(t, 1, loaded.ErrorCount)
	require.Len(t, loaded.DetailedResults, 2)
	assert.Equal(t, "q1", loaded.DetailedResults[0].QuestionID)
}
