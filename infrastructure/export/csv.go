// Package export writes derived evaluation results to files. Each exporter
// implements ports.ResultExporter for one output format.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/agentlab/evalrun/internal/domain"
)

// CSVExporter writes the per-question records as a flat CSV table with a
// trailing summary block left out; aggregates belong in the JSON export.
type CSVExporter struct{}

// NewCSVExporter returns a CSV exporter.
func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

var csvHeader = []string{
	"question_id", "question_text", "expected_answer", "actual_answer",
	"is_correct", "execution_time_ms", "error_message",
}

// Export writes the detailed results to path, creating or truncating it.
func (e *CSVExporter) Export(results domain.EvaluationResults, path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for _, r := range results.DetailedResults {
		record := []string{
			r.QuestionID,
			r.QuestionText,
			r.ExpectedAnswer,
			stringOrEmpty(r.ActualAnswer),
			boolOrEmpty(r.IsCorrect),
			strconv.FormatInt(r.ExecutionTime.Milliseconds(), 10),
			stringOrEmpty(r.ErrorMessage),
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "export: write csv record %s", r.QuestionID)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return eris.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "export: write %s", path)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolOrEmpty(b *bool) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%t", *b)
}
