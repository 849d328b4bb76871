package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/agentlab/evalrun/internal/domain"
)

// JSONExporter writes the full results document, aggregates and
// per-question detail included, as indented JSON.
type JSONExporter struct{}

// NewJSONExporter returns a JSON exporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// Export writes the results document to path, creating or truncating it.
func (e *JSONExporter) Export(results domain.EvaluationResults, path string) error {
	raw, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal results")
	}
	raw = append(raw, '\n')
	return eris.Wrapf(os.WriteFile(path, raw, 0o644), "export: write %s", path)
}
