package ports

import (
	"context"
	"encoding/json"

	"github.com/agentlab/evalrun/internal/domain"
)

// ChatResponse is the normalized result of one LLM chat call. Content is
// always present; Structured carries schema-shaped JSON when an extraction
// strategy produced it.
type ChatResponse struct {
	// Content is the free-text response from the model.
	Content string

	// Structured holds the validated structured answer as raw JSON,
	// nil when no extraction strategy ran or the strategy failed.
	Structured json.RawMessage

	// TokensIn counts prompt tokens reported (or estimated) for the call.
	TokensIn int

	// TokensOut counts completion tokens reported (or estimated).
	TokensOut int
}

// LLMClient is the single normalized "complete chat" operation the core
// requires from any provider. Implementations handle authentication,
// request formatting, and structured-output extraction.
type LLMClient interface {
	// Complete sends a prompt and returns the normalized response.
	// The options map carries request parameters such as "temperature",
	// "max_tokens", and "system".
	Complete(ctx context.Context, prompt string, options map[string]any) (ChatResponse, error)

	// GetModel returns the model identifier this client targets.
	GetModel() string
}

// ResultExporter writes an evaluation's results to an external destination.
type ResultExporter interface {
	// Export writes the results to path. Format-specific layout is the
	// exporter's concern.
	Export(results domain.EvaluationResults, path string) error
}
