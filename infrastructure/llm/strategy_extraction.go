package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// extractionLLM implements post-processing extraction: a normal free-text
// request followed by a second, separate call that pulls the structured
// fields out of the natural-language response. This is the default
// fallback for providers with neither native nor constrained support.
type extractionLLM struct {
	next       CoreLLM
	schema     json.RawMessage
	schemaName string
}

// PostProcessingStrategy creates the two-call extraction decorator.
func PostProcessingStrategy(schema json.RawMessage, schemaName string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &extractionLLM{next: next, schema: schema, schemaName: schemaName}
	}
}

// DoRequest performs the free-text request, then the extraction request.
// Token counts from both calls are summed so usage reporting stays honest.
func (e *extractionLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	first, err := e.next.DoRequest(ctx, prompt, opts)
	if err != nil {
		return Response{}, err
	}

	// An answer that is already JSON needs no second call.
	if structured, perr := parseStructured(first.Content); perr == nil {
		first.Structured = structured
		return first, nil
	}

	second, err := e.next.DoRequest(ctx, e.extractionPrompt(first.Content), e.extractionOptions(opts))
	if err != nil {
		return Response{}, fmt.Errorf("extraction call failed: %w", err)
	}

	structured := second.Structured
	if structured == nil {
		structured, err = extractJSONObject(second.Content)
		if err != nil {
			return Response{}, err
		}
	}

	return Response{
		Content:    first.Content,
		Structured: structured,
		TokensIn:   first.TokensIn + second.TokensIn,
		TokensOut:  first.TokensOut + second.TokensOut,
	}, nil
}

func (e *extractionLLM) extractionPrompt(responseText string) string {
	return fmt.Sprintf(
		"Extract the structured fields from the response below.\n\n"+
			"Response:\n%s\n\n"+
			"Return a single JSON object matching this schema, and nothing else:\n%s",
		responseText, string(e.schema))
}

// extractionOptions keeps the caller's model settings but pins temperature
// to zero: extraction is a mechanical task.
func (e *extractionLLM) extractionOptions(opts map[string]any) map[string]any {
	merged := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		merged[k] = v
	}
	merged["temperature"] = 0.0
	return merged
}

// GetModel returns the model name from the wrapped implementation.
func (e *extractionLLM) GetModel() string { return e.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (e *extractionLLM) SetModel(m string) { e.next.SetModel(m) }
