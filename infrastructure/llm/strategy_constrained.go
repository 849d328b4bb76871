package llm

import (
	"context"
	"encoding/json"
)

// constrainedLLM applies schema constraints at the generation layer for
// providers that support schema-guided decoding or forced tool use but
// lack a native JSON-schema response format. When the constraint is not
// honored, it falls back to scanning the free text for a JSON object.
type constrainedLLM struct {
	next       CoreLLM
	schema     json.RawMessage
	schemaName string
}

// ConstrainedGenerationStrategy creates the constrained-generation decorator.
func ConstrainedGenerationStrategy(schema json.RawMessage, schemaName string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &constrainedLLM{next: next, schema: schema, schemaName: schemaName}
	}
}

// DoRequest sends the request with the schema option set, taking the
// provider's structured payload when present and recovering JSON from the
// text otherwise.
func (c *constrainedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	resp, err := c.next.DoRequest(ctx, prompt, schemaOptions(opts, c.schema, c.schemaName))
	if err != nil {
		return Response{}, err
	}

	if resp.Structured != nil {
		return resp, nil
	}

	if structured, perr := parseStructured(resp.Content); perr == nil {
		resp.Structured = structured
		return resp, nil
	}

	// Constraint not honored; recover a JSON object from the free text.
	structured, perr := extractJSONObject(resp.Content)
	if perr != nil {
		return Response{}, perr
	}
	resp.Structured = structured
	return resp, nil
}

// GetModel returns the model name from the wrapped implementation.
func (c *constrainedLLM) GetModel() string { return c.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (c *constrainedLLM) SetModel(m string) { c.next.SetModel(m) }
