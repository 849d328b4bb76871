package llm

import (
	"context"
	"encoding/json"
)

// nativeSchemaLLM forwards the schema to a provider with built-in
// structured-output support. The provider constrains generation to the
// schema, so the response content is required to parse as JSON.
type nativeSchemaLLM struct {
	next       CoreLLM
	schema     json.RawMessage
	schemaName string
}

// NativeSchemaStrategy creates the native structured-output decorator.
func NativeSchemaStrategy(schema json.RawMessage, schemaName string) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &nativeSchemaLLM{next: next, schema: schema, schemaName: schemaName}
	}
}

// DoRequest sends the request with the schema option set and validates the
// schema-constrained content as structured JSON.
func (n *nativeSchemaLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	resp, err := n.next.DoRequest(ctx, prompt, schemaOptions(opts, n.schema, n.schemaName))
	if err != nil {
		return Response{}, err
	}

	if resp.Structured == nil {
		structured, perr := parseStructured(resp.Content)
		if perr != nil {
			return Response{}, perr
		}
		resp.Structured = structured
	}
	return resp, nil
}

// GetModel returns the model name from the wrapped implementation.
func (n *nativeSchemaLLM) GetModel() string { return n.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (n *nativeSchemaLLM) SetModel(m string) { n.next.SetModel(m) }
