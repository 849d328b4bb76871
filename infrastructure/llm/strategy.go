package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractionStrategy names a structured-output extraction technique.
type ExtractionStrategy string

const (
	// StrategyAuto selects a strategy from the provider capability table.
	StrategyAuto ExtractionStrategy = "auto"

	// StrategyNative uses the provider's built-in structured-output
	// support: the request itself constrains generation to a JSON schema.
	StrategyNative ExtractionStrategy = "native"

	// StrategyConstrained applies schema constraints at the generation
	// layer (schema-guided decoding or forced tool use), falling back to
	// parsing free text as JSON when the constraint is not honored.
	StrategyConstrained ExtractionStrategy = "constrained"

	// StrategyExtraction issues a normal free-text request, then a second
	// extraction call to pull out the structured fields. The default
	// fallback for providers with neither of the above.
	StrategyExtraction ExtractionStrategy = "extraction"
)

// SupportedStrategies lists every concrete (non-auto) strategy.
var SupportedStrategies = []ExtractionStrategy{
	StrategyNative, StrategyConstrained, StrategyExtraction,
}

// IsValidStrategy reports whether s names a known strategy, auto included.
func IsValidStrategy(s ExtractionStrategy) bool {
	if s == StrategyAuto {
		return true
	}
	for _, v := range SupportedStrategies {
		if s == v {
			return true
		}
	}
	return false
}

// schemaOptions returns a copy of opts with the schema keys applied, so
// strategy decorators never mutate the caller's map.
func schemaOptions(opts map[string]any, schema json.RawMessage, name string) map[string]any {
	merged := make(map[string]any, len(opts)+2)
	for k, v := range opts {
		merged[k] = v
	}
	merged[OptionJSONSchema] = schema
	merged[OptionSchemaName] = name
	return merged
}

// parseStructured validates that raw is a JSON object and returns it in
// compact canonical form.
func parseStructured(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoStructuredData, err)
	}
	return json.RawMessage(trimmed), nil
}

// extractJSONObject scans free text for the first balanced JSON object and
// validates it. Models frequently wrap JSON in prose or markdown fences;
// this recovers the payload from both.
func extractJSONObject(text string) (json.RawMessage, error) {
	if fenced := extractFencedBlock(text); fenced != "" {
		if obj, err := parseStructured(fenced); err == nil {
			return obj, nil
		}
	}

	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			switch {
			case escaped:
				escaped = false
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					if obj, err := parseStructured(text[start : i+1]); err == nil {
						return obj, nil
					}
					i = len(text)
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += 1 + next
	}

	return nil, fmt.Errorf("%w: no JSON object found in response", ErrNoStructuredData)
}

// extractFencedBlock returns the contents of the first ``` fence, if any.
func extractFencedBlock(text string) string {
	_, after, found := strings.Cut(text, "```")
	if !found {
		return ""
	}
	// Drop an optional language tag on the fence line.
	if idx := strings.IndexByte(after, '\n'); idx >= 0 && !strings.Contains(after[:idx], "{") {
		after = after[idx+1:]
	}
	block, _, found := strings.Cut(after, "```")
	if !found {
		return ""
	}
	return strings.TrimSpace(block)
}
