package llm

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Valid ranges for common request parameters, shared across providers.
const (
	// MinTemperature is the minimum allowed temperature.
	MinTemperature = 0.0
	// MaxTemperature is the maximum allowed temperature (2.0 to accommodate
	// providers like Gemini).
	MaxTemperature = 2.0
	// MinTopP is the minimum allowed value for Top-P sampling.
	MinTopP = 0.0
	// MaxTopP is the maximum allowed value for Top-P sampling.
	MaxTopP = 1.0
	// DefaultMaxTokens is used when the caller does not set max_tokens.
	DefaultMaxTokens = 1024
	// MinTimeout is the minimum allowed request timeout.
	MinTimeout = 1 * time.Second
	// MaxTimeout is the maximum allowed request timeout.
	MaxTimeout = 10 * time.Minute
)

// Option keys recognized in request option maps. Extraction strategies set
// the schema keys; providers that support schema-guided output honor them.
const (
	// OptionJSONSchema carries a json.RawMessage schema the response must match.
	OptionJSONSchema = "json_schema"
	// OptionSchemaName names the schema for providers that require one.
	OptionSchemaName = "schema_name"
)

// BaseProvider provides common, thread-safe model-name handling for
// provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the model currently configured for the provider.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name for the provider.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of request parameters consolidated
// across providers.
type RequestOptions struct {
	// MaxTokens caps the number of tokens to generate.
	MaxTokens int
	// Model is the model identifier for the request.
	Model string
	// Temperature controls output randomness; nil uses the provider default.
	Temperature *float64
	// TopP enables nucleus sampling; nil uses the provider default.
	TopP *float64
	// System is the system prompt, empty when unused.
	System string
	// Schema is the JSON schema to enforce on the output, nil when the
	// request is plain free text.
	Schema json.RawMessage
	// SchemaName names the schema for providers that require one.
	SchemaName string
	// Extra holds provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates request parameters from a map,
// applying defaults for missing or invalid entries. Unrecognized options
// are collected into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens:  ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:      ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:     ExtractOptionalString(opts, "system", "", nil),
		SchemaName: ExtractOptionalString(opts, OptionSchemaName, "response", nil),
		Extra:      make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}
	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}
	if raw, ok := opts[OptionJSONSchema]; ok {
		if schema, valid := raw.(json.RawMessage); valid {
			options.Schema = schema
		}
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p", OptionJSONSchema, OptionSchemaName:
		// Standard options already processed above.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// ExtractOptionalInt extracts an integer from an options map with validation,
// returning defaultVal when the key is absent, mistyped, or invalid.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(intVal) {
		return defaultVal
	}
	return intVal
}

// ExtractOptionalString extracts a string from an options map with validation.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, validator func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(strVal) {
		return defaultVal
	}
	return strVal
}

// ExtractOptionalFloat64 extracts a float64 from an options map with validation.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, validator func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(floatVal) {
		return defaultVal
	}
	return floatVal
}

// IsPositiveInt returns true if the integer is greater than 0.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString returns true if the string is not empty.
func IsNonEmptyString(val string) bool { return val != "" }

// IsValidTemperature returns true if the value is a valid temperature.
func IsValidTemperature(val float64) bool { return val >= MinTemperature && val <= MaxTemperature }

// IsValidTopP returns true if the value is a valid top_p.
func IsValidTopP(val float64) bool { return val >= MinTopP && val <= MaxTopP }

// ClampFloat64 bounds a value to the inclusive range [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampInt bounds an integer to the inclusive range [min, max].
func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ValidateBaseURL validates and normalizes a base URL string. An empty
// string is valid and signifies the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// ValidateTimeout clamps the timeout to [MinTimeout, MaxTimeout]. A zero or
// negative timeout returns zero, meaning the system default.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// TokenCounter estimates token counts from text when the API does not
// report exact usage.
type TokenCounter struct {
	// CharactersPerToken is the average characters per token; a general
	// approximation suitable for English text.
	CharactersPerToken float64
}

// NewTokenCounter creates a TokenCounter with the default ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens calculates an estimated token count for the given text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount returns the actual count when positive, otherwise an estimate.
func (tc *TokenCounter) GetTokenCount(actual int, text string) int {
	if actual > 0 {
		return actual
	}
	return tc.EstimateTokens(text)
}
