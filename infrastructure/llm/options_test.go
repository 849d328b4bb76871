package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRequestOptions covers defaults, validated overrides, schema
// extraction, and the collection of unrecognized options.
func TestParseRequestOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		options := ParseRequestOptions(nil, "gpt-4o")
		assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
		assert.Equal(t, "gpt-4o", options.Model)
		assert.Nil(t, options.Temperature)
		assert.Nil(t, options.Schema)
	})

	t.Run("overrides and extras", func(t *testing.T) {
		schema := json.RawMessage(`{"type": "object"}`)
		options := ParseRequestOptions(map[string]any{
			"max_tokens":     256,
			"temperature":    0.2,
			OptionJSONSchema: schema,
			OptionSchemaName: "answer",
			"seed":           42,
		}, "gpt-4o")

		assert.Equal(t, 256, options.MaxTokens)
		require.NotNil(t, options.Temperature)
		assert.Equal(t, 0.2, *options.Temperature)
		assert.Equal(t, schema, options.Schema)
		assert.Equal(t, "answer", options.SchemaName)
		assert.Equal(t, 42, options.Extra["seed"])
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		options := ParseRequestOptions(map[string]any{
			"max_tokens":  -5,
			"temperature": 9.5,
		}, "gpt-4o")
		assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
		assert.Nil(t, options.Temperature)
	})
}

// TestClampHelpers verifies both clamps bound values at either edge and
// pass in-range values through unchanged.
func TestClampHelpers(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat64(-1.0, 0.0, 2.0))
	assert.Equal(t, 2.0, ClampFloat64(3.7, 0.0, 2.0))
	assert.Equal(t, 1.5, ClampFloat64(1.5, 0.0, 2.0))

	assert.Equal(t, 1, ClampInt(0, 1, 4096))
	assert.Equal(t, 4096, ClampInt(100000, 1, 4096))
	assert.Equal(t, 512, ClampInt(512, 1, 4096))
}
