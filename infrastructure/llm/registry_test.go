package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(RegistryConfig{
		Providers:       DefaultProviders,
		DefaultProvider: "openai",
		DefaultTimeout:  30 * time.Second,
	})
	require.NoError(t, err)
	return registry
}

// TestNewRegistry verifies default-provider validation at construction.
func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name            string
		defaultProvider string
		wantErr         string
	}{
		{name: "valid default", defaultProvider: "anthropic"},
		{name: "empty default", defaultProvider: "", wantErr: "default provider cannot be empty"},
		{name: "unknown default", defaultProvider: "cohere", wantErr: "not found in providers configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := NewRegistry(RegistryConfig{
				Providers:       DefaultProviders,
				DefaultProvider: tt.defaultProvider,
			})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.defaultProvider, registry.DefaultProvider())
		})
	}
}

// TestRegistry_DetectProvider covers the three resolution tiers: explicit
// "provider/model" names, model-name prefixes, and the default fallback.
func TestRegistry_DetectProvider(t *testing.T) {
	registry := testRegistry(t)

	tests := []struct {
		name         string
		model        string
		wantProvider string
		wantModel    string
	}{
		{name: "explicit provider prefix", model: "anthropic/claude-opus-4", wantProvider: "anthropic", wantModel: "claude-opus-4"},
		{name: "explicit mock", model: "mock/mock-large", wantProvider: "mock", wantModel: "mock-large"},
		{name: "openai by prefix", model: "gpt-4o-mini", wantProvider: "openai", wantModel: "gpt-4o-mini"},
		{name: "openai reasoning model", model: "o3-mini", wantProvider: "openai", wantModel: "o3-mini"},
		{name: "anthropic by prefix", model: "claude-3-5-sonnet-20241022", wantProvider: "anthropic", wantModel: "claude-3-5-sonnet-20241022"},
		{name: "google by prefix", model: "gemini-2.0-flash", wantProvider: "google", wantModel: "gemini-2.0-flash"},
		{name: "unknown model falls back to default", model: "llama-3-70b", wantProvider: "openai", wantModel: "llama-3-70b"},
		{name: "unknown provider prefix is not stripped", model: "cohere/command-r", wantProvider: "openai", wantModel: "cohere/command-r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model := registry.DetectProvider(tt.model)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}

// TestRegistry_GetCore_CachesPerModel verifies base clients are created once
// per provider/model pair.
func TestRegistry_GetCore_CachesPerModel(t *testing.T) {
	registry := testRegistry(t)

	first, err := registry.GetCore("mock", "mock-small")
	require.NoError(t, err)
	second, err := registry.GetCore("mock", "mock-small")
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated lookups reuse the cached core.")

	other, err := registry.GetCore("mock", "mock-large")
	require.NoError(t, err)
	assert.NotSame(t, first, other, "a different model gets its own core.")
}

// TestRegistry_GetCore_DefaultModel verifies an empty model resolves to the
// provider's configured default.
func TestRegistry_GetCore_DefaultModel(t *testing.T) {
	registry := testRegistry(t)

	core, err := registry.GetCore("mock", "")
	require.NoError(t, err)
	assert.Equal(t, "mock-small", core.GetModel())
}

// TestRegistry_GetCore_Errors covers unconfigured providers and missing
// credentials.
func TestRegistry_GetCore_Errors(t *testing.T) {
	registry := testRegistry(t)

	_, err := registry.GetCore("cohere", "command-r")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	t.Setenv("OPENAI_API_KEY", "")
	_, err = registry.GetCore("openai", "gpt-4o")
	require.Error(t, err)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

// TestRegistry_GetCore_MiddlewareApplied verifies registry-default middleware
// wraps every created core.
func TestRegistry_GetCore_MiddlewareApplied(t *testing.T) {
	wrapped := 0
	registry, err := NewRegistry(RegistryConfig{
		Providers:       DefaultProviders,
		DefaultProvider: "mock",
		DefaultMiddleware: []Middleware{
			func(next CoreLLM) CoreLLM { wrapped++; return next },
		},
	})
	require.NoError(t, err)

	_, err = registry.GetCore("mock", "mock-small")
	require.NoError(t, err)
	assert.Equal(t, 1, wrapped)
}

// TestRegistry_ConfiguredProviders spot-checks the provider inventory.
func TestRegistry_ConfiguredProviders(t *testing.T) {
	registry := testRegistry(t)
	assert.ElementsMatch(t, []string{"openai", "anthropic", "google", "mock"}, registry.ConfiguredProviders())
}
