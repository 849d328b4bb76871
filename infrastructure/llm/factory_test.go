package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFactory(t *testing.T) *ClientFactory {
	t.Helper()
	return NewClientFactory(testRegistry(t))
}

// TestClientFactory_ResolveProvider verifies an explicit provider beats
// model-name detection and unknown providers fail fast.
func TestClientFactory_ResolveProvider(t *testing.T) {
	factory := testFactory(t)

	provider, model, err := factory.ResolveProvider(ClientSpec{Model: "gpt-4o", Provider: "anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider, "explicit provider wins over the model prefix.")
	assert.Equal(t, "gpt-4o", model)

	provider, model, err = factory.ResolveProvider(ClientSpec{Model: "claude-3-5-haiku-20241022"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", model)

	_, _, err = factory.ResolveProvider(ClientSpec{Model: "command-r", Provider: "cohere"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

// TestClientFactory_SelectStrategy verifies the capability-driven mapping:
// native schema support first, constrained generation next, extraction as
// the universal fallback.
func TestClientFactory_SelectStrategy(t *testing.T) {
	factory := testFactory(t)

	tests := []struct {
		provider string
		want     ExtractionStrategy
	}{
		{provider: "openai", want: StrategyNative},
		{provider: "google", want: StrategyConstrained},
		{provider: "anthropic", want: StrategyExtraction},
		{provider: "mock", want: StrategyExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			got, err := factory.SelectStrategy(tt.provider)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := factory.SelectStrategy("cohere")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

// TestClientFactory_ValidateCombination checks each strategy against each
// provider's capabilities.
func TestClientFactory_ValidateCombination(t *testing.T) {
	factory := testFactory(t)

	tests := []struct {
		name     string
		provider string
		strategy ExtractionStrategy
		wantErr  error
	}{
		{name: "auto always valid", provider: "anthropic", strategy: StrategyAuto},
		{name: "extraction always valid", provider: "openai", strategy: StrategyExtraction},
		{name: "native on openai", provider: "openai", strategy: StrategyNative},
		{name: "constrained on google", provider: "google", strategy: StrategyConstrained},
		{name: "native on anthropic rejected", provider: "anthropic", strategy: StrategyNative, wantErr: ErrUnsupportedStrategy},
		{name: "constrained on anthropic rejected", provider: "anthropic", strategy: StrategyConstrained, wantErr: ErrUnsupportedStrategy},
		{name: "native on mock rejected", provider: "mock", strategy: StrategyNative, wantErr: ErrUnsupportedStrategy},
		{name: "unknown strategy rejected", provider: "openai", strategy: "psychic", wantErr: ErrUnsupportedStrategy},
		{name: "unknown provider rejected", provider: "cohere", strategy: StrategyExtraction, wantErr: ErrUnsupportedProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := factory.ValidateCombination(tt.provider, tt.strategy)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestClientFactory_CreateClient_PlainText builds a schema-free client and
// runs a request end to end against the mock provider.
func TestClientFactory_CreateClient_PlainText(t *testing.T) {
	factory := testFactory(t)

	client, err := factory.CreateClient(ClientSpec{Model: "mock/mock-small"})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), "Question: What is 2+2?", nil)
	require.NoError(t, err)
	assert.Equal(t, "4", resp.Content)
	assert.Nil(t, resp.Structured, "no schema means no structured payload.")
}

// TestClientFactory_CreateClient_StructuredRoundTrip builds a client with a
// schema against a constrained-capable provider and verifies the structured
// payload comes back parsed.
func TestClientFactory_CreateClient_StructuredRoundTrip(t *testing.T) {
	providers := map[string]ProviderConfig{
		"mock": {
			Type:                  "mock",
			DefaultModel:          "mock-small",
			ModelPrefixes:         []string{"mock"},
			ConstrainedGeneration: true,
		},
	}
	registry, err := NewRegistry(RegistryConfig{Providers: providers, DefaultProvider: "mock"})
	require.NoError(t, err)
	factory := NewClientFactory(registry)

	client, err := factory.CreateClient(ClientSpec{
		Model:      "mock-small",
		Schema:     testSchema,
		SchemaName: "answer",
	})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), "Question: What is 2+2?", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Structured)
	assert.JSONEq(t, `{"answer": "4"}`, string(resp.Structured))
}

// TestClientFactory_CreateClient_Rejections covers the fail-fast paths.
func TestClientFactory_CreateClient_Rejections(t *testing.T) {
	factory := testFactory(t)

	_, err := factory.CreateClient(ClientSpec{})
	assert.ErrorContains(t, err, "model or provider is required")

	_, err = factory.CreateClient(ClientSpec{
		Model:    "mock-small",
		Provider: "mock",
		Schema:   testSchema,
		Strategy: StrategyNative,
	})
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}
