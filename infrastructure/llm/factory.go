package llm

import (
	"encoding/json"
	"fmt"
)

// ClientSpec describes the client to build. Model is required; everything
// else is resolved from the registry when empty.
type ClientSpec struct {
	// Model names the model, optionally prefixed "provider/model".
	Model string
	// Provider pins the provider explicitly, skipping detection.
	Provider string
	// Strategy selects the structured-output strategy. StrategyAuto (or
	// empty) picks the strongest strategy the provider supports.
	Strategy ExtractionStrategy
	// Schema is the JSON schema the response must conform to. Nil builds
	// a plain free-text client with no strategy decorator.
	Schema json.RawMessage
	// SchemaName labels the schema for providers that require a name.
	SchemaName string
	// Middleware is applied outside the strategy decorator.
	Middleware []Middleware
}

// ClientFactory builds clients from a registry, choosing the structured
// output strategy best suited to each provider's capabilities.
type ClientFactory struct {
	registry *Registry
}

// NewClientFactory creates a factory backed by the given registry.
func NewClientFactory(registry *Registry) *ClientFactory {
	return &ClientFactory{registry: registry}
}

// ResolveProvider determines the provider and bare model for a spec,
// honoring an explicit provider over model-name detection.
func (f *ClientFactory) ResolveProvider(spec ClientSpec) (provider, model string, err error) {
	if spec.Provider != "" {
		if _, ok := f.registry.ProviderConfig(spec.Provider); !ok {
			return "", "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, spec.Provider)
		}
		return spec.Provider, spec.Model, nil
	}
	provider, model = f.registry.DetectProvider(spec.Model)
	return provider, model, nil
}

// SelectStrategy picks the strongest structured-output strategy a provider
// supports: native schema enforcement first, constrained generation next,
// post-processing extraction as the universal fallback.
func (f *ClientFactory) SelectStrategy(provider string) (ExtractionStrategy, error) {
	cfg, ok := f.registry.ProviderConfig(provider)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	switch {
	case cfg.NativeSchema:
		return StrategyNative, nil
	case cfg.ConstrainedGeneration:
		return StrategyConstrained, nil
	default:
		return StrategyExtraction, nil
	}
}

// ValidateCombination reports whether a provider supports a strategy.
// Post-processing extraction works against any provider; the other
// strategies require provider capabilities.
func (f *ClientFactory) ValidateCombination(provider string, strategy ExtractionStrategy) error {
	cfg, ok := f.registry.ProviderConfig(provider)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	switch strategy {
	case StrategyAuto, StrategyExtraction:
		return nil
	case StrategyNative:
		if !cfg.NativeSchema {
			return fmt.Errorf("%w: provider %q does not support native schema enforcement",
				ErrUnsupportedStrategy, provider)
		}
		return nil
	case StrategyConstrained:
		if !cfg.ConstrainedGeneration {
			return fmt.Errorf("%w: provider %q does not support constrained generation",
				ErrUnsupportedStrategy, provider)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
	}
}

// CreateClient builds a fully wired client: the provider's base client from
// the registry, wrapped with the resolved structured-output strategy and
// any additional middleware. Invalid provider and strategy combinations
// fail here rather than on first request.
func (f *ClientFactory) CreateClient(spec ClientSpec) (*Client, error) {
	if spec.Model == "" && spec.Provider == "" {
		return nil, fmt.Errorf("model or provider is required")
	}

	provider, model, err := f.ResolveProvider(spec)
	if err != nil {
		return nil, err
	}

	core, err := f.registry.GetCore(provider, model)
	if err != nil {
		return nil, err
	}

	middleware := append([]Middleware{}, spec.Middleware...)

	if len(spec.Schema) > 0 {
		strategy := spec.Strategy
		if strategy == "" || strategy == StrategyAuto {
			strategy, err = f.SelectStrategy(provider)
			if err != nil {
				return nil, err
			}
		} else if err := f.ValidateCombination(provider, strategy); err != nil {
			return nil, err
		}

		decorator, err := strategyMiddleware(strategy, spec.Schema, spec.SchemaName)
		if err != nil {
			return nil, err
		}
		// Strategy sits innermost so retries and timeouts wrap the full
		// request-and-extract cycle.
		middleware = append(middleware, decorator)
	}

	return NewClientFromCore(core, middleware...), nil
}

// strategyMiddleware maps a strategy name to its decorator.
func strategyMiddleware(strategy ExtractionStrategy, schema json.RawMessage, schemaName string) (Middleware, error) {
	switch strategy {
	case StrategyNative:
		return NativeSchemaStrategy(schema, schemaName), nil
	case StrategyConstrained:
		return ConstrainedGenerationStrategy(schema, schemaName), nil
	case StrategyExtraction:
		return PostProcessingStrategy(schema, schemaName), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
	}
}
