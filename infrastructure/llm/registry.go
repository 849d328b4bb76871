package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Registry manages the configured providers and lazily creates base
// provider clients. It holds explicit configuration passed at construction
// time, so multiple registries with different settings can coexist.
type Registry struct {
	// providers maps provider names to their configuration.
	providers map[string]ProviderConfig
	// cores caches "provider/model" to base CoreLLM instances. Strategy
	// decorators are applied per request context, not cached here.
	cores map[string]CoreLLM
	// defaultProvider is the fallback when detection yields nothing.
	defaultProvider string
	// defaultMiddleware is applied to every created core.
	defaultMiddleware []Middleware
	// defaultTimeout is applied when a provider config has none.
	defaultTimeout time.Duration
	// mu guards the core cache.
	mu sync.RWMutex
}

// ProviderConfig holds provider-specific configuration, overriding registry
// defaults for that provider.
type ProviderConfig struct {
	// Type selects the provider implementation (openai, anthropic, google, mock).
	Type string
	// EnvVar names the environment variable holding the API key. Empty
	// means the provider needs no credentials (mock).
	EnvVar string
	// APIKey sets the key directly, taking precedence over EnvVar.
	APIKey string
	// DefaultModel is used when no model is specified.
	DefaultModel string
	// ModelPrefixes lists model-name prefixes that identify this provider
	// during auto-detection.
	ModelPrefixes []string
	// NativeSchema reports whether the provider has built-in
	// structured-output support.
	NativeSchema bool
	// ConstrainedGeneration reports whether the provider supports
	// schema-guided decoding or forced tool use.
	ConstrainedGeneration bool
	// BaseURL overrides the default API endpoint.
	BaseURL string
	// Middleware is provider-specific middleware, applied inside the
	// registry defaults.
	Middleware []Middleware
}

// RegistryConfig defines the provider set and shared defaults.
type RegistryConfig struct {
	// Providers defines the available providers and their configurations.
	Providers map[string]ProviderConfig
	// DefaultProvider is used when no provider can be detected.
	DefaultProvider string
	// DefaultTimeout is the request timeout applied to all providers.
	DefaultTimeout time.Duration
	// DefaultMiddleware is applied to all providers, outermost first.
	DefaultMiddleware []Middleware
}

// DefaultProviders is the standard provider configuration, including each
// provider's structured-output capabilities. Applications can start from
// this table and override specific settings.
var DefaultProviders = map[string]ProviderConfig{
	"openai": {
		Type:                  "openai",
		EnvVar:                "OPENAI_API_KEY",
		DefaultModel:          "gpt-4o",
		ModelPrefixes:         []string{"gpt-", "o1", "o3", "o4", "chatgpt-"},
		NativeSchema:          true,
		ConstrainedGeneration: true,
	},
	"anthropic": {
		Type:                  "anthropic",
		EnvVar:                "ANTHROPIC_API_KEY",
		DefaultModel:          "claude-3-5-sonnet-20241022",
		ModelPrefixes:         []string{"claude-"},
		NativeSchema:          false,
		ConstrainedGeneration: false,
	},
	"google": {
		Type:                  "google",
		EnvVar:                "GOOGLE_API_KEY",
		DefaultModel:          "gemini-2.0-flash",
		ModelPrefixes:         []string{"gemini-"},
		NativeSchema:          false,
		ConstrainedGeneration: true,
	},
	"mock": {
		Type:                  "mock",
		DefaultModel:          "mock-small",
		ModelPrefixes:         []string{"mock"},
		NativeSchema:          false,
		ConstrainedGeneration: false,
	},
}

// NewRegistry creates a provider registry from explicit configuration.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.DefaultProvider == "" {
		return nil, fmt.Errorf("default provider cannot be empty")
	}
	if _, exists := config.Providers[config.DefaultProvider]; !exists {
		return nil, fmt.Errorf("default provider %q not found in providers configuration", config.DefaultProvider)
	}

	return &Registry{
		providers:         config.Providers,
		cores:             make(map[string]CoreLLM),
		defaultProvider:   config.DefaultProvider,
		defaultMiddleware: config.DefaultMiddleware,
		defaultTimeout:    config.DefaultTimeout,
	}, nil
}

// DefaultProvider returns the registry's fallback provider name.
func (r *Registry) DefaultProvider() string { return r.defaultProvider }

// ProviderConfig returns the configuration for a provider and whether the
// provider is configured at all.
func (r *Registry) ProviderConfig(provider string) (ProviderConfig, bool) {
	cfg, ok := r.providers[provider]
	return cfg, ok
}

// DetectProvider resolves a provider from a model name. It honors the
// "provider/model" convention first, then matches configured model-name
// prefixes, and finally falls back to the default provider. The returned
// model has any provider prefix stripped.
func (r *Registry) DetectProvider(model string) (provider, bareModel string) {
	if name, rest, found := strings.Cut(model, "/"); found {
		if _, ok := r.providers[name]; ok {
			return name, rest
		}
	}

	for name, cfg := range r.providers {
		for _, prefix := range cfg.ModelPrefixes {
			if strings.HasPrefix(model, prefix) {
				return name, model
			}
		}
	}

	return r.defaultProvider, model
}

// GetCore returns the base provider client for provider/model, creating
// and caching it on first use.
func (r *Registry) GetCore(provider, model string) (CoreLLM, error) {
	cfg, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not configured", ErrUnsupportedProvider, provider)
	}
	if model == "" {
		model = cfg.DefaultModel
	}

	key := provider + "/" + model

	r.mu.RLock()
	if core, exists := r.cores[key]; exists {
		r.mu.RUnlock()
		return core, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if core, exists := r.cores[key]; exists {
		return core, nil
	}

	core, err := r.createCore(cfg, model)
	if err != nil {
		return nil, err
	}
	r.cores[key] = core
	return core, nil
}

// createCore builds a base client for the provider, resolving credentials
// and applying registry-default and provider-specific middleware.
func (r *Registry) createCore(cfg ProviderConfig, model string) (CoreLLM, error) {
	apiKey := cfg.APIKey
	if apiKey == "" && cfg.EnvVar != "" {
		apiKey = os.Getenv(cfg.EnvVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s environment variable not set for provider %q",
				ErrUnsupportedProvider, cfg.EnvVar, cfg.Type)
		}
	}
	if apiKey == "" {
		// Credential-free providers (mock) still need a placeholder so the
		// generic empty-key validation passes.
		apiKey = "none"
	}

	factory, ok := providerFactories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Type)
	}

	core, err := factory(ClientConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: cfg.BaseURL,
		Timeout: r.defaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Type, err)
	}

	middleware := append([]Middleware{}, r.defaultMiddleware...)
	middleware = append(middleware, cfg.Middleware...)
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return core, nil
}

// ConfiguredProviders returns the names of all configured providers.
func (r *Registry) ConfiguredProviders() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
