// Package llm provides a unified interface for interacting with various LLM
// providers, plus the structured-output extraction strategies and
// cross-cutting middleware the evaluation engine runs its provider calls
// through.
//
// Architecture:
//   - Provider implementations abstracted through the CoreLLM interface
//   - Pluggable middleware (rate limiting, retries, timeouts, metrics,
//     tracing) composed as decorators over CoreLLM
//   - Extraction strategies (native schema, constrained generation,
//     post-processing extraction) composed the same way
//   - A registry of configured providers and a factory that detects the
//     provider from the model name and picks a strategy by capability
package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agentlab/evalrun/internal/ports"
)

// Response is the normalized result of one provider request. Structured is
// populated by extraction strategies (or by providers with tool-use style
// structured output); plain requests carry only Content.
type Response struct {
	// Content is the free-text completion.
	Content string

	// Structured holds schema-shaped JSON when an extraction strategy ran.
	Structured json.RawMessage

	// TokensIn counts prompt tokens, reported by the API or estimated.
	TokensIn int

	// TokensOut counts completion tokens, reported or estimated.
	TokensOut int
}

// CoreLLM defines the minimal interface that LLM providers implement.
// Middleware and extraction strategies wrap any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the normalized
	// response. The opts map allows provider-specific configuration such
	// as temperature, max tokens, or a JSON schema to enforce.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM implementation to add cross-cutting
// functionality. Extraction strategies use the same shape, which is what
// lets a strategy wrap any client uniformly.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds all configuration options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model specifies which model to use for requests.
	Model string

	// BaseURL overrides the default API endpoint. Empty uses the default.
	BaseURL string

	// Timeout sets the maximum duration for individual requests.
	// Zero means no timeout.
	Timeout time.Duration

	// Middleware is applied in the order specified, first outermost.
	Middleware []Middleware
}

// Client adapts a (possibly wrapped) CoreLLM to the ports.LLMClient
// interface the evaluation core consumes.
type Client struct {
	core CoreLLM
}

var _ ports.LLMClient = (*Client)(nil)

// NewClientFromCore wraps an existing CoreLLM with the given middleware.
// Middleware is applied in reverse order so the first entry is outermost.
func NewClientFromCore(core CoreLLM, middleware ...Middleware) *Client {
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return &Client{core: core}
}

// Complete sends a prompt through the middleware chain and returns the
// normalized chat response.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (ports.ChatResponse, error) {
	resp, err := c.core.DoRequest(ctx, prompt, options)
	if err != nil {
		return ports.ChatResponse{}, err
	}
	return ports.ChatResponse{
		Content:    resp.Content,
		Structured: resp.Structured,
		TokensIn:   resp.TokensIn,
		TokensOut:  resp.TokensOut,
	}, nil
}

// GetModel returns the model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// Provider factory registry. Providers register themselves in init so the
// set of compiled-in providers is the set of available ones.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom LLM provider factory.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
