package domain

import (
	"fmt"
	"maps"
)

// AgentType identifies the reasoning approach an agent applies to a question.
type AgentType string

const (
	// AgentTypeNone answers directly without an explicit reasoning step.
	AgentTypeNone AgentType = "none"

	// AgentTypeChainOfThought asks the model to reason step by step
	// before committing to an answer.
	AgentTypeChainOfThought AgentType = "chain_of_thought"
)

// SupportedAgentTypes lists every agent type the engine can run.
var SupportedAgentTypes = []AgentType{AgentTypeNone, AgentTypeChainOfThought}

// ModelProvider identifies an LLM provider backend.
type ModelProvider string

const (
	// ProviderOpenAI routes requests to OpenAI's chat completion API.
	ProviderOpenAI ModelProvider = "openai"

	// ProviderAnthropic routes requests to Anthropic's messages API.
	ProviderAnthropic ModelProvider = "anthropic"

	// ProviderGoogle routes requests to Google's Gemini API.
	ProviderGoogle ModelProvider = "google"

	// ProviderMock is a deterministic in-process provider used in tests.
	ProviderMock ModelProvider = "mock"
)

// SupportedProviders lists every provider the engine can talk to.
var SupportedProviders = []ModelProvider{
	ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderMock,
}

// Parameter bounds shared by all providers. Individual providers may clamp
// further, but configurations outside these ranges are rejected up front.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 100_000
)

// AgentConfig is the immutable value object describing one configured
// reasoning agent: which model, which provider, and which reasoning approach.
// Two instances with equal fields are interchangeable.
type AgentConfig struct {
	// AgentType selects the reasoning approach.
	AgentType AgentType `json:"agent_type" yaml:"agent_type"`

	// ModelProvider selects the LLM backend. Empty means the provider is
	// detected from ModelName by the client factory.
	ModelProvider ModelProvider `json:"model_provider" yaml:"model_provider"`

	// ModelName is the provider-specific model identifier.
	ModelName string `json:"model_name" yaml:"model_name"`

	// ModelParameters carries request parameters such as temperature and
	// max_tokens. Copied on construction so the config stays immutable.
	ModelParameters map[string]any `json:"model_parameters,omitempty" yaml:"model_parameters,omitempty"`

	// AgentParameters carries approach-specific settings, e.g. the
	// reasoning preamble for chain-of-thought agents.
	AgentParameters map[string]any `json:"agent_parameters,omitempty" yaml:"agent_parameters,omitempty"`
}

// NewAgentConfig builds an AgentConfig, defensively copying both parameter
// maps. Validation is a separate step so partially-specified configs can be
// assembled before being checked.
func NewAgentConfig(agentType AgentType, provider ModelProvider, model string, modelParams, agentParams map[string]any) AgentConfig {
	cfg := AgentConfig{
		AgentType:     agentType,
		ModelProvider: provider,
		ModelName:     model,
	}
	if len(modelParams) > 0 {
		cfg.ModelParameters = maps.Clone(modelParams)
	}
	if len(agentParams) > 0 {
		cfg.AgentParameters = maps.Clone(agentParams)
	}
	return cfg
}

// Validate checks the configuration against the closed sets of agent types
// and providers plus the numeric parameter bounds. It returns a
// ValidationError listing every violation found.
func (c AgentConfig) Validate() error {
	verr := NewValidationError("agent_config")

	if !isSupportedAgentType(c.AgentType) {
		verr.AddError(fmt.Sprintf("unsupported agent type %q", c.AgentType))
	}
	if c.ModelProvider != "" && !isSupportedProvider(c.ModelProvider) {
		verr.AddError(fmt.Sprintf("unsupported provider %q", c.ModelProvider))
	}
	if c.ModelName == "" {
		verr.AddError("model name is required")
	}

	if temp, ok := c.ModelParameters["temperature"]; ok {
		if t, valid := asFloat64(temp); !valid || t < MinTemperature || t > MaxTemperature {
			verr.AddError(fmt.Sprintf("temperature must be a number in [%.1f, %.1f]", MinTemperature, MaxTemperature))
		}
	}
	if mt, ok := c.ModelParameters["max_tokens"]; ok {
		if m, valid := asInt(mt); !valid || m < MinMaxTokens || m > MaxMaxTokens {
			verr.AddError(fmt.Sprintf("max_tokens must be an integer in [%d, %d]", MinMaxTokens, MaxMaxTokens))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Temperature returns the configured temperature and whether it was set.
func (c AgentConfig) Temperature() (float64, bool) {
	v, ok := c.ModelParameters["temperature"]
	if !ok {
		return 0, false
	}
	return asFloat64(v)
}

// Strategy returns the configured structured-output strategy name and
// whether it was set. Empty means the client factory picks by provider
// capability.
func (c AgentConfig) Strategy() (string, bool) {
	v, ok := c.ModelParameters["strategy"]
	if !ok {
		return "", false
	}
	s, valid := v.(string)
	return s, valid
}

// MaxTokens returns the configured max_tokens and whether it was set.
func (c AgentConfig) MaxTokens() (int, bool) {
	v, ok := c.ModelParameters["max_tokens"]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

func isSupportedAgentType(t AgentType) bool {
	for _, s := range SupportedAgentTypes {
		if t == s {
			return true
		}
	}
	return false
}

func isSupportedProvider(p ModelProvider) bool {
	for _, s := range SupportedProviders {
		if p == s {
			return true
		}
	}
	return false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
