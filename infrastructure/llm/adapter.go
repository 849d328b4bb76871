package llm

import (
	"github.com/agentlab/evalrun/internal/domain"
	"github.com/agentlab/evalrun/internal/ports"
)

// AgentClientFactory adapts the client factory to the application layer's
// notion of building a client for an agent configuration.
type AgentClientFactory struct {
	factory *ClientFactory
}

// NewAgentClientFactory wraps a ClientFactory for the application layer.
func NewAgentClientFactory(factory *ClientFactory) *AgentClientFactory {
	return &AgentClientFactory{factory: factory}
}

// ClientFor builds a client for the configured model with the agent's
// response schema wired through the provider-appropriate strategy.
func (a *AgentClientFactory) ClientFor(cfg domain.AgentConfig, schema []byte, schemaName string) (ports.LLMClient, error) {
	spec := ClientSpec{
		Model:      cfg.ModelName,
		Provider:   string(cfg.ModelProvider),
		Schema:     schema,
		SchemaName: schemaName,
	}
	if strategy, ok := cfg.Strategy(); ok {
		spec.Strategy = ExtractionStrategy(strategy)
	}
	return a.factory.CreateClient(spec)
}
