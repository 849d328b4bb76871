// Package agent implements the reasoning agent services: pure components
// that turn a benchmark question into a prompt and a structured model
// response into a domain reasoning result. Agents perform no I/O; the
// execution layer owns the provider call.
package agent

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/agentlab/evalrun/internal/domain"
)

// validate is the shared struct validator for agent parameter structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Result is what an agent derives from a structured model response:
// the final answer text, the reasoning trace, and the model's optional
// self-reported confidence.
type Result struct {
	// Answer is the extracted final answer text.
	Answer string

	// Trace records the reasoning that led to the answer.
	Trace domain.ReasoningTrace

	// Confidence is the model's self-reported confidence, nil when absent.
	Confidence *float64
}

// Service is one reasoning approach. Implementations are stateless and
// safe for concurrent use.
type Service interface {
	// AgentType identifies the approach this service implements.
	AgentType() domain.AgentType

	// BuildPrompt renders the prompt for a question, honoring the prompt
	// overrides in the configuration's agent parameters.
	BuildPrompt(q domain.Question, cfg domain.AgentConfig) string

	// ProcessResponse turns schema-shaped structured JSON into a Result.
	// The JSON must match ResponseSchema; anything else is an error.
	ProcessResponse(structured json.RawMessage) (Result, error)

	// ValidateConfig checks an agent configuration against this approach.
	ValidateConfig(cfg domain.AgentConfig) error

	// ResponseSchema returns the JSON schema the extraction strategies
	// enforce on model output for this approach.
	ResponseSchema() json.RawMessage
}

// Registry holds the closed set of reasoning agent services, keyed by
// agent type. It is built explicitly at construction time so multiple
// configurations can coexist in tests.
type Registry struct {
	services map[domain.AgentType]Service
}

// NewRegistry builds a registry containing the standard approaches.
func NewRegistry() *Registry {
	r := &Registry{services: make(map[domain.AgentType]Service)}
	r.register(NewDirectService())
	r.register(NewChainOfThoughtService())
	return r
}

func (r *Registry) register(s Service) { r.services[s.AgentType()] = s }

// For returns the service implementing the given agent type.
func (r *Registry) For(agentType domain.AgentType) (Service, error) {
	s, ok := r.services[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: no agent service for type %q",
			domain.ErrInvalidConfiguration, agentType)
	}
	return s, nil
}

// decodeParams round-trips an agent parameter map into a typed struct and
// validates it. Missing maps decode to the struct's zero value.
func decodeParams(params map[string]any, out any) error {
	if params == nil {
		return validate.Struct(out)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode agent parameters: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode agent parameters: %w", err)
	}
	return validate.Struct(out)
}
