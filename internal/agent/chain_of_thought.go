package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentlab/evalrun/internal/domain"
)

// cotSchema constrains the model to reasoning followed by an answer.
// Field order matters for generation quality: models produce better answers
// when the reasoning tokens come first.
var cotSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"reasoning": {"type": "string", "description": "Step-by-step reasoning toward the answer"},
		"answer": {"type": "string", "description": "The final answer, as concise as possible"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"required": ["reasoning", "answer"],
	"additionalProperties": false
}`)

// cotResponse mirrors cotSchema.
type cotResponse struct {
	Reasoning  string   `json:"reasoning"`
	Answer     string   `json:"answer"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ChainOfThoughtParams configures the chain-of-thought approach.
type ChainOfThoughtParams struct {
	// ReasoningInstruction overrides the default step-by-step preamble.
	// Optional.
	ReasoningInstruction string `json:"reasoning_instruction,omitempty" validate:"omitempty,min=10"`

	// MaxReasoningSteps caps the number of steps the prompt requests.
	// Zero means no cap is mentioned.
	MaxReasoningSteps int `json:"max_reasoning_steps,omitempty" validate:"omitempty,min=1,max=50"`
}

// ChainOfThoughtService implements the chain_of_thought approach: the model
// is instructed to reason step by step and the reasoning is preserved as
// the answer's trace.
type ChainOfThoughtService struct{}

var _ Service = (*ChainOfThoughtService)(nil)

// NewChainOfThoughtService creates the chain-of-thought service.
func NewChainOfThoughtService() *ChainOfThoughtService { return &ChainOfThoughtService{} }

// AgentType returns domain.AgentTypeChainOfThought.
func (s *ChainOfThoughtService) AgentType() domain.AgentType {
	return domain.AgentTypeChainOfThought
}

// BuildPrompt renders the question with the step-by-step reasoning
// instruction, applying the configured override and step cap when present.
func (s *ChainOfThoughtService) BuildPrompt(q domain.Question, cfg domain.AgentConfig) string {
	// ValidateConfig has already rejected undecodable parameters; a zero
	// value here just means the defaults apply.
	var params ChainOfThoughtParams
	_ = decodeParams(cfg.AgentParameters, &params)

	instruction := "Think through the problem step by step before committing to an answer."
	if params.ReasoningInstruction != "" {
		instruction = params.ReasoningInstruction
	}

	var b strings.Builder
	b.WriteString("Answer the following question. ")
	b.WriteString(instruction)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(q.Text)
	b.WriteString("\n\nWork through your reasoning first, then state the final answer.")
	if params.MaxReasoningSteps > 0 {
		fmt.Fprintf(&b, " Use at most %d reasoning steps.", params.MaxReasoningSteps)
	}
	return b.String()
}

// ProcessResponse extracts the answer and reasoning from cotSchema-shaped JSON.
func (s *ChainOfThoughtService) ProcessResponse(structured json.RawMessage) (Result, error) {
	var resp cotResponse
	if err := json.Unmarshal(structured, &resp); err != nil {
		return Result{}, fmt.Errorf("chain-of-thought agent: decode structured response: %w", err)
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return Result{}, fmt.Errorf("chain-of-thought agent: structured response contains no answer")
	}
	if strings.TrimSpace(resp.Reasoning) == "" {
		return Result{}, fmt.Errorf("chain-of-thought agent: structured response contains no reasoning")
	}

	trace, err := domain.NewReasoningTrace(
		domain.ApproachChainOfThought,
		strings.TrimSpace(resp.Reasoning),
		map[string]string{"reasoning_length": fmt.Sprintf("%d", len(resp.Reasoning))},
	)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Answer:     strings.TrimSpace(resp.Answer),
		Trace:      trace,
		Confidence: resp.Confidence,
	}, nil
}

// ValidateConfig checks the configuration for the chain-of-thought approach.
func (s *ChainOfThoughtService) ValidateConfig(cfg domain.AgentConfig) error {
	if cfg.AgentType != domain.AgentTypeChainOfThought {
		return fmt.Errorf("%w: chain-of-thought service cannot validate agent type %q",
			domain.ErrInvalidConfiguration, cfg.AgentType)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var params ChainOfThoughtParams
	if err := decodeParams(cfg.AgentParameters, &params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

// ResponseSchema returns the JSON schema for chain-of-thought answers.
func (s *ChainOfThoughtService) ResponseSchema() json.RawMessage { return cotSchema }
