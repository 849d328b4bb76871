package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentlab/evalrun/internal/domain"
)

// directSchema constrains the model to a bare answer object.
var directSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"answer": {"type": "string", "description": "The final answer, as concise as possible"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"required": ["answer"],
	"additionalProperties": false
}`)

// directResponse mirrors directSchema.
type directResponse struct {
	Answer     string   `json:"answer"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// DirectParams configures the "none" approach.
type DirectParams struct {
	// AnswerInstruction overrides the default instruction appended to
	// the question. Optional.
	AnswerInstruction string `json:"answer_instruction,omitempty" validate:"omitempty,min=5"`
}

// DirectService implements the "none" approach: the question is put to the
// model with a minimal instruction and the answer is taken as-is, with no
// reasoning step and an empty trace.
type DirectService struct{}

var _ Service = (*DirectService)(nil)

// NewDirectService creates the direct-answer service.
func NewDirectService() *DirectService { return &DirectService{} }

// AgentType returns domain.AgentTypeNone.
func (s *DirectService) AgentType() domain.AgentType { return domain.AgentTypeNone }

// BuildPrompt renders the question with the answer instruction, either the
// default or the configured override.
func (s *DirectService) BuildPrompt(q domain.Question, cfg domain.AgentConfig) string {
	// ValidateConfig has already rejected undecodable parameters; a zero
	// value here just means the defaults apply.
	var params DirectParams
	_ = decodeParams(cfg.AgentParameters, &params)

	instruction := "Give only the final answer, without explanation."
	if params.AnswerInstruction != "" {
		instruction = params.AnswerInstruction
	}

	var b strings.Builder
	b.WriteString("Answer the following question.\n\n")
	b.WriteString("Question: ")
	b.WriteString(q.Text)
	b.WriteString("\n\n")
	b.WriteString(instruction)
	return b.String()
}

// ProcessResponse extracts the answer from directSchema-shaped JSON.
func (s *DirectService) ProcessResponse(structured json.RawMessage) (Result, error) {
	var resp directResponse
	if err := json.Unmarshal(structured, &resp); err != nil {
		return Result{}, fmt.Errorf("direct agent: decode structured response: %w", err)
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return Result{}, fmt.Errorf("direct agent: structured response contains no answer")
	}

	trace, err := domain.NewReasoningTrace(domain.ApproachNone, "", nil)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Answer:     strings.TrimSpace(resp.Answer),
		Trace:      trace,
		Confidence: resp.Confidence,
	}, nil
}

// ValidateConfig checks the configuration for the direct approach.
func (s *DirectService) ValidateConfig(cfg domain.AgentConfig) error {
	if cfg.AgentType != domain.AgentTypeNone {
		return fmt.Errorf("%w: direct service cannot validate agent type %q",
			domain.ErrInvalidConfiguration, cfg.AgentType)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var params DirectParams
	if err := decodeParams(cfg.AgentParameters, &params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

// ResponseSchema returns the JSON schema for direct answers.
func (s *DirectService) ResponseSchema() json.RawMessage { return directSchema }
