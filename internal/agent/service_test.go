package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlab/evalrun/internal/domain"
)

// TestRegistry_For verifies both standard approaches are registered and
// unknown types are rejected.
func TestRegistry_For(t *testing.T) {
	r := NewRegistry()

	direct, err := r.For(domain.AgentTypeNone)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentTypeNone, direct.AgentType())

	cot, err := r.For(domain.AgentTypeChainOfThought)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentTypeChainOfThought, cot.AgentType())

	_, err = r.For("tree_of_thought")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

// TestDirectService_BuildPrompt checks the question is embedded verbatim
// with the direct-answer instruction.
func TestDirectService_BuildPrompt(t *testing.T) {
	svc := NewDirectService()
	q := domain.NewQuestion("q1", "What is the capital of France?", "Paris", nil)
	cfg := domain.NewAgentConfig(domain.AgentTypeNone, domain.ProviderMock, "mock-small", nil, nil)

	prompt := svc.BuildPrompt(q, cfg)
	assert.Contains(t, prompt, "Question: What is the capital of France?")
	assert.Contains(t, prompt, "without explanation")
	assert.NotContains(t, prompt, "step by step")
}

// TestDirectService_BuildPrompt_InstructionOverride verifies the configured
// answer instruction replaces the default.
func TestDirectService_BuildPrompt_InstructionOverride(t *testing.T) {
	svc := NewDirectService()
	q := domain.NewQuestion("q1", "What is 2+2?", "4", nil)
	cfg := domain.NewAgentConfig(domain.AgentTypeNone, domain.ProviderMock, "mock-small",
		nil, map[string]any{"answer_instruction": "Reply with a single number and nothing else."})

	prompt := svc.BuildPrompt(q, cfg)
	assert.Contains(t, prompt, "Reply with a single number and nothing else.")
	assert.NotContains(t, prompt, "without explanation")
}

// TestChainOfThoughtService_BuildPrompt covers the default prompt and the
// configured reasoning instruction and step cap.
func TestChainOfThoughtService_BuildPrompt(t *testing.T) {
	svc := NewChainOfThoughtService()
	q := domain.NewQuestion("q1", "What is 17-9?", "8", nil)

	plain := domain.NewAgentConfig(domain.AgentTypeChainOfThought, domain.ProviderMock, "mock-small", nil, nil)
	prompt := svc.BuildPrompt(q, plain)
	assert.Contains(t, prompt, "Question: What is 17-9?")
	assert.Contains(t, prompt, "step by step")
	assert.NotContains(t, prompt, "reasoning steps")

	tuned := domain.NewAgentConfig(domain.AgentTypeChainOfThought, domain.ProviderMock, "mock-small",
		nil, map[string]any{
			"reasoning_instruction": "Decompose the problem before answering.",
			"max_reasoning_steps":   3,
		})
	prompt = svc.BuildPrompt(q, tuned)
	assert.Contains(t, prompt, "Decompose the problem before answering.")
	assert.Contains(t, prompt, "Use at most 3 reasoning steps.")
	assert.NotContains(t, prompt, "step by step")
}

// TestDirectService_ProcessResponse covers valid, empty, and malformed
// structured responses.
func TestDirectService_ProcessResponse(t *testing.T) {
	svc := NewDirectService()

	tests := []struct {
		name       string
		structured string
		wantAnswer string
		wantConf   *float64
		wantErr    bool
	}{
		{
			name:       "answer with confidence",
			structured: `{"answer": "Paris", "confidence": 0.9}`,
			wantAnswer: "Paris",
			wantConf:   ptr(0.9),
		},
		{
			name:       "answer only",
			structured: `{"answer": " 4 "}`,
			wantAnswer: "4",
		},
		{name: "empty answer", structured: `{"answer": "  "}`, wantErr: true},
		{name: "missing answer", structured: `{"confidence": 0.5}`, wantErr: true},
		{name: "not json", structured: `the answer is Paris`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ProcessResponse(json.RawMessage(tt.structured))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnswer, result.Answer)
			assert.Equal(t, domain.ApproachNone, result.Trace.ApproachType)
			assert.Empty(t, result.Trace.ReasoningText)
			if tt.wantConf != nil {
				require.NotNil(t, result.Confidence)
				assert.Equal(t, *tt.wantConf, *result.Confidence)
			}
		})
	}
}

// TestChainOfThoughtService_ProcessResponse verifies the reasoning is
// required and preserved in the trace.
func TestChainOfThoughtService_ProcessResponse(t *testing.T) {
	svc := NewChainOfThoughtService()

	result, err := svc.ProcessResponse(json.RawMessage(
		`{"reasoning": "2 and 2 makes 4", "answer": "4", "confidence": 0.99}`))
	require.NoError(t, err)
	assert.Equal(t, "4", result.Answer)
	assert.Equal(t, domain.ApproachChainOfThought, result.Trace.ApproachType)
	assert.Equal(t, "2 and 2 makes 4", result.Trace.ReasoningText)
	assert.NotEmpty(t, result.Trace.Metadata["reasoning_length"])

	_, err = svc.ProcessResponse(json.RawMessage(`{"answer": "4"}`))
	assert.Error(t, err, "reasoning is mandatory for chain of thought.")

	_, err = svc.ProcessResponse(json.RawMessage(`{"reasoning": "because"}`))
	assert.Error(t, err)
}

// TestValidateConfig covers the approach/type pairing and parameter
// validation for both services.
func TestValidateConfig(t *testing.T) {
	direct := NewDirectService()
	cot := NewChainOfThoughtService()

	directCfg := domain.NewAgentConfig(domain.AgentTypeNone, domain.ProviderMock, "mock-small", nil, nil)
	cotCfg := domain.NewAgentConfig(domain.AgentTypeChainOfThought, domain.ProviderMock, "mock-small", nil, nil)

	assert.NoError(t, direct.ValidateConfig(directCfg))
	assert.NoError(t, cot.ValidateConfig(cotCfg))

	// Cross-wired types are rejected.
	assert.ErrorIs(t, direct.ValidateConfig(cotCfg), domain.ErrInvalidConfiguration)
	assert.ErrorIs(t, cot.ValidateConfig(directCfg), domain.ErrInvalidConfiguration)

	// Agent parameters are validated against the approach's schema.
	badParams := domain.NewAgentConfig(domain.AgentTypeChainOfThought, domain.ProviderMock, "mock-small",
		nil, map[string]any{"max_reasoning_steps": 500})
	assert.ErrorIs(t, cot.ValidateConfig(badParams), domain.ErrInvalidConfiguration)

	goodParams := domain.NewAgentConfig(domain.AgentTypeChainOfThought, domain.ProviderMock, "mock-small",
		nil, map[string]any{"max_reasoning_steps": 5, "reasoning_instruction": "Think very carefully."})
	assert.NoError(t, cot.ValidateConfig(goodParams))
}

// TestResponseSchemas verifies both schemas parse as JSON and require the
// fields the services later insist on.
func TestResponseSchemas(t *testing.T) {
	for _, svc := range []Service{NewDirectService(), NewChainOfThoughtService()} {
		var schema map[string]any
		require.NoError(t, json.Unmarshal(svc.ResponseSchema(), &schema),
			"schema for %s must be valid JSON", svc.AgentType())
		assert.Equal(t, "object", schema["type"])
		assert.Contains(t, schema, "required")
	}
}

func ptr(f float64) *float64 { return &f }
