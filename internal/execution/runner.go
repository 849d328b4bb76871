// Package execution bridges the domain and the LLM infrastructure. The
// Runner executes one reasoning request end to end and normalizes every
// outcome into domain terms: a valid Answer on success, a classified
// FailureReason on failure. Provider-specific errors never cross this
// boundary.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentlab/evalrun/internal/agent"
	"github.com/agentlab/evalrun/internal/domain"
	"github.com/agentlab/evalrun/internal/ports"
)

// Runner executes reasoning requests against an LLM client.
type Runner struct {
	client ports.LLMClient
	logger *zap.Logger
	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewRunner creates a Runner over the given client.
func NewRunner(client ports.LLMClient, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, logger: logger, now: time.Now}
}

// ExecuteReasoning runs one question through the agent and the model.
// Exactly one of the return values is set: an Answer when the call and
// extraction succeeded, a FailureReason otherwise. Context cancellation is
// returned as an error so the caller can distinguish interruption from a
// per-question failure.
func (r *Runner) ExecuteReasoning(
	ctx context.Context,
	svc agent.Service,
	question domain.Question,
	cfg domain.AgentConfig,
) (*domain.Answer, *domain.FailureReason, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	prompt := svc.BuildPrompt(question, cfg)
	options := requestOptions(cfg)

	start := r.now()
	resp, err := r.client.Complete(ctx, prompt, options)
	elapsed := r.now().Sub(start)

	if err != nil {
		// Cancellation is a lifecycle event, not a question failure.
		// Request-level deadlines still classify as network timeouts.
		if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
			return nil, nil, context.Canceled
		}
		reason := MapError(err, r.now())
		r.logger.Warn("reasoning request failed",
			zap.String("question_id", question.ID),
			zap.String("category", string(reason.Category)),
			zap.Error(err))
		return nil, &reason, nil
	}

	if len(resp.Structured) == 0 {
		reason := MapError(fmt.Errorf("failed to parse model response: no structured data"), r.now())
		return nil, &reason, nil
	}

	result, err := svc.ProcessResponse(resp.Structured)
	if err != nil {
		reason := MapError(fmt.Errorf("failed to parse model response: %w", err), r.now())
		r.logger.Warn("response processing failed",
			zap.String("question_id", question.ID),
			zap.Error(err))
		return nil, &reason, nil
	}

	answer := domain.Answer{
		ExtractedAnswer: result.Answer,
		ReasoningTrace:  result.Trace,
		Confidence:      result.Confidence,
		ExecutionTime:   elapsed,
		TokenUsage: domain.TokenUsage{
			PromptTokens:     resp.TokensIn,
			CompletionTokens: resp.TokensOut,
		},
		RawResponse: resp.Content,
	}
	if err := answer.Validate(); err != nil {
		reason := MapError(err, r.now())
		return nil, &reason, nil
	}
	return &answer, nil, nil
}

// requestOptions translates an agent configuration into the option map the
// client understands. Only explicitly configured parameters are forwarded
// so provider defaults apply otherwise.
func requestOptions(cfg domain.AgentConfig) map[string]any {
	options := make(map[string]any)
	if temp, ok := cfg.Temperature(); ok {
		options["temperature"] = temp
	}
	if maxTokens, ok := cfg.MaxTokens(); ok {
		options["max_tokens"] = maxTokens
	}
	return options
}
