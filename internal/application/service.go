// Package application orchestrates the evaluation lifecycle: creating
// evaluations, driving the resumable question loop, deriving progress and
// results, and exporting them. It depends on the domain and on ports only;
// infrastructure is injected at construction time.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentlab/evalrun/internal/agent"
	"github.com/agentlab/evalrun/internal/domain"
	"github.com/agentlab/evalrun/internal/execution"
	"github.com/agentlab/evalrun/internal/ports"
)

// ClientFactory builds an LLM client for an agent configuration. The schema
// is the response schema of the configured reasoning approach; the factory
// wires the structured-output strategy appropriate to the provider.
type ClientFactory interface {
	ClientFor(cfg domain.AgentConfig, schema []byte, schemaName string) (ports.LLMClient, error)
}

// ProgressFunc receives a snapshot after every persisted question result.
type ProgressFunc func(domain.ProgressInfo)

// EvaluationService coordinates evaluations end to end.
type EvaluationService struct {
	evaluations ports.EvaluationRepository
	results     ports.QuestionResultRepository
	benchmarks  ports.BenchmarkStore
	agents      *agent.Registry
	clients     ClientFactory
	exporters   map[string]ports.ResultExporter
	matcher     MatchConfig
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewEvaluationService wires an EvaluationService from its collaborators.
func NewEvaluationService(
	evaluations ports.EvaluationRepository,
	results ports.QuestionResultRepository,
	benchmarks ports.BenchmarkStore,
	agents *agent.Registry,
	clients ClientFactory,
	exporters map[string]ports.ResultExporter,
	matcher MatchConfig,
	logger *zap.Logger,
) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		evaluations: evaluations,
		results:     results,
		benchmarks:  benchmarks,
		agents:      agents,
		clients:     clients,
		exporters:   exporters,
		matcher:     matcher,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// CreateEvaluation validates the agent configuration, resolves the
// benchmark by name, and persists a new pending evaluation.
func (s *EvaluationService) CreateEvaluation(
	ctx context.Context,
	config domain.AgentConfig,
	benchmarkName string,
) (domain.Evaluation, error) {
	if err := config.Validate(); err != nil {
		return domain.Evaluation{}, err
	}
	svc, err := s.agents.For(config.AgentType)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if err := svc.ValidateConfig(config); err != nil {
		return domain.Evaluation{}, err
	}

	benchmark, err := s.benchmarks.GetByName(ctx, benchmarkName)
	if err != nil {
		return domain.Evaluation{}, err
	}

	eval := domain.NewEvaluation(s.newID(), config, benchmark.ID, s.now())
	if err := s.evaluations.Save(ctx, eval); err != nil {
		return domain.Evaluation{}, fmt.Errorf("save evaluation: %w", err)
	}

	s.logger.Info("evaluation created",
		zap.String("evaluation_id", eval.EvaluationID),
		zap.String("benchmark", benchmarkName),
		zap.String("agent_type", string(config.AgentType)),
		zap.String("model", config.ModelName))
	return eval, nil
}

// ExecuteEvaluation runs (or resumes) the sequential question loop for an
// evaluation. Questions with a persisted result are skipped, which makes
// re-invocation after an interruption or crash idempotent. Per-question
// failures are recorded and the loop continues; only evaluation-scoped
// errors (persistence faults, cancellation) stop it.
func (s *EvaluationService) ExecuteEvaluation(
	ctx context.Context,
	evaluationID string,
	progress ProgressFunc,
) error {
	eval, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		return err
	}
	if !eval.IsResumable() {
		return &domain.TransitionError{
			EvaluationID: eval.EvaluationID,
			From:         eval.Status,
			Transition:   "start_execution",
		}
	}

	benchmark, err := s.benchmarks.GetByID(ctx, eval.BenchmarkID)
	if err != nil {
		return err
	}

	svc, err := s.agents.For(eval.AgentConfig.AgentType)
	if err != nil {
		return err
	}
	client, err := s.clients.ClientFor(eval.AgentConfig, svc.ResponseSchema(), string(eval.AgentConfig.AgentType))
	if err != nil {
		return err
	}
	runner := execution.NewRunner(client, s.logger)

	eval, err = eval.StartExecution(s.now())
	if err != nil {
		return err
	}
	if err := s.evaluations.Update(ctx, eval); err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}

	s.logger.Info("evaluation started",
		zap.String("evaluation_id", eval.EvaluationID),
		zap.String("benchmark_id", eval.BenchmarkID),
		zap.Int("questions", benchmark.Size()))

	if err := s.runQuestionLoop(ctx, eval, benchmark, svc, runner, progress); err != nil {
		return s.concludeAbnormally(eval, err)
	}

	eval, err = eval.Complete(s.now())
	if err != nil {
		return err
	}
	if err := s.evaluations.Update(context.WithoutCancel(ctx), eval); err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	s.logger.Info("evaluation completed", zap.String("evaluation_id", eval.EvaluationID))
	return nil
}

// runQuestionLoop processes the benchmark's questions in order, skipping
// any with an existing persisted result.
func (s *EvaluationService) runQuestionLoop(
	ctx context.Context,
	eval domain.Evaluation,
	benchmark domain.Benchmark,
	svc agent.Service,
	runner *execution.Runner,
	progress ProgressFunc,
) error {
	for _, question := range benchmark.Questions {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := s.results.Exists(ctx, eval.EvaluationID, question.ID)
		if err != nil {
			return fmt.Errorf("check question result: %w", err)
		}
		if done {
			continue
		}

		record, err := s.processQuestion(ctx, eval, svc, runner, question)
		if err != nil {
			return err
		}
		if err := s.results.Save(ctx, record); err != nil {
			return fmt.Errorf("save question result: %w", err)
		}

		if progress != nil {
			s.reportProgress(ctx, eval, benchmark.Size(), progress)
		}
	}
	return nil
}

// processQuestion runs one question and maps the outcome to its record.
// Only cancellation propagates as an error.
func (s *EvaluationService) processQuestion(
	ctx context.Context,
	eval domain.Evaluation,
	svc agent.Service,
	runner *execution.Runner,
	question domain.Question,
) (domain.QuestionResult, error) {
	start := s.now()
	answer, failure, err := runner.ExecuteReasoning(ctx, svc, question, eval.AgentConfig)
	if err != nil {
		return domain.QuestionResult{}, err
	}

	if failure != nil {
		return domain.NewFailureResult(
			s.newID(), eval.EvaluationID, question, *failure, s.now().Sub(start), s.now()), nil
	}

	correct := s.matcher.Matches(question.ExpectedAnswer, answer.ExtractedAnswer)
	return domain.NewSuccessResult(
		s.newID(), eval.EvaluationID, question, *answer, correct, s.now()), nil
}

// reportProgress derives counters from storage and invokes the callback.
// Reporting is best effort; a read failure never aborts the loop.
func (s *EvaluationService) reportProgress(
	ctx context.Context,
	eval domain.Evaluation,
	total int,
	progress ProgressFunc,
) {
	p, err := s.results.GetProgress(ctx, eval.EvaluationID, total)
	if err != nil {
		s.logger.Warn("progress read failed",
			zap.String("evaluation_id", eval.EvaluationID), zap.Error(err))
		return
	}
	progress(progressInfo(eval, p, s.now()))
}

// concludeAbnormally transitions a running evaluation after an abnormal
// loop exit: interrupted on cancellation, failed otherwise. The original
// error is returned either way.
func (s *EvaluationService) concludeAbnormally(eval domain.Evaluation, cause error) error {
	// The triggering context may already be cancelled; the status write
	// must still land.
	ctx := context.Background()

	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		next, err := eval.Interrupt()
		if err != nil {
			return errors.Join(cause, err)
		}
		if err := s.evaluations.Update(ctx, next); err != nil {
			return errors.Join(cause, err)
		}
		s.logger.Info("evaluation interrupted", zap.String("evaluation_id", eval.EvaluationID))
		return cause
	}

	reason := execution.MapError(cause, s.now())
	next, err := eval.FailWith(reason, s.now())
	if err != nil {
		return errors.Join(cause, err)
	}
	if err := s.evaluations.Update(ctx, next); err != nil {
		return errors.Join(cause, err)
	}
	s.logger.Error("evaluation failed",
		zap.String("evaluation_id", eval.EvaluationID),
		zap.String("category", string(reason.Category)),
		zap.Error(cause))
	return cause
}

// GetEvaluation returns the evaluation aggregate.
func (s *EvaluationService) GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error) {
	return s.evaluations.GetByID(ctx, id)
}

// GetProgress derives the live progress of an evaluation from storage.
func (s *EvaluationService) GetProgress(ctx context.Context, id string) (domain.ProgressInfo, error) {
	eval, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		return domain.ProgressInfo{}, err
	}
	benchmark, err := s.benchmarks.GetByID(ctx, eval.BenchmarkID)
	if err != nil {
		return domain.ProgressInfo{}, err
	}
	p, err := s.results.GetProgress(ctx, id, benchmark.Size())
	if err != nil {
		return domain.ProgressInfo{}, err
	}
	return progressInfo(eval, p, s.now()), nil
}

// GetResults folds the persisted per-question records into aggregate
// results. It works for completed, interrupted, and running evaluations;
// an evaluation with no processed questions yields domain.ErrNoResults.
func (s *EvaluationService) GetResults(ctx context.Context, id string) (domain.EvaluationResults, error) {
	if _, err := s.evaluations.GetByID(ctx, id); err != nil {
		return domain.EvaluationResults{}, err
	}
	records, err := s.results.GetByEvaluationID(ctx, id)
	if err != nil {
		return domain.EvaluationResults{}, err
	}
	return domain.ComputeResults(records)
}

// EvaluationSummary pairs an evaluation with presentation context: the
// resolved benchmark name and the storage-derived progress.
type EvaluationSummary struct {
	Evaluation    domain.Evaluation
	BenchmarkName string
	Progress      domain.Progress
}

// ListEvaluations returns summaries for all evaluations, filtered by status
// and benchmark when the filters are non-empty. The benchmark filter accepts
// either the benchmark's name or its ID. Benchmark lookups are tolerant: a
// benchmark that has since been removed reports its ID as the name rather
// than failing the listing.
func (s *EvaluationService) ListEvaluations(ctx context.Context, status domain.EvaluationStatus, benchmark string) ([]EvaluationSummary, error) {
	var (
		evals []domain.Evaluation
		err   error
	)
	if status == "" {
		evals, err = s.evaluations.ListAll(ctx)
	} else {
		if !domain.IsValidStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, status)
		}
		evals, err = s.evaluations.ListByStatus(ctx, status)
	}
	if err != nil {
		return nil, err
	}

	summaries := make([]EvaluationSummary, 0, len(evals))
	for _, eval := range evals {
		summary := EvaluationSummary{Evaluation: eval, BenchmarkName: eval.BenchmarkID}

		total := 0
		if b, err := s.benchmarks.GetByID(ctx, eval.BenchmarkID); err == nil {
			summary.BenchmarkName = b.Name
			total = b.Size()
		} else {
			s.logger.Warn("benchmark no longer available, reporting its id",
				zap.String("evaluation_id", eval.EvaluationID),
				zap.String("benchmark_id", eval.BenchmarkID),
				zap.Error(err))
		}
		if p, err := s.results.GetProgress(ctx, eval.EvaluationID, total); err == nil {
			summary.Progress = p
		}
		if benchmark != "" && benchmark != summary.BenchmarkName && benchmark != eval.BenchmarkID {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ExportResults writes an evaluation's derived results to path in the
// given format.
func (s *EvaluationService) ExportResults(ctx context.Context, id, format, path string) error {
	exporter, ok := s.exporters[format]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	results, err := s.GetResults(ctx, id)
	if err != nil {
		return err
	}
	return exporter.Export(results, path)
}

// progressInfo converts storage-derived progress into the callback DTO.
func progressInfo(eval domain.Evaluation, p domain.Progress, now time.Time) domain.ProgressInfo {
	info := domain.ProgressInfo{
		EvaluationID:      eval.EvaluationID,
		CurrentQuestion:   p.Completed,
		TotalQuestions:    p.Total,
		SuccessfulAnswers: p.Successful,
		FailedQuestions:   p.Failed,
		LastUpdated:       now,
	}
	if eval.StartedAt != nil {
		info.StartedAt = *eval.StartedAt
	}
	if p.LatestTimestamp != nil {
		info.LastUpdated = *p.LatestTimestamp
	}
	return info
}
