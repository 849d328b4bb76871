// Package ports defines the interfaces through which the evaluation core
// consumes external collaborators: benchmark storage, evaluation and
// question-result persistence, LLM clients, and result export.
package ports

import (
	"context"

	"github.com/agentlab/evalrun/internal/domain"
)

// BenchmarkStore provides read-only access to ordered, immutable question
// sets. Lookups that miss must return domain.ErrBenchmarkNotFound.
type BenchmarkStore interface {
	// GetByName returns the benchmark with the given human-facing name.
	GetByName(ctx context.Context, name string) (domain.Benchmark, error)

	// GetByID returns the benchmark with the given identifier.
	GetByID(ctx context.Context, id string) (domain.Benchmark, error)

	// List returns every available benchmark, questions included.
	List(ctx context.Context) ([]domain.Benchmark, error)
}

// EvaluationRepository persists Evaluation aggregates. Lookups that miss
// must return domain.ErrEvaluationNotFound. Each Save and Update is a
// single atomic write.
type EvaluationRepository interface {
	// Save persists a newly created evaluation.
	Save(ctx context.Context, eval domain.Evaluation) error

	// GetByID loads an evaluation by its identifier.
	GetByID(ctx context.Context, id string) (domain.Evaluation, error)

	// Update persists a lifecycle transition for an existing evaluation.
	Update(ctx context.Context, eval domain.Evaluation) error

	// ListByStatus returns evaluations holding the given status,
	// newest first.
	ListByStatus(ctx context.Context, status domain.EvaluationStatus) ([]domain.Evaluation, error)

	// ListAll returns every evaluation, newest first.
	ListAll(ctx context.Context) ([]domain.Evaluation, error)
}

// QuestionResultRepository persists the append-only per-question records.
// Save must be a single atomic write: a crash mid-save never leaves a
// half-written record visible.
type QuestionResultRepository interface {
	// Save persists one question result. (EvaluationID, QuestionID) is
	// unique; callers are expected to check Exists first.
	Save(ctx context.Context, result domain.QuestionResult) error

	// GetByEvaluationID returns every record for the evaluation in
	// processing order.
	GetByEvaluationID(ctx context.Context, evaluationID string) ([]domain.QuestionResult, error)

	// Exists reports whether a record already exists for the pair.
	// This check is the entire resume mechanism.
	Exists(ctx context.Context, evaluationID, questionID string) (bool, error)

	// GetProgress derives the evaluation's progress counters from the
	// stored records in one read.
	GetProgress(ctx context.Context, evaluationID string, total int) (domain.Progress, error)
}
