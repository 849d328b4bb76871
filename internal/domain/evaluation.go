package domain

import "time"

// EvaluationStatus is the lifecycle state of an Evaluation.
type EvaluationStatus string

const (
	// StatusPending means the evaluation is created but not yet started.
	StatusPending EvaluationStatus = "pending"

	// StatusRunning means the question loop is in progress.
	StatusRunning EvaluationStatus = "running"

	// StatusCompleted means every question was processed. Terminal.
	StatusCompleted EvaluationStatus = "completed"

	// StatusFailed means an evaluation-scoped error aborted the run. Terminal.
	StatusFailed EvaluationStatus = "failed"

	// StatusInterrupted means the run was cancelled between questions.
	// The evaluation remains resumable.
	StatusInterrupted EvaluationStatus = "interrupted"
)

// EvaluationStatuses lists every valid status value.
var EvaluationStatuses = []EvaluationStatus{
	StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusInterrupted,
}

// IsValidStatus reports whether s is a member of the closed status set.
func IsValidStatus(s EvaluationStatus) bool {
	for _, v := range EvaluationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s EvaluationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Evaluation is the aggregate root for one run of an agent configuration
// against one benchmark. Transitions produce new instances rather than
// mutating in place; each transition validates the prior status.
//
// Aggregate results are deliberately not stored on the entity. They are
// always derived from the persisted per-question records, which keeps a
// single source of truth and makes resume-from-partial-progress safe.
type Evaluation struct {
	// EvaluationID uniquely identifies the evaluation (UUID).
	EvaluationID string `json:"evaluation_id"`

	// AgentConfig is the configured agent this evaluation exercises.
	AgentConfig AgentConfig `json:"agent_config"`

	// BenchmarkID identifies the benchmark being run.
	BenchmarkID string `json:"benchmark_id"`

	// Status is the current lifecycle state.
	Status EvaluationStatus `json:"status"`

	// CreatedAt records when the evaluation was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt records when execution first began. Nil while pending.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt records when the evaluation reached completed. Nil otherwise.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// FailureReason records why the evaluation failed. Nil unless failed.
	FailureReason *FailureReason `json:"failure_reason,omitempty"`
}

// NewEvaluation creates a pending evaluation for the given agent and benchmark.
func NewEvaluation(id string, config AgentConfig, benchmarkID string, now time.Time) Evaluation {
	return Evaluation{
		EvaluationID: id,
		AgentConfig:  config,
		BenchmarkID:  benchmarkID,
		Status:       StatusPending,
		CreatedAt:    now.UTC(),
	}
}

// StartExecution transitions the evaluation to running. Legal from pending
// and from interrupted (the resume case). StartedAt is set on the first
// start only, so a resumed evaluation keeps its original start time.
func (e Evaluation) StartExecution(now time.Time) (Evaluation, error) {
	if e.Status != StatusPending && e.Status != StatusInterrupted {
		return Evaluation{}, &TransitionError{EvaluationID: e.EvaluationID, From: e.Status, Transition: "start_execution"}
	}
	next := e
	next.Status = StatusRunning
	next.FailureReason = nil
	if next.StartedAt == nil {
		t := now.UTC()
		next.StartedAt = &t
	}
	return next, nil
}

// Complete transitions a running evaluation to completed.
func (e Evaluation) Complete(now time.Time) (Evaluation, error) {
	if e.Status != StatusRunning {
		return Evaluation{}, &TransitionError{EvaluationID: e.EvaluationID, From: e.Status, Transition: "complete"}
	}
	next := e
	next.Status = StatusCompleted
	t := now.UTC()
	next.CompletedAt = &t
	return next, nil
}

// FailWith transitions a running evaluation to failed with the given reason.
func (e Evaluation) FailWith(reason FailureReason, now time.Time) (Evaluation, error) {
	if e.Status != StatusRunning {
		return Evaluation{}, &TransitionError{EvaluationID: e.EvaluationID, From: e.Status, Transition: "fail_with_reason"}
	}
	next := e
	next.Status = StatusFailed
	t := now.UTC()
	next.CompletedAt = &t
	next.FailureReason = &reason
	return next, nil
}

// Interrupt transitions a running evaluation to interrupted. Work persisted
// so far remains valid; the evaluation can be resumed with StartExecution.
func (e Evaluation) Interrupt() (Evaluation, error) {
	if e.Status != StatusRunning {
		return Evaluation{}, &TransitionError{EvaluationID: e.EvaluationID, From: e.Status, Transition: "interrupt"}
	}
	next := e
	next.Status = StatusInterrupted
	return next, nil
}

// IsResumable reports whether ExecuteEvaluation may be (re-)invoked.
func (e Evaluation) IsResumable() bool {
	return e.Status == StatusPending || e.Status == StatusInterrupted
}
