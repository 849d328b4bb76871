// Package storage provides the persistence adapters: a SQLite store for
// evaluations and question results, and a YAML-file benchmark catalog.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/agentlab/evalrun/internal/domain"
)

// SQLiteStore owns the database handle and hands out the two repository
// views over it. Both views share the same connection pool so reads always
// observe completed writes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS evaluations (
	id             TEXT PRIMARY KEY,
	benchmark_id   TEXT NOT NULL,
	agent_config   TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	failure_reason TEXT,
	created_at     DATETIME NOT NULL,
	started_at     DATETIME,
	completed_at   DATETIME
);

CREATE TABLE IF NOT EXISTS question_results (
	id                TEXT PRIMARY KEY,
	evaluation_id     TEXT NOT NULL REFERENCES evaluations(id),
	question_id       TEXT NOT NULL,
	question_text     TEXT NOT NULL,
	expected_answer   TEXT NOT NULL,
	actual_answer     TEXT,
	is_correct        INTEGER,
	execution_time_ns INTEGER NOT NULL DEFAULT 0,
	reasoning_trace   TEXT,
	error_message     TEXT,
	technical_details TEXT NOT NULL DEFAULT '',
	processed_at      DATETIME NOT NULL,
	UNIQUE (evaluation_id, question_id)
);

CREATE INDEX IF NOT EXISTS idx_evaluations_status ON evaluations(status);
CREATE INDEX IF NOT EXISTS idx_question_results_evaluation_id ON question_results(evaluation_id);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Evaluations returns the evaluation repository view.
func (s *SQLiteStore) Evaluations() *EvaluationStore {
	return &EvaluationStore{db: s.db}
}

// Results returns the question-result repository view.
func (s *SQLiteStore) Results() *QuestionResultStore {
	return &QuestionResultStore{db: s.db}
}

// EvaluationStore implements ports.EvaluationRepository over SQLite.
type EvaluationStore struct {
	db *sql.DB
}

// Save persists a newly created evaluation.
func (s *EvaluationStore) Save(ctx context.Context, eval domain.Evaluation) error {
	configJSON, err := json.Marshal(eval.AgentConfig)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal agent config")
	}
	reasonJSON, err := marshalNullable(eval.FailureReason)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failure reason")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, benchmark_id, agent_config, status, failure_reason, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		eval.EvaluationID, eval.BenchmarkID, string(configJSON), string(eval.Status),
		reasonJSON, eval.CreatedAt, nullableTime(eval.StartedAt), nullableTime(eval.CompletedAt),
	)
	return eris.Wrapf(err, "sqlite: insert evaluation %s", eval.EvaluationID)
}

// Update persists a lifecycle transition for an existing evaluation.
func (s *EvaluationStore) Update(ctx context.Context, eval domain.Evaluation) error {
	reasonJSON, err := marshalNullable(eval.FailureReason)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failure reason")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE evaluations SET status = ?, failure_reason = ?, started_at = ?, completed_at = ? WHERE id = ?`,
		string(eval.Status), reasonJSON, nullableTime(eval.StartedAt), nullableTime(eval.CompletedAt),
		eval.EvaluationID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update evaluation %s", eval.EvaluationID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return domain.ErrEvaluationNotFound
	}
	return nil
}

// GetByID loads an evaluation by its identifier.
func (s *EvaluationStore) GetByID(ctx context.Context, id string) (domain.Evaluation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, benchmark_id, agent_config, status, failure_reason, created_at, started_at, completed_at
		 FROM evaluations WHERE id = ?`, id)
	return scanEvaluation(row)
}

// ListByStatus returns evaluations holding the given status, newest first.
func (s *EvaluationStore) ListByStatus(ctx context.Context, status domain.EvaluationStatus) ([]domain.Evaluation, error) {
	return s.list(ctx,
		`SELECT id, benchmark_id, agent_config, status, failure_reason, created_at, started_at, completed_at
		 FROM evaluations WHERE status = ? ORDER BY created_at DESC, id`, string(status))
}

// ListAll returns every evaluation, newest first.
func (s *EvaluationStore) ListAll(ctx context.Context) ([]domain.Evaluation, error) {
	return s.list(ctx,
		`SELECT id, benchmark_id, agent_config, status, failure_reason, created_at, started_at, completed_at
		 FROM evaluations ORDER BY created_at DESC, id`)
}

func (s *EvaluationStore) list(ctx context.Context, query string, args ...any) ([]domain.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evaluations")
	}
	defer rows.Close()

	var evals []domain.Evaluation
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	return evals, eris.Wrap(rows.Err(), "sqlite: list evaluations iterate")
}

// QuestionResultStore implements ports.QuestionResultRepository over SQLite.
type QuestionResultStore struct {
	db *sql.DB
}

// Save persists one question result as a single atomic insert. The unique
// index on (evaluation_id, question_id) rejects duplicate records.
func (s *QuestionResultStore) Save(ctx context.Context, result domain.QuestionResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	traceJSON, err := marshalNullable(result.ReasoningTrace)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal reasoning trace")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_results
		   (id, evaluation_id, question_id, question_text, expected_answer,
		    actual_answer, is_correct, execution_time_ns, reasoning_trace,
		    error_message, technical_details, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.EvaluationID, result.QuestionID, result.QuestionText,
		result.ExpectedAnswer, nullableString(result.ActualAnswer),
		nullableBool(result.IsCorrect), int64(result.ExecutionTime), traceJSON,
		nullableString(result.ErrorMessage), result.TechnicalDetails, result.ProcessedAt,
	)
	return eris.Wrapf(err, "sqlite: insert question result %s/%s",
		result.EvaluationID, result.QuestionID)
}

// GetByEvaluationID returns every record for the evaluation in processing order.
func (s *QuestionResultStore) GetByEvaluationID(ctx context.Context, evaluationID string) ([]domain.QuestionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, evaluation_id, question_id, question_text, expected_answer,
		        actual_answer, is_correct, execution_time_ns, reasoning_trace,
		        error_message, technical_details, processed_at
		 FROM question_results WHERE evaluation_id = ? ORDER BY processed_at, id`,
		evaluationID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list question results")
	}
	defer rows.Close()

	var results []domain.QuestionResult
	for rows.Next() {
		r, err := scanQuestionResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list question results iterate")
}

// Exists reports whether a record already exists for (evaluationID, questionID).
func (s *QuestionResultStore) Exists(ctx context.Context, evaluationID, questionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM question_results WHERE evaluation_id = ? AND question_id = ?`,
		evaluationID, questionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: check question result")
	}
	return true, nil
}

// GetProgress derives the progress counters for an evaluation in one read.
func (s *QuestionResultStore) GetProgress(ctx context.Context, evaluationID string, total int) (domain.Progress, error) {
	var (
		completed, successful, failed int
		latest                        sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN error_message IS NULL THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN error_message IS NOT NULL THEN 1 ELSE 0 END), 0),
		        MAX(processed_at)
		 FROM question_results WHERE evaluation_id = ?`,
		evaluationID).Scan(&completed, &successful, &failed, &latest)
	if err != nil {
		return domain.Progress{}, eris.Wrap(err, "sqlite: get progress")
	}

	p := domain.Progress{
		Completed:  completed,
		Successful: successful,
		Failed:     failed,
		Total:      total,
	}
	if latest.Valid {
		t := latest.Time.UTC()
		p.LatestTimestamp = &t
	}
	return p, nil
}

// helpers

func marshalNullable(v any) (sql.NullString, error) {
	if isNilPointer(v) {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *domain.FailureReason:
		return p == nil
	case *domain.ReasoningTrace:
		return p == nil
	default:
		return v == nil
	}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scannable) (domain.Evaluation, error) {
	var (
		eval                 domain.Evaluation
		configJSON           string
		reasonJSON           sql.NullString
		startedAt, completed sql.NullTime
	)
	err := row.Scan(&eval.EvaluationID, &eval.BenchmarkID, &configJSON, &eval.Status,
		&reasonJSON, &eval.CreatedAt, &startedAt, &completed)
	if err == sql.ErrNoRows {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return domain.Evaluation{}, eris.Wrap(err, "sqlite: scan evaluation")
	}

	if err := json.Unmarshal([]byte(configJSON), &eval.AgentConfig); err != nil {
		return domain.Evaluation{}, eris.Wrap(err, "sqlite: unmarshal agent config")
	}
	if reasonJSON.Valid {
		eval.FailureReason = &domain.FailureReason{}
		if err := json.Unmarshal([]byte(reasonJSON.String), eval.FailureReason); err != nil {
			return domain.Evaluation{}, eris.Wrap(err, "sqlite: unmarshal failure reason")
		}
	}
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		eval.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time.UTC()
		eval.CompletedAt = &t
	}
	eval.CreatedAt = eval.CreatedAt.UTC()
	return eval, nil
}

func scanQuestionResult(row scannable) (domain.QuestionResult, error) {
	var (
		r         domain.QuestionResult
		actual    sql.NullString
		correct   sql.NullBool
		execNanos int64
		traceJSON sql.NullString
		errMsg    sql.NullString
	)
	err := row.Scan(&r.ID, &r.EvaluationID, &r.QuestionID, &r.QuestionText,
		&r.ExpectedAnswer, &actual, &correct, &execNanos, &traceJSON,
		&errMsg, &r.TechnicalDetails, &r.ProcessedAt)
	if err != nil {
		return domain.QuestionResult{}, eris.Wrap(err, "sqlite: scan question result")
	}

	if actual.Valid {
		r.ActualAnswer = &actual.String
	}
	if correct.Valid {
		r.IsCorrect = &correct.Bool
	}
	r.ExecutionTime = time.Duration(execNanos)
	if traceJSON.Valid {
		r.ReasoningTrace = &domain.ReasoningTrace{}
		if err := json.Unmarshal([]byte(traceJSON.String), r.ReasoningTrace); err != nil {
			return domain.QuestionResult{}, eris.Wrap(err, "sqlite: unmarshal reasoning trace")
		}
	}
	if errMsg.Valid {
		r.ErrorMessage = &errMsg.String
	}
	r.ProcessedAt = r.ProcessedAt.UTC()
	return r, nil
}
