package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentlab/evalrun/internal/domain"
)

// MemoryStore implements the evaluation, question-result, and benchmark
// repositories in memory for tests. All methods are safe for concurrent use.
type MemoryStore struct {
	mu          sync.Mutex
	evaluations map[string]domain.Evaluation
	results     map[string][]domain.QuestionResult
	benchmarks  map[string]domain.Benchmark

	// FailSaveResult, when set, is returned by SaveResult to simulate a
	// persistence fault mid-loop.
	FailSaveResult error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		evaluations: make(map[string]domain.Evaluation),
		results:     make(map[string][]domain.QuestionResult),
		benchmarks:  make(map[string]domain.Benchmark),
	}
}

// AddBenchmark registers a benchmark for lookup by name and ID.
func (s *MemoryStore) AddBenchmark(b domain.Benchmark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmarks[b.ID] = b
}

// Evaluations returns the repository view over evaluations.
func (s *MemoryStore) Evaluations() *MemoryEvaluationRepo { return &MemoryEvaluationRepo{s} }

// Results returns the repository view over question results.
func (s *MemoryStore) Results() *MemoryResultRepo { return &MemoryResultRepo{s} }

// Benchmarks returns the read-only benchmark catalog view.
func (s *MemoryStore) Benchmarks() *MemoryBenchmarkStore { return &MemoryBenchmarkStore{s} }

// MemoryEvaluationRepo implements ports.EvaluationRepository.
type MemoryEvaluationRepo struct{ s *MemoryStore }

func (r *MemoryEvaluationRepo) Save(_ context.Context, eval domain.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.evaluations[eval.EvaluationID]; exists {
		return fmt.Errorf("evaluation %s already exists", eval.EvaluationID)
	}
	r.s.evaluations[eval.EvaluationID] = eval
	return nil
}

func (r *MemoryEvaluationRepo) Update(_ context.Context, eval domain.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.evaluations[eval.EvaluationID]; !exists {
		return domain.ErrEvaluationNotFound
	}
	r.s.evaluations[eval.EvaluationID] = eval
	return nil
}

func (r *MemoryEvaluationRepo) GetByID(_ context.Context, id string) (domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	eval, ok := r.s.evaluations[id]
	if !ok {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}
	return eval, nil
}

func (r *MemoryEvaluationRepo) ListByStatus(_ context.Context, status domain.EvaluationStatus) ([]domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Evaluation
	for _, eval := range r.s.evaluations {
		if eval.Status == status {
			out = append(out, eval)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryEvaluationRepo) ListAll(_ context.Context) ([]domain.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Evaluation, 0, len(r.s.evaluations))
	for _, eval := range r.s.evaluations {
		out = append(out, eval)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(evals []domain.Evaluation) {
	sort.Slice(evals, func(i, j int) bool {
		if !evals[i].CreatedAt.Equal(evals[j].CreatedAt) {
			return evals[i].CreatedAt.After(evals[j].CreatedAt)
		}
		return evals[i].EvaluationID < evals[j].EvaluationID
	})
}

// MemoryResultRepo implements ports.QuestionResultRepository.
type MemoryResultRepo struct{ s *MemoryStore }

func (r *MemoryResultRepo) Save(_ context.Context, result domain.QuestionResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailSaveResult != nil {
		return r.s.FailSaveResult
	}
	if err := result.Validate(); err != nil {
		return err
	}
	for _, existing := range r.s.results[result.EvaluationID] {
		if existing.QuestionID == result.QuestionID {
			return fmt.Errorf("duplicate question result %s/%s",
				result.EvaluationID, result.QuestionID)
		}
	}
	r.s.results[result.EvaluationID] = append(r.s.results[result.EvaluationID], result)
	return nil
}

func (r *MemoryResultRepo) GetByEvaluationID(_ context.Context, evaluationID string) ([]domain.QuestionResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.results[evaluationID]
	out := make([]domain.QuestionResult, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *MemoryResultRepo) Exists(_ context.Context, evaluationID, questionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.results[evaluationID] {
		if existing.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryResultRepo) GetProgress(_ context.Context, evaluationID string, total int) (domain.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := domain.Progress{Total: total}
	for _, result := range r.s.results[evaluationID] {
		p.Completed++
		if result.Succeeded() {
			p.Successful++
		} else {
			p.Failed++
		}
		if p.LatestTimestamp == nil || result.ProcessedAt.After(*p.LatestTimestamp) {
			t := result.ProcessedAt
			p.LatestTimestamp = &t
		}
	}
	return p, nil
}

// MemoryBenchmarkStore implements ports.BenchmarkStore.
type MemoryBenchmarkStore struct{ s *MemoryStore }

func (b *MemoryBenchmarkStore) GetByName(_ context.Context, name string) (domain.Benchmark, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, benchmark := range b.s.benchmarks {
		if benchmark.Name == name {
			return benchmark, nil
		}
	}
	return domain.Benchmark{}, fmt.Errorf("%w: %q", domain.ErrBenchmarkNotFound, name)
}

func (b *MemoryBenchmarkStore) GetByID(_ context.Context, id string) (domain.Benchmark, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	benchmark, ok := b.s.benchmarks[id]
	if !ok {
		return domain.Benchmark{}, fmt.Errorf("%w: %q", domain.ErrBenchmarkNotFound, id)
	}
	return benchmark, nil
}

func (b *MemoryBenchmarkStore) List(_ context.Context) ([]domain.Benchmark, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	out := make([]domain.Benchmark, 0, len(b.s.benchmarks))
	for _, benchmark := range b.s.benchmarks {
		out = append(out, benchmark)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
