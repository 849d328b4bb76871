package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/agentlab/evalrun/internal/domain"
)

// YAMLBenchmarkStore loads benchmarks from a directory of YAML files and
// serves them from memory. Files are read once at construction; benchmarks
// are immutable afterwards. It implements ports.BenchmarkStore.
type YAMLBenchmarkStore struct {
	byID   map[string]domain.Benchmark
	byName map[string]domain.Benchmark
	// ordered keeps the listing stable across calls.
	ordered []domain.Benchmark
}

// NewYAMLBenchmarkStore reads every .yaml and .yml file in dir as one
// benchmark definition. Malformed files and duplicate names fail loading
// outright rather than being skipped, so a typo cannot silently shrink the
// benchmark catalog.
func NewYAMLBenchmarkStore(dir string) (*YAMLBenchmarkStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "benchmarks: read dir %s", dir)
	}

	store := &YAMLBenchmarkStore{
		byID:   make(map[string]domain.Benchmark),
		byName: make(map[string]domain.Benchmark),
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		benchmark, err := loadBenchmarkFile(path)
		if err != nil {
			return nil, err
		}
		if _, exists := store.byID[benchmark.ID]; exists {
			return nil, eris.Errorf("benchmarks: duplicate benchmark id %q in %s", benchmark.ID, name)
		}
		if _, exists := store.byName[benchmark.Name]; exists {
			return nil, eris.Errorf("benchmarks: duplicate benchmark name %q in %s", benchmark.Name, name)
		}
		store.byID[benchmark.ID] = benchmark
		store.byName[benchmark.Name] = benchmark
		store.ordered = append(store.ordered, benchmark)
	}
	return store, nil
}

// GetByName returns the benchmark with the given human-facing name.
func (s *YAMLBenchmarkStore) GetByName(_ context.Context, name string) (domain.Benchmark, error) {
	b, ok := s.byName[name]
	if !ok {
		return domain.Benchmark{}, fmt.Errorf("%w: %q", domain.ErrBenchmarkNotFound, name)
	}
	return b, nil
}

// GetByID returns the benchmark with the given identifier.
func (s *YAMLBenchmarkStore) GetByID(_ context.Context, id string) (domain.Benchmark, error) {
	b, ok := s.byID[id]
	if !ok {
		return domain.Benchmark{}, fmt.Errorf("%w: %q", domain.ErrBenchmarkNotFound, id)
	}
	return b, nil
}

// List returns every loaded benchmark in file order.
func (s *YAMLBenchmarkStore) List(_ context.Context) ([]domain.Benchmark, error) {
	out := make([]domain.Benchmark, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// loadBenchmarkFile parses and validates one benchmark definition.
func loadBenchmarkFile(path string) (domain.Benchmark, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Benchmark{}, eris.Wrapf(err, "benchmarks: read %s", path)
	}

	var b domain.Benchmark
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return domain.Benchmark{}, eris.Wrapf(err, "benchmarks: parse %s", path)
	}

	if b.ID == "" {
		// Fall back to the file name so hand-written files stay terse.
		b.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if b.Name == "" {
		b.Name = b.ID
	}
	if len(b.Questions) == 0 {
		return domain.Benchmark{}, eris.Errorf("benchmarks: %s defines no questions", path)
	}

	seen := make(map[string]struct{}, len(b.Questions))
	for i, q := range b.Questions {
		if q.ID == "" {
			return domain.Benchmark{}, eris.Errorf("benchmarks: %s question %d has no id", path, i)
		}
		if q.Text == "" || q.ExpectedAnswer == "" {
			return domain.Benchmark{}, eris.Errorf("benchmarks: %s question %q missing text or expected answer", path, q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return domain.Benchmark{}, eris.Errorf("benchmarks: %s duplicate question id %q", path, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return b, nil
}
