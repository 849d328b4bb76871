package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlab/evalrun/internal/domain"
)

func writeBenchmarkFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const mathBenchmarkYAML = `
id: math3
name: math-basics
description: Basic arithmetic.
questions:
  - id: q1
    text: What is 2+2?
    expected_answer: "4"
  - id: q2
    text: What is 3*3?
    expected_answer: "9"
    metadata:
      difficulty: easy
`

// TestYAMLBenchmarkStore_Load loads a valid catalog and checks lookups by
// both name and id.
func TestYAMLBenchmarkStore_Load(t *testing.T) {
	dir := t.TempDir()
	writeBenchmarkFile(t, dir, "math.yaml", mathBenchmarkYAML)
	writeBenchmarkFile(t, dir, "notes.txt", "ignored")

	store, err := NewYAMLBenchmarkStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	b, err := store.GetByName(ctx, "math-basics")
	require.NoError(t, err)
	assert.Equal(t, "math3", b.ID)
	require.Equal(t, 2, b.Size())
	assert.Equal(t, "What is 2+2?", b.Questions[0].Text)
	assert.Equal(t, "easy", b.Questions[1].Metadata["difficulty"])

	byID, err := store.GetByID(ctx, "math3")
	require.NoError(t, err)
	assert.Equal(t, b.Name, byID.Name)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "non-YAML files are skipped.")
}

// TestYAMLBenchmarkStore_Fallbacks verifies a terse file inherits its id from
// the file name and its name from the id.
func TestYAMLBenchmarkStore_Fallbacks(t *testing.T) {
	dir := t.TempDir()
	writeBenchmarkFile(t, dir, "geography.yml", `
questions:
  - id: q1
    text: What is the capital of France?
    expected_answer: Paris
`)

	store, err := NewYAMLBenchmarkStore(dir)
	require.NoError(t, err)

	b, err := store.GetByID(context.Background(), "geography")
	require.NoError(t, err)
	assert.Equal(t, "geography", b.Name)
}

// TestYAMLBenchmarkStore_Rejections verifies malformed catalogs fail loading
// outright instead of shrinking silently.
func TestYAMLBenchmarkStore_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "no questions",
			files:   map[string]string{"empty.yaml": "name: empty\nquestions: []\n"},
			wantErr: "defines no questions",
		},
		{
			name: "question missing id",
			files: map[string]string{"bad.yaml": `
questions:
  - text: What is 2+2?
    expected_answer: "4"
`},
			wantErr: "has no id",
		},
		{
			name: "question missing expected answer",
			files: map[string]string{"bad.yaml": `
questions:
  - id: q1
    text: What is 2+2?
`},
			wantErr: "missing text or expected answer",
		},
		{
			name: "duplicate question id",
			files: map[string]string{"bad.yaml": `
questions:
  - id: q1
    text: What is 2+2?
    expected_answer: "4"
  - id: q1
    text: What is 3*3?
    expected_answer: "9"
`},
			wantErr: "duplicate question id",
		},
		{
			name: "duplicate benchmark name across files",
			files: map[string]string{
				"a.yaml": "name: math\nquestions:\n  - {id: q1, text: t, expected_answer: a}\n",
				"b.yaml": "name: math\nquestions:\n  - {id: q1, text: t, expected_answer: a}\n",
			},
			wantErr: "duplicate benchmark",
		},
		{
			name:    "unparseable yaml",
			files:   map[string]string{"bad.yaml": "questions: [unclosed\n"},
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeBenchmarkFile(t, dir, name, content)
			}
			_, err := NewYAMLBenchmarkStore(dir)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// TestYAMLBenchmarkStore_NotFound checks the sentinel on both lookup paths.
func TestYAMLBenchmarkStore_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeBenchmarkFile(t, dir, "math.yaml", mathBenchmarkYAML)

	store, err := NewYAMLBenchmarkStore(dir)
	require.NoError(t, err)

	_, err = store.GetByName(context.Background(), "chemistry")
	assert.ErrorIs(t, err, domain.ErrBenchmarkNotFound)

	_, err = store.GetByID(context.Background(), "chem1")
	assert.ErrorIs(t, err, domain.ErrBenchmarkNotFound)
}
