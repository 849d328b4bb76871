package domain

import "maps"

// Question is an immutable value object representing one benchmark item:
// the text put to the agent and the answer it is graded against.
type Question struct {
	// ID uniquely identifies this question within its benchmark.
	ID string `json:"id" yaml:"id"`

	// Text is the question presented to the agent.
	Text string `json:"text" yaml:"text"`

	// ExpectedAnswer is the ground-truth answer used for grading.
	ExpectedAnswer string `json:"expected_answer" yaml:"expected_answer"`

	// Metadata carries optional benchmark-specific annotations such as
	// difficulty or category. Never consulted by the execution loop.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewQuestion builds a Question with a defensive copy of its metadata.
func NewQuestion(id, text, expected string, metadata map[string]string) Question {
	q := Question{ID: id, Text: text, ExpectedAnswer: expected}
	if len(metadata) > 0 {
		q.Metadata = maps.Clone(metadata)
	}
	return q
}

// Benchmark is a named, ordered, immutable set of questions.
// Question order is significant: the execution loop processes questions in
// exactly this order, which is what makes resume positions meaningful.
type Benchmark struct {
	// ID uniquely identifies the benchmark.
	ID string `json:"id" yaml:"id"`

	// Name is the human-facing benchmark name used for lookup.
	Name string `json:"name" yaml:"name"`

	// Description explains what the benchmark measures.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Questions holds the ordered question set.
	Questions []Question `json:"questions" yaml:"questions"`
}

// Size returns the number of questions in the benchmark.
func (b Benchmark) Size() int { return len(b.Questions) }
