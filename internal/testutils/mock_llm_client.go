// Package testutils provides shared test doubles for the evaluation
// pipeline, chiefly a deterministic LLM client.
package testutils

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/agentlab/evalrun/internal/ports"
)

// MockLLMClient implements ports.LLMClient with deterministic responses
// matched by prompt substring. Responses can carry structured JSON, an
// error, or both token counts, so tests can script the full range of
// provider behavior without network access.
type MockLLMClient struct {
	// model is the mock model identifier.
	model string

	mu sync.Mutex
	// scripted holds pattern-matched responses. The most recently added
	// response is checked first, so tests can override a pattern mid-run.
	scripted []MockResponse
	// calls records every prompt received, for assertion by tests.
	calls []string
}

// MockResponse defines one pre-configured response pattern.
type MockResponse struct {
	// Pattern is matched against prompts by substring. Empty matches
	// every prompt.
	Pattern string
	// Content is the free-text response.
	Content string
	// Structured is the schema-shaped JSON response, nil for none.
	Structured json.RawMessage
	// Err is returned instead of a response when set.
	Err error
	// TokensIn and TokensOut populate the usage counters.
	TokensIn  int
	TokensOut int
}

// NewMockLLMClient creates a mock client with no scripted responses.
// Unmatched prompts receive an empty structured answer.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model}
}

// AddResponse registers a response pattern. Later additions take
// precedence over earlier ones with the same pattern.
func (m *MockLLMClient) AddResponse(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append([]MockResponse{r}, m.scripted...)
}

// Complete matches the prompt against scripted responses in order.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (ports.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return ports.ChatResponse{}, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	scripted := make([]MockResponse, len(m.scripted))
	copy(scripted, m.scripted)
	m.mu.Unlock()

	for _, r := range scripted {
		if r.Pattern == "" || strings.Contains(prompt, r.Pattern) {
			if r.Err != nil {
				return ports.ChatResponse{}, r.Err
			}
			return ports.ChatResponse{
				Content:    r.Content,
				Structured: r.Structured,
				TokensIn:   r.TokensIn,
				TokensOut:  r.TokensOut,
			}, nil
		}
	}

	return ports.ChatResponse{
		Content:    `{"answer": ""}`,
		Structured: json.RawMessage(`{"answer": ""}`),
		TokensIn:   len(prompt) / 4,
		TokensOut:  4,
	}, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

// Calls returns every prompt the client has received, in order.
func (m *MockLLMClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Complete invocations.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
