package mock

import (
	"context"
	"sync"
)

// MockScorer is a test double for ai.Scorer.
// It allows custom behavior injection via function fields.
// Safe for concurrent use, matching the ai.Scorer contract.
type MockScorer struct {
	// GenerateTextFunc is called by GenerateText if set.
	// If nil, returns the canned Response.
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)

	// Response is returned by the default GenerateText behavior.
	Response string

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockScorer creates a mock scorer that echoes an empty response.
// Note: Returns concrete type to allow test assertions via GetMockScorer().
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// GenerateText returns the injected behavior or the canned response.
// Every received prompt is recorded for test assertions.
func (m *MockScorer) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateTextFunc
	response := m.Response
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}

	return response, nil
}

// CallCount returns the number of times GenerateText was called.
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns all prompts received so far, in call order.
func (m *MockScorer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockScorer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.prompts = nil
	m.GenerateTextFunc = nil
	m.Response = ""
}
