package generator

import (
	"context"
	"sync"
)

// Mock is a deterministic Generator for tests. With no Response set it
// echoes the prompt.
type Mock struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

func NewMock(response string) *Mock {
	return &Mock{Response: response}
}

func NewMockWithError(err error) *Mock {
	return &Mock{Err: err}
}

func (m *Mock) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return prompt, nil
}

// Prompts returns every prompt seen so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt or "".
func (m *Mock) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
