package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockCall records one Complete invocation for assertions.
type MockCall struct {
	SystemPrompt string
	UserPrompt   string
	Params       GenerationParams
}

// MockClient returns scripted responses in order. It is used by tests
// and for local development without API access.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Errs      []error // parallel to Responses; nil entries mean success
	calls     []MockCall
	idx       int
}

// NewMockClient scripts a sequence of raw responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Params:       params,
	})

	i := m.idx
	if i >= len(m.Responses) {
		if len(m.Responses) == 0 {
			return "", fmt.Errorf("mock client: no responses scripted")
		}
		i = len(m.Responses) - 1 // repeat the last response
	} else {
		m.idx++
	}

	if i < len(m.Errs) && m.Errs[i] != nil {
		return "", m.Errs[i]
	}
	return m.Responses[i], nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}
