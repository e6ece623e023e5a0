package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var errScriptExhausted = errors.New("no scripted reply left")

// MockResponse is one scripted reply. A set Err is returned as is.
type MockResponse struct {
	Content    json.RawMessage
	Usage      Usage
	StopReason string
	Err        error
}

// MockProvider serves scripted replies in order. Replies go through the
// same schema check as the real adapters, so a lenient schema behaves
// identically under test. With nothing scripted every call fails as
// unavailable, which is how the service runs without an API key.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	// Calls records every request, including failed ones.
	Calls []Request
}

// NewMockProvider returns a provider that replies with script in order.
func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &Error{Kind: KindUnavailable, Provider: ProviderMock, Err: errScriptExhausted}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if next.Err != nil {
		return nil, next.Err
	}
	stop := next.StopReason
	if stop == "" {
		stop = StopEnd
	}
	return finish(ProviderMock, req.Schema, &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      ProviderMock,
		StopReason: stop,
	})
}

func (m *MockProvider) ModelID() string { return ProviderMock }

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
