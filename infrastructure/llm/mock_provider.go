package llm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/promptarena/arena/internal/ports"
)

// MockProvider is a configurable Provider for tests: fixed response or
// error, optional delay, call counting. It honors context cancellation
// during the delay so timeout behavior is observable.
type MockProvider struct {
	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string
	// Patterns are the claimed model-identifier patterns.
	Patterns []string
	// SupportsAll makes Supports accept any identifier.
	SupportsAll bool
	// Response is returned on success.
	Response ports.GenerateResponse
	// Err, when set, is returned instead of Response.
	Err error
	// ResponseDelay simulates backend latency.
	ResponseDelay time.Duration

	calls atomic.Int64
}

// NewMockProvider returns a mock that claims the given patterns and
// echoes a fixed response.
func NewMockProvider(name string, patterns ...string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Patterns:     patterns,
		Response: ports.GenerateResponse{
			Content:      "mock response",
			Provider:     name,
			FinishReason: ports.FinishStop,
		},
	}
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) SupportedModels() []string { return m.Patterns }

func (m *MockProvider) Supports(modelID string) bool {
	if m.SupportsAll {
		return true
	}
	return MatchesAny(m.Patterns, modelID)
}

func (m *MockProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	m.calls.Add(1)

	if m.ResponseDelay > 0 {
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			return ports.GenerateResponse{}, (&ErrorClassifier{Provider: m.Name()}).ClassifyTransportError(ctx.Err())
		}
	}

	if m.Err != nil {
		return ports.GenerateResponse{}, m.Err
	}

	resp := m.Response
	resp.Model = req.Model
	return resp, nil
}

// Calls returns how many times Generate was invoked.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }
