package llm

import (
	"context"
	"time"

	"github.com/promptarena/arena/internal/ports"
)

// timeoutProvider enforces an outer bound on every generation call,
// independent of the per-request override an adapter honors internally.
type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that caps every call at timeout.
// The deadline propagates through the context, so on expiry the
// underlying network operation is actually aborted rather than merely
// abandoned.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Provider) Provider {
		return &timeoutProvider{next: next, timeout: timeout}
	}
}

func (t *timeoutProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Generate(ctx, req)
}

func (t *timeoutProvider) Name() string                 { return t.next.Name() }
func (t *timeoutProvider) SupportedModels() []string    { return t.next.SupportedModels() }
func (t *timeoutProvider) Supports(modelID string) bool { return t.next.Supports(modelID) }
