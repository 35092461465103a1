package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/promptarena/arena/internal/ports"
)

// rateLimitedProvider paces requests with a token bucket so a burst of
// battles does not trip the backend's own rate limits.
type rateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware enforcing limit requests per
// second with the given burst allowance.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next Provider) Provider {
		return &rateLimitedProvider{next: next, limiter: limiter}
	}
}

func (r *rateLimitedProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ports.GenerateResponse{}, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Generate(ctx, req)
}

func (r *rateLimitedProvider) Name() string                 { return r.next.Name() }
func (r *rateLimitedProvider) SupportedModels() []string    { return r.next.SupportedModels() }
func (r *rateLimitedProvider) Supports(modelID string) bool { return r.next.Supports(modelID) }
