// Package llm wraps heterogeneous generation backends behind one uniform
// contract. Each adapter owns its vendor-specific request translation,
// enforces a bounded per-call timeout with real cancellation, and
// classifies upstream failures into the stable ProviderError taxonomy.
// The Registry is the single entry point callers use; middleware adds
// cross-cutting concerns (timeouts, rate limiting, metrics, tracing)
// without touching adapter code.
package llm

import (
	"context"
	"time"

	"github.com/promptarena/arena/internal/ports"
)

// Adapter-wide defaults shared by every backend.
const (
	// DefaultTimeout bounds a single generation call when the request
	// carries no override.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens is the shared output budget when the request
	// carries no override.
	DefaultMaxTokens = 1024
)

// Provider is the uniform contract every generation backend implements.
// Supports defaults to matching the declared pattern list but may be
// overridden, e.g. a self-hosted backend that accepts any identifier.
type Provider interface {
	// Name identifies the adapter in errors, logs, and responses.
	Name() string
	// SupportedModels lists the model-identifier patterns this adapter
	// claims: exact strings or prefix wildcards such as "claude-3-5-*".
	SupportedModels() []string
	// Supports reports whether the adapter can serve the model id.
	Supports(modelID string) bool
	// Generate performs one generation call. Every network call is made
	// with a bounded timeout; on expiry the in-flight call is cancelled
	// and the failure is classified as TIMEOUT.
	Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error)
}

// Middleware wraps a Provider to add cross-cutting behavior. Middleware
// composes: the first middleware in a chain is the outermost.
type Middleware func(Provider) Provider

// Chain applies middleware to p so that the first element wraps all the
// others.
func Chain(p Provider, mw ...Middleware) Provider {
	for i := len(mw) - 1; i >= 0; i-- {
		p = mw[i](p)
	}
	return p
}

// Config holds the settings common to all adapter constructors.
type Config struct {
	// APIKey authenticates requests to the backend.
	APIKey string
	// BaseURL overrides the default endpoint, for gateways and
	// self-hosted backends.
	BaseURL string
	// Timeout is the per-call deadline when the request has no override.
	Timeout time.Duration
	// MaxTokens is the output budget when the request has no override.
	MaxTokens int
}

// timeout returns the configured per-call deadline or DefaultTimeout.
func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// maxTokens returns the configured output budget or DefaultMaxTokens.
func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultMaxTokens
}
