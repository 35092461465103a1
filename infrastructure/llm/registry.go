package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/promptarena/arena/internal/ports"
)

// maxKnownModelsInError caps how many known identifiers a resolution
// failure lists for diagnosis.
const maxKnownModelsInError = 8

// Registry holds the ordered collection of backend adapters and routes a
// model identifier to the adapter that claims it. It is populated once at
// process start, injected where needed, and treated as read-only for the
// remainder of the process lifetime.
type Registry struct {
	mu sync.RWMutex
	// providers preserves registration order for the fallback scan.
	providers []Provider
	// exact maps every non-wildcard pattern to its adapter for O(1) hits.
	exact map[string]Provider
	// known lists non-wildcard identifiers in registration order, used in
	// MODEL_NOT_FOUND diagnostics.
	known []string
}

// ModelInfo pairs a concrete model identifier with the adapter serving it.
type ModelInfo struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exact: make(map[string]Provider)}
}

// Register adds an adapter. Registration is idempotent by adapter name:
// registering the same name again replaces the earlier adapter in place,
// keeping its position in the scan order.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := false
	for i, existing := range r.providers {
		if existing.Name() == p.Name() {
			r.providers[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		r.providers = append(r.providers, p)
	}

	r.rebuildIndex()
}

// rebuildIndex recomputes the exact-match index from the current adapter
// list. Caller holds the write lock.
func (r *Registry) rebuildIndex() {
	r.exact = make(map[string]Provider)
	r.known = r.known[:0]
	for _, p := range r.providers {
		for _, pattern := range p.SupportedModels() {
			if strings.Contains(pattern, "*") {
				continue
			}
			if _, taken := r.exact[pattern]; !taken {
				r.known = append(r.known, pattern)
			}
			r.exact[pattern] = p
		}
	}
}

// Resolve returns the adapter serving modelID: an exact-pattern hit wins,
// otherwise the first adapter in registration order whose Supports
// predicate accepts the identifier. A miss is a MODEL_NOT_FOUND error
// naming the first known identifiers.
func (r *Registry) Resolve(modelID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.exact[modelID]; ok {
		return p, nil
	}

	for _, p := range r.providers {
		if p.Supports(modelID) {
			return p, nil
		}
	}

	return nil, NewProviderError("registry", KindModelNotFound, 0,
		"no provider found for model "+modelID+". Known models: "+r.knownSample(), nil)
}

// knownSample returns up to maxKnownModelsInError identifiers for error
// messages. Caller holds at least the read lock.
func (r *Registry) knownSample() string {
	n := len(r.known)
	if n == 0 {
		return "(none registered)"
	}
	if n > maxKnownModelsInError {
		n = maxKnownModelsInError
	}
	return strings.Join(r.known[:n], ", ")
}

// Generate resolves the requested model and delegates to its adapter,
// implementing ports.Generator.
func (r *Registry) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	p, err := r.Resolve(req.Model)
	if err != nil {
		return ports.GenerateResponse{}, err
	}
	return p.Generate(ctx, req)
}

// Providers returns adapter names in registration order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Models lists every concrete (non-wildcard) identifier with its adapter.
func (r *Registry) Models() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]ModelInfo, 0, len(r.known))
	for _, id := range r.known {
		models = append(models, ModelInfo{Model: id, Provider: r.exact[id].Name()})
	}
	return models
}
