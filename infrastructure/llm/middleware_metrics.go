package llm

import (
	"context"
	"time"

	"github.com/promptarena/arena/internal/ports"
)

// metricsProvider records latency, request counts, and token usage for
// every generation call.
type metricsProvider struct {
	next      Provider
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports per-call metrics to
// the collector. A nil collector disables recording without changing the
// call path.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next Provider) Provider {
		return &metricsProvider{next: next, collector: collector}
	}
}

func (m *metricsProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	start := time.Now()
	resp, err := m.next.Generate(ctx, req)

	if m.collector == nil {
		return resp, err
	}

	labels := map[string]string{
		"provider": m.next.Name(),
		"model":    req.Model,
		"status":   "success",
	}
	if err != nil {
		labels["status"] = "error"
		if pe, ok := AsProviderError(err); ok {
			labels["status"] = pe.Kind.String()
		}
	}

	m.collector.RecordHistogram("generation_latency_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("generation_requests_total", 1, labels)

	if err == nil && resp.Usage != nil {
		labels["token_type"] = "input"
		m.collector.RecordCounter("generation_tokens_total", float64(resp.Usage.PromptTokens), labels)
		labels["token_type"] = "output"
		m.collector.RecordCounter("generation_tokens_total", float64(resp.Usage.CompletionTokens), labels)
	}

	return resp, err
}

func (m *metricsProvider) Name() string                 { return m.next.Name() }
func (m *metricsProvider) SupportedModels() []string    { return m.next.SupportedModels() }
func (m *metricsProvider) Supports(modelID string) bool { return m.next.Supports(modelID) }
