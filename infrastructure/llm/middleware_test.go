package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/promptarena/arena/internal/ports"
)

func TestTimeoutMiddleware_CancelsSlowCall(t *testing.T) {
	slow := NewMockProvider("slow", "model")
	slow.ResponseDelay = 200 * time.Millisecond

	p := Chain(slow, TimeoutMiddleware(20*time.Millisecond))

	start := time.Now()
	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	elapsed := time.Since(start)

	require.Error(t, err)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, pe.Kind)
	assert.Less(t, elapsed, 150*time.Millisecond, "call should abort at the deadline")
}

func TestTimeoutMiddleware_FastCallPasses(t *testing.T) {
	fast := NewMockProvider("fast", "model")
	p := Chain(fast, TimeoutMiddleware(time.Second))

	resp, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
}

func TestTimeoutMiddleware_PreservesIdentity(t *testing.T) {
	inner := NewMockProvider("inner", "model-a")
	p := TimeoutMiddleware(time.Second)(inner)

	assert.Equal(t, "inner", p.Name())
	assert.Equal(t, []string{"model-a"}, p.SupportedModels())
	assert.True(t, p.Supports("model-a"))
	assert.False(t, p.Supports("model-b"))
}

func TestRateLimitMiddleware_PacesCalls(t *testing.T) {
	mock := NewMockProvider("mock", "model")
	// 1 req/s with burst 1: the second call must wait about a second, so
	// give it a context that expires first.
	p := Chain(mock, RateLimitMiddleware(rate.Limit(1), 1))

	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = p.Generate(ctx, ports.GenerateRequest{Model: "model"})
	require.Error(t, err)
	assert.Equal(t, 1, mock.Calls(), "second call never reached the adapter")
}

func TestRateLimitMiddleware_BurstAllowsParallelCalls(t *testing.T) {
	mock := NewMockProvider("mock", "model")
	p := Chain(mock, RateLimitMiddleware(rate.Limit(100), 2))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, mock.Calls())
}

// fakeCollector records metric calls for assertions.
type fakeCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string]int
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string]int),
	}
}

func (f *fakeCollector) RecordCounter(name string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[name+"/"+labels["status"]] += value
}

func (f *fakeCollector) RecordHistogram(name string, _ float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms[name+"/"+labels["status"]]++
}

func (f *fakeCollector) RecordGauge(string, float64, map[string]string) {}

func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider("mock", "model")
	mock.Response.Usage = &ports.TokenUsage{PromptTokens: 10, CompletionTokens: 20}
	collector := newFakeCollector()

	p := Chain(mock, MetricsMiddleware(collector))
	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, collector.counters["generation_requests_total/success"])
	assert.Equal(t, 1, collector.histograms["generation_latency_seconds/success"])
	assert.Equal(t, 30.0, collector.counters["generation_tokens_total/success"])
}

func TestMetricsMiddleware_RecordsClassifiedFailure(t *testing.T) {
	mock := NewMockProvider("mock", "model")
	mock.Err = NewProviderError("mock", KindRateLimit, 429, "rate limit exceeded", nil)
	collector := newFakeCollector()

	p := Chain(mock, MetricsMiddleware(collector))
	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	require.Error(t, err)

	assert.Equal(t, 1.0, collector.counters["generation_requests_total/RATE_LIMIT"])
}

func TestMetricsMiddleware_UnclassifiedFailure(t *testing.T) {
	mock := NewMockProvider("mock", "model")
	mock.Err = errors.New("plain failure")
	collector := newFakeCollector()

	p := Chain(mock, MetricsMiddleware(collector))
	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	require.Error(t, err)

	assert.Equal(t, 1.0, collector.counters["generation_requests_total/error"])
}

func TestMetricsMiddleware_NilCollector(t *testing.T) {
	mock := NewMockProvider("mock", "model")
	p := Chain(mock, MetricsMiddleware(nil))

	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	assert.NoError(t, err)
}

func TestChain_FirstMiddlewareIsOutermost(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Provider) Provider {
			return &taggedProvider{next: next, name: name, order: &order}
		}
	}

	mock := NewMockProvider("mock", "model")
	p := Chain(mock, tag("outer"), tag("inner"))

	_, err := p.Generate(context.Background(), ports.GenerateRequest{Model: "model"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type taggedProvider struct {
	next  Provider
	name  string
	order *[]string
}

func (p *taggedProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	*p.order = append(*p.order, p.name)
	return p.next.Generate(ctx, req)
}

func (p *taggedProvider) Name() string                 { return p.next.Name() }
func (p *taggedProvider) SupportedModels() []string    { return p.next.SupportedModels() }
func (p *taggedProvider) Supports(modelID string) bool { return p.next.Supports(modelID) }
