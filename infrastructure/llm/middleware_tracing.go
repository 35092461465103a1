package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptarena/arena/internal/ports"
)

// tracedProvider wraps each generation call in a span.
type tracedProvider struct {
	next   Provider
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that records a span per call with
// provider, model, and token attributes.
func TracingMiddleware(serviceName string) Middleware {
	tracer := otel.Tracer(serviceName)
	return func(next Provider) Provider {
		return &tracedProvider{next: next, tracer: tracer}
	}
}

func (t *tracedProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	ctx, span := t.tracer.Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("llm.provider", t.next.Name()),
			attribute.String("llm.model", req.Model),
			attribute.Int("llm.messages", len(req.Messages)),
		),
	)
	defer span.End()

	resp, err := t.next.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetAttributes(attribute.Int64("llm.latency_ms", resp.LatencyMs))
	if resp.Usage != nil {
		span.SetAttributes(
			attribute.Int("llm.tokens.input", resp.Usage.PromptTokens),
			attribute.Int("llm.tokens.output", resp.Usage.CompletionTokens),
		)
	}
	return resp, nil
}

func (t *tracedProvider) Name() string                 { return t.next.Name() }
func (t *tracedProvider) SupportedModels() []string    { return t.next.SupportedModels() }
func (t *tracedProvider) Supports(modelID string) bool { return t.next.Supports(modelID) }
