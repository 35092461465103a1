package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptarena/arena/internal/ports"
)

// DefaultGatewayBaseURL is the unified gateway endpoint serving OpenAI
// and Google models behind one OpenAI-compatible API.
const DefaultGatewayBaseURL = "https://ai.gateway.lovable.dev/v1"

// gatewayPatterns are the exact model identifiers the gateway serves.
var gatewayPatterns = []string{
	"openai/gpt-5",
	"openai/gpt-5-mini",
	"openai/gpt-5-nano",
	"google/gemini-2.5-pro",
	"google/gemini-2.5-flash",
	"google/gemini-2.5-flash-lite",
}

// gatewayProvider implements Provider for an OpenAI-compatible gateway.
type gatewayProvider struct {
	name       string
	patterns   []string
	client     *openai.Client
	classifier *ErrorClassifier
	counter    *TokenCounter
	timeout    time.Duration
	maxTokens  int
}

// NewGatewayProvider creates the gateway adapter.
func NewGatewayProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = DefaultGatewayBaseURL
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &gatewayProvider{
		name:       "gateway",
		patterns:   gatewayPatterns,
		client:     openai.NewClientWithConfig(clientConfig),
		classifier: &ErrorClassifier{Provider: "gateway"},
		counter:    NewTokenCounter(),
		timeout:    cfg.timeout(),
		maxTokens:  cfg.maxTokens(),
	}, nil
}

func (p *gatewayProvider) Name() string { return p.name }

func (p *gatewayProvider) SupportedModels() []string { return p.patterns }

func (p *gatewayProvider) Supports(modelID string) bool {
	return MatchesAny(p.patterns, modelID)
}

// Generate sends one chat-completion call with a bounded deadline.
func (p *gatewayProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(req, p.timeout))
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return ports.GenerateResponse{}, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return ports.GenerateResponse{}, NewProviderError(p.name, KindUnknown, 0, "no response choices", ErrNoResponseChoice)
	}

	return p.buildResponse(req, resp, time.Since(start)), nil
}

func (p *gatewayProvider) buildRequest(req ports.GenerateRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	out := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: requestMaxTokens(req, p.maxTokens),
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	return out
}

func (p *gatewayProvider) buildResponse(req ports.GenerateRequest, resp openai.ChatCompletionResponse, latency time.Duration) ports.GenerateResponse {
	choice := resp.Choices[0]

	finish := ports.FinishStop
	if choice.FinishReason == openai.FinishReasonLength {
		finish = ports.FinishLength
	}

	promptTokens := p.counter.Count(resp.Usage.PromptTokens, messagesText(req.Messages))
	completionTokens := p.counter.Count(resp.Usage.CompletionTokens, choice.Message.Content)

	return ports.GenerateResponse{
		Content:  choice.Message.Content,
		Model:    req.Model,
		Provider: p.name,
		Usage: &ports.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishReason: finish,
		LatencyMs:    latency.Milliseconds(),
	}
}

func (p *gatewayProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.classifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}
	return p.classifier.ClassifyTransportError(err)
}
