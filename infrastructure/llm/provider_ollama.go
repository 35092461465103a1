package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptarena/arena/internal/ports"
)

// Ollama defaults. Local models are slower than hosted APIs, so the
// adapter carries a longer per-call deadline.
const (
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultOllamaTimeout = 60 * time.Second
)

// ollamaPatterns document the commonly pulled models; they are
// advisory only because Supports accepts any identifier.
var ollamaPatterns = []string{
	"llama3*",
	"mistral*",
	"mixtral*",
	"qwen*",
	"deepseek-*",
	"gemma*",
	"phi*",
}

// ollamaProvider implements Provider for a self-hosted Ollama server via
// its OpenAI-compatible endpoint.
type ollamaProvider struct {
	client     *openai.Client
	classifier *ErrorClassifier
	counter    *TokenCounter
	timeout    time.Duration
	maxTokens  int
}

// NewOllamaProvider creates the self-hosted adapter. No API key is
// required; the base URL defaults to a local server.
func NewOllamaProvider(cfg Config) (Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}

	// Ollama ignores the bearer token but the client requires one.
	clientConfig := openai.DefaultConfig("ollama")
	clientConfig.BaseURL = baseURL

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultOllamaTimeout
	}

	return &ollamaProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		classifier: &ErrorClassifier{Provider: "ollama"},
		counter:    NewTokenCounter(),
		timeout:    timeout,
		maxTokens:  cfg.maxTokens(),
	}, nil
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) SupportedModels() []string { return ollamaPatterns }

// Supports accepts any identifier: whether a model is actually pulled is
// only known to the server.
func (p *ollamaProvider) Supports(string) bool { return true }

// Generate sends one chat-completion call with a bounded deadline.
func (p *ollamaProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(req, p.timeout))
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: requestMaxTokens(req, p.maxTokens),
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return ports.GenerateResponse{}, p.classify(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return ports.GenerateResponse{}, NewProviderError("ollama", KindUnknown, 0, "no response choices", ErrNoResponseChoice)
	}

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
		Provider: p.Name(),
		Usage: &ports.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishReason: finish,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// classify maps failures, recognizing the server's "model not pulled"
// message which arrives as a plain 404-ish body rather than a typed code.
func (p *ollamaProvider) classify(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		lower := strings.ToLower(message)
		if strings.Contains(lower, "model") && strings.Contains(lower, "not found") {
			return NewProviderError("ollama", KindModelNotFound, apiErr.HTTPStatusCode,
				"model "+model+" not found; run: ollama pull "+model, err)
		}
		return p.classifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}
	return p.classifier.ClassifyTransportError(err)
}
