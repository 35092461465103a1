package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/promptarena/arena/internal/ports"
)

// anthropicPatterns are the model-identifier patterns the adapter claims.
// Supports is overridden to accept any "claude-" id so new model versions
// route correctly without a code change.
var anthropicPatterns = []string{
	"claude-3-5-sonnet-*",
	"claude-3-5-haiku-*",
	"claude-3-7-sonnet-*",
	"claude-sonnet-4-*",
	"claude-opus-4-*",
}

// anthropicProvider implements Provider for Anthropic's Messages API.
type anthropicProvider struct {
	client     anthropic.Client
	classifier *ErrorClassifier
	counter    *TokenCounter
	timeout    time.Duration
	maxTokens  int
}

// NewAnthropicProvider creates the Anthropic adapter. The API key is
// required; BaseURL is optional for proxied deployments.
func NewAnthropicProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicProvider{
		client:     anthropic.NewClient(opts...),
		classifier: &ErrorClassifier{Provider: "anthropic"},
		counter:    NewTokenCounter(),
		timeout:    cfg.timeout(),
		maxTokens:  cfg.maxTokens(),
	}, nil
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) SupportedModels() []string { return anthropicPatterns }

// Supports accepts any Claude model identifier.
func (p *anthropicProvider) Supports(modelID string) bool {
	return strings.HasPrefix(modelID, "claude-")
}

// Generate sends one Messages API call with a bounded deadline and
// translates the response into the uniform contract.
func (p *anthropicProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(req, p.timeout))
	defer cancel()

	params := p.buildParams(req)

	start := time.Now()
	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return ports.GenerateResponse{}, p.classify(err)
	}

	return p.buildResponse(req, message, time.Since(start)), nil
}

func (p *anthropicProvider) buildParams(req ports.GenerateRequest) anthropic.MessageNewParams {
	system, turns := splitMessages(req.Messages)

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == ports.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(requestMaxTokens(req, p.maxTokens)),
		Messages:  messages,
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (p *anthropicProvider) buildResponse(req ports.GenerateRequest, message *anthropic.Message, latency time.Duration) ports.GenerateResponse {
	var text strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(content.Text)
		}
	}
	content := text.String()

	finish := ports.FinishStop
	if message.StopReason == anthropic.StopReasonMaxTokens {
		finish = ports.FinishLength
	}

	promptTokens := p.counter.Count(int(message.Usage.InputTokens), messagesText(req.Messages))
	completionTokens := p.counter.Count(int(message.Usage.OutputTokens), content)

	return ports.GenerateResponse{
		Content:  content,
		Model:    req.Model,
		Provider: p.Name(),
		Usage: &ports.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishReason: finish,
		LatencyMs:    latency.Milliseconds(),
	}
}

// classify maps SDK failures onto the stable taxonomy.
func (p *anthropicProvider) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return p.classifier.ClassifyHTTPError(apiErr.StatusCode, apiErr.Error(), err)
	}
	return p.classifier.ClassifyTransportError(err)
}
