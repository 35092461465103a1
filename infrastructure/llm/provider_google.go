package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"github.com/promptarena/arena/internal/ports"
)

// googlePatterns are the model-identifier patterns the adapter claims.
var googlePatterns = []string{
	"gemini-2.5-*",
	"gemini-2.0-*",
	"gemini-1.5-*",
}

// googleProvider implements Provider for Google's Gemini API.
type googleProvider struct {
	client     *genai.Client
	classifier *ErrorClassifier
	counter    *TokenCounter
	timeout    time.Duration
	maxTokens  int
}

// NewGoogleProvider creates the Gemini adapter using API-key
// authentication against the Gemini API backend.
func NewGoogleProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleProvider{
		client:     client,
		classifier: &ErrorClassifier{Provider: "google"},
		counter:    NewTokenCounter(),
		timeout:    cfg.timeout(),
		maxTokens:  cfg.maxTokens(),
	}, nil
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) SupportedModels() []string { return googlePatterns }

func (p *googleProvider) Supports(modelID string) bool {
	return MatchesAny(googlePatterns, modelID)
}

// Generate sends one GenerateContent call with a bounded deadline. The
// system message is prepended to the user turn because the request shape
// used here carries a single content block.
func (p *googleProvider) Generate(ctx context.Context, req ports.GenerateRequest) (ports.GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout(req, p.timeout))
	defer cancel()

	contents := p.buildContents(req)
	config := p.buildConfig(req)

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return ports.GenerateResponse{}, p.classify(err)
	}

	content := resp.Text()
	if content == "" {
		return ports.GenerateResponse{}, NewProviderError("google", KindUnknown, 0, "empty response", ErrEmptyResponse)
	}

	return p.buildResponse(req, resp, content, time.Since(start)), nil
}

func (p *googleProvider) buildContents(req ports.GenerateRequest) []*genai.Content {
	system, turns := splitMessages(req.Messages)

	prompt := messagesText(turns)
	if system != "" {
		prompt = fmt.Sprintf("System: %s\n\nUser: %s", system, prompt)
	}

	return []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
}

func (p *googleProvider) buildConfig(req ports.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	maxTokens := requestMaxTokens(req, p.maxTokens)
	if maxTokens > math.MaxInt32 {
		maxTokens = math.MaxInt32
	}
	config.MaxOutputTokens = int32(maxTokens)

	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	return config
}

func (p *googleProvider) buildResponse(req ports.GenerateRequest, resp *genai.GenerateContentResponse, content string, latency time.Duration) ports.GenerateResponse {
	var promptTokens, completionTokens int
	if usage := resp.UsageMetadata; usage != nil {
		promptTokens = int(usage.PromptTokenCount)
		completionTokens = int(usage.CandidatesTokenCount)
	}
	promptTokens = p.counter.Count(promptTokens, messagesText(req.Messages))
	completionTokens = p.counter.Count(completionTokens, content)

	finish := ports.FinishStop
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		finish = ports.FinishLength
	}

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

func (p *googleProvider) classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return p.classifier.ClassifyHTTPError(apiErr.Code, message, err)
	}
	return p.classifier.ClassifyTransportError(err)
}
