// Package ports defines the interfaces that connect the application core
// to infrastructure: text generation, persistence, and metrics. The
// application depends only on these contracts; concrete implementations
// live under infrastructure/.
package ports

import (
	"context"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a generation request.
type ChatMessage struct {
	Role    Role
	Content string
}

// FinishReason describes why generation stopped.
type FinishReason string

const (
	// FinishStop means the model completed its answer.
	FinishStop FinishReason = "stop"
	// FinishLength means the shared token budget was exhausted.
	FinishLength FinishReason = "length"
)

// TokenUsage carries token accounting when the backend reports it.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateRequest is the uniform request every backend adapter consumes:
// an ordered message list (optional system message plus turns), the target
// model identifier, and optional overrides. Zero values mean "use the
// adapter's default".
type GenerateRequest struct {
	Messages    []ChatMessage
	Model       string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
}

// GenerateResponse is the uniform response produced by every adapter.
type GenerateResponse struct {
	Content      string
	Model        string
	Provider     string
	Usage        *TokenUsage
	FinishReason FinishReason
	LatencyMs    int64
}

// Generator routes a generation request to whichever backend can serve the
// requested model. The backend registry is the canonical implementation;
// callers never talk to individual adapters.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
