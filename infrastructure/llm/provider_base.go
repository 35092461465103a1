package llm

import (
	"strings"
	"time"

	"github.com/promptarena/arena/internal/ports"
)

// MatchesPattern reports whether modelID matches a single claimed
// pattern: an exact string, or a prefix match when the pattern ends in a
// wildcard ("claude-3-5-*" claims "claude-3-5-sonnet-20241022").
func MatchesPattern(pattern, modelID string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(modelID, prefix)
	}
	return pattern == modelID
}

// MatchesAny reports whether modelID matches any pattern in the list.
// This is the default Supports implementation adapters build on.
func MatchesAny(patterns []string, modelID string) bool {
	for _, p := range patterns {
		if MatchesPattern(p, modelID) {
			return true
		}
	}
	return false
}

// splitMessages separates the optional system message from the
// conversational turns. Backends disagree on how system prompts are
// carried, so adapters recombine the parts their own way.
func splitMessages(messages []ports.ChatMessage) (system string, turns []ports.ChatMessage) {
	turns = make([]ports.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == ports.RoleSystem {
			system = m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

// requestTimeout resolves the effective per-call deadline: the request's
// override when present, the adapter default otherwise.
func requestTimeout(req ports.GenerateRequest, fallback time.Duration) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return fallback
}

// requestMaxTokens resolves the effective output budget.
func requestMaxTokens(req ports.GenerateRequest, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}

// TokenCounter estimates token counts when a backend omits usage data.
type TokenCounter struct {
	// CharactersPerToken is the average characters-per-token ratio used
	// for the estimate.
	CharactersPerToken float64
}

// NewTokenCounter returns a counter with the common English-text ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// Count returns the backend-reported count when positive, estimating from
// text otherwise.
func (tc *TokenCounter) Count(actual int, text string) int {
	if actual > 0 {
		return actual
	}
	return tc.EstimateTokens(text)
}

// messagesText flattens message contents into one newline-separated
// string, used both for single-content request shapes and for prompt-side
// token estimation when the backend reports no usage.
func messagesText(messages []ports.ChatMessage) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}
