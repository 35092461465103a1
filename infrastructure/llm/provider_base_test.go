package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptarena/arena/internal/ports"
)

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		pattern string
		modelID string
		want    bool
	}{
		{"claude-3-5-sonnet-20241022", "claude-3-5-sonnet-20241022", true},
		{"claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022", false},
		{"claude-3-5-*", "claude-3-5-sonnet-20241022", true},
		{"claude-3-5-*", "claude-3-7-sonnet", false},
		{"*", "anything-at-all", true},
		{"gemini-2.5-*", "gemini-2.5-flash", true},
		{"gemini-2.5-*", "gemini-2.0-flash", false},
		{"openai/gpt-5-mini", "openai/gpt-5-mini", true},
		{"openai/gpt-5-mini", "openai/gpt-5", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesPattern(tt.pattern, tt.modelID),
			"pattern=%s model=%s", tt.pattern, tt.modelID)
	}
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"claude-3-5-*", "gpt-4o"}

	assert.True(t, MatchesAny(patterns, "claude-3-5-haiku"))
	assert.True(t, MatchesAny(patterns, "gpt-4o"))
	assert.False(t, MatchesAny(patterns, "gpt-4o-mini"))
	assert.False(t, MatchesAny(nil, "anything"))
}

func TestSplitMessages(t *testing.T) {
	system, turns := splitMessages([]ports.ChatMessage{
		{Role: ports.RoleSystem, Content: "be helpful"},
		{Role: ports.RoleUser, Content: "hello"},
		{Role: ports.RoleAssistant, Content: "hi"},
	})

	assert.Equal(t, "be helpful", system)
	assert.Len(t, turns, 2)
	assert.Equal(t, ports.RoleUser, turns[0].Role)
}

func TestSplitMessages_NoSystem(t *testing.T) {
	system, turns := splitMessages([]ports.ChatMessage{
		{Role: ports.RoleUser, Content: "hello"},
	})
	assert.Empty(t, system)
	assert.Len(t, turns, 1)
}

func TestMessagesText(t *testing.T) {
	assert.Empty(t, messagesText(nil))
	assert.Equal(t, "hello", messagesText([]ports.ChatMessage{
		{Role: ports.RoleUser, Content: "hello"},
	}))

	// Multi-turn content keeps a boundary between turns.
	assert.Equal(t, "hello\nhi\nhow are you?", messagesText([]ports.ChatMessage{
		{Role: ports.RoleUser, Content: "hello"},
		{Role: ports.RoleAssistant, Content: "hi"},
		{Role: ports.RoleUser, Content: "how are you?"},
	}))
}

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounter()

	assert.Equal(t, 0, tc.EstimateTokens(""))
	assert.Equal(t, 3, tc.EstimateTokens("hello, world"))

	// Backend-reported counts win over estimates.
	assert.Equal(t, 42, tc.Count(42, "hello, world"))
	assert.Equal(t, 3, tc.Count(0, "hello, world"))
}
