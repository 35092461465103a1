package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptarena/arena/internal/ports"
)

func TestRegistry_ResolveExactMatch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewMockProvider("anthropic", "claude-3-5-sonnet-20241022"))
	reg.Register(NewMockProvider("gateway", "openai/gpt-5-mini"))

	p, err := reg.Resolve("openai/gpt-5-mini")
	require.NoError(t, err)
	assert.Equal(t, "gateway", p.Name())
}

func TestRegistry_ExactBeatsWildcard(t *testing.T) {
	reg := NewRegistry()
	// A wildcard adapter registered first would win an ordered scan; the
	// exact pattern must still take precedence.
	wildcard := NewMockProvider("wildcard", "openai/*")
	exact := NewMockProvider("exact", "openai/gpt-5-mini")
	reg.Register(wildcard)
	reg.Register(exact)

	p, err := reg.Resolve("openai/gpt-5-mini")
	require.NoError(t, err)
	assert.Equal(t, "exact", p.Name())
}

func TestRegistry_FallbackScanInRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	first := NewMockProvider("first", "claude-*")
	second := NewMockProvider("second", "claude-*")
	reg.Register(first)
	reg.Register(second)

	p, err := reg.Resolve("claude-3-5-haiku")
	require.NoError(t, err)
	assert.Equal(t, "first", p.Name())
}

func TestRegistry_ResolveMiss(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewMockProvider("anthropic", "claude-3-5-sonnet-20241022"))

	_, err := reg.Resolve("nonexistent-model")
	require.Error(t, err)

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindModelNotFound, pe.Kind)
	assert.Contains(t, pe.Message, "nonexistent-model")
	assert.Contains(t, pe.Message, "claude-3-5-sonnet-20241022",
		"miss should list known identifiers")
}

func TestRegistry_ResolveMissEmptyRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("anything")
	require.Error(t, err)

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Contains(t, pe.Message, "(none registered)")
}

func TestRegistry_RegisterIdempotentByName(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewMockProvider("mock", "model-a"))
	reg.Register(NewMockProvider("other", "model-b"))

	replacement := NewMockProvider("mock", "model-c")
	reg.Register(replacement)

	// Still two adapters, same order, new patterns in effect.
	assert.Equal(t, []string{"mock", "other"}, reg.Providers())

	_, err := reg.Resolve("model-a")
	assert.Error(t, err, "old patterns are gone after replacement")

	p, err := reg.Resolve("model-c")
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestRegistry_GenerateDelegates(t *testing.T) {
	reg := NewRegistry()
	mock := NewMockProvider("mock", "test-model")
	mock.Response.Content = "routed"
	reg.Register(mock)

	resp, err := reg.Generate(context.Background(), ports.GenerateRequest{
		Messages: []ports.ChatMessage{{Role: ports.RoleUser, Content: "hi"}},
		Model:    "test-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "routed", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 1, mock.Calls())
}

func TestRegistry_GenerateUnknownModel(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Generate(context.Background(), ports.GenerateRequest{Model: "ghost"})

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindModelNotFound, pe.Kind)
}

func TestRegistry_Models(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewMockProvider("a", "model-1", "prefix-*"))
	reg.Register(NewMockProvider("b", "model-2"))

	models := reg.Models()
	require.Len(t, models, 2, "wildcards are not concrete models")
	assert.Equal(t, ModelInfo{Model: "model-1", Provider: "a"}, models[0])
	assert.Equal(t, ModelInfo{Model: "model-2", Provider: "b"}, models[1])
}
