package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindTimeout, "TIMEOUT"},
		{KindRateLimit, "RATE_LIMIT"},
		{KindAuth, "AUTH_ERROR"},
		{KindTokenLimit, "TOKEN_LIMIT"},
		{KindModelNotFound, "MODEL_NOT_FOUND"},
		{KindNetwork, "NETWORK_ERROR"},
		{KindUnknown, "UNKNOWN"},
		{ErrorKind(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, KindRateLimit.Retryable())
	assert.True(t, KindTimeout.Retryable())
	assert.True(t, KindNetwork.Retryable())

	assert.False(t, KindAuth.Retryable())
	assert.False(t, KindTokenLimit.Retryable())
	assert.False(t, KindModelNotFound.Retryable())
	assert.False(t, KindUnknown.Retryable())
}

func TestClassifyHTTPError(t *testing.T) {
	ec := &ErrorClassifier{Provider: "test"}

	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{"unauthorized", 401, "invalid key", KindAuth},
		{"forbidden", 403, "no access", KindAuth},
		{"rate limited", 429, "slow down", KindRateLimit},
		{"token limit via token mention", 400, "prompt exceeds maximum tokens", KindTokenLimit},
		{"token limit via length mention", 400, "context length exceeded", KindTokenLimit},
		{"plain bad request", 400, "malformed payload", KindUnknown},
		{"model missing", 404, "no such model", KindModelNotFound},
		{"server error", 500, "boom", KindUnknown},
		{"bad gateway", 502, "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ec.ClassifyHTTPError(tt.status, tt.body, errors.New("upstream"))
			require.NotNil(t, pe)
			assert.Equal(t, tt.wantKind, pe.Kind)
			assert.Equal(t, "test", pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestClassifyHTTPError_TokenMentionIsCaseInsensitive(t *testing.T) {
	ec := &ErrorClassifier{Provider: "test"}
	pe := ec.ClassifyHTTPError(400, "Maximum TOKEN count reached", nil)
	assert.Equal(t, KindTokenLimit, pe.Kind)
}

func TestClassifyTransportError(t *testing.T) {
	ec := &ErrorClassifier{Provider: "test"}

	deadline := ec.ClassifyTransportError(context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, deadline.Kind)
	assert.True(t, deadline.Retryable())

	canceled := ec.ClassifyTransportError(context.Canceled)
	assert.Equal(t, KindNetwork, canceled.Kind)

	other := ec.ClassifyTransportError(errors.New("connection refused"))
	assert.Equal(t, KindNetwork, other.Kind)
	assert.True(t, other.Retryable())
}

func TestProviderError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("socket closed")
	pe := NewProviderError("anthropic", KindTimeout, 0, "request timed out", inner)

	assert.Contains(t, pe.Error(), "anthropic")
	assert.Contains(t, pe.Error(), "TIMEOUT")
	assert.Contains(t, pe.Error(), "request timed out")
	assert.ErrorIs(t, pe, inner)
}

func TestProviderError_ErrorIncludesStatus(t *testing.T) {
	pe := NewProviderError("google", KindRateLimit, 429, "rate limit exceeded", nil)
	assert.Contains(t, pe.Error(), "HTTP 429")
}

func TestProviderError_UserMessage(t *testing.T) {
	pe := NewProviderError("x", KindTimeout, 0, "request timed out", errors.New("vendor detail"))
	assert.Equal(t, "request timed out", pe.UserMessage())

	blank := NewProviderError("x", KindAuth, 401, "", nil)
	assert.Equal(t, "AUTH_ERROR", blank.UserMessage())
}

func TestAsProviderError(t *testing.T) {
	pe := NewProviderError("x", KindAuth, 401, "authentication failed", nil)
	wrapped := errors.Join(errors.New("outer"), pe)

	got, ok := AsProviderError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindAuth, got.Kind)

	_, ok = AsProviderError(errors.New("plain"))
	assert.False(t, ok)
}
