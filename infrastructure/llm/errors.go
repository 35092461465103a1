package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by adapters before a request is even attempted.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates that the backend returned an empty body.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoResponseChoice indicates that the backend returned no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorKind is the stable classification of a backend failure. Every
// adapter maps its vendor-specific errors onto this taxonomy so callers
// can handle failures uniformly.
type ErrorKind int

const (
	// KindUnknown covers any non-2xx status without a more specific class.
	KindUnknown ErrorKind = iota
	// KindTimeout means the bounded per-call deadline expired and the
	// in-flight request was cancelled.
	KindTimeout
	// KindRateLimit means the backend rejected the call with 429.
	KindRateLimit
	// KindAuth means authentication was rejected (401/403).
	KindAuth
	// KindTokenLimit means a bad request caused by token or length limits.
	KindTokenLimit
	// KindModelNotFound means no backend recognizes the model identifier.
	KindModelNotFound
	// KindNetwork means a transport or connection failure before any
	// HTTP status was received.
	KindNetwork
)

// String returns the wire-stable name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "TIMEOUT"
	case KindRateLimit:
		return "RATE_LIMIT"
	case KindAuth:
		return "AUTH_ERROR"
	case KindTokenLimit:
		return "TOKEN_LIMIT"
	case KindModelNotFound:
		return "MODEL_NOT_FOUND"
	case KindNetwork:
		return "NETWORK_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Retryable reports whether a failure of this kind is transient enough
// for a caller-level retry with backoff. Only rate limits, timeouts, and
// network failures qualify.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}

// ProviderError is a classified backend failure: a stable kind, the
// originating adapter's name, the upstream status code when one exists,
// and the original error for unwrapping.
type ProviderError struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Provider is the name of the adapter that produced the error.
	Provider string
	// StatusCode holds the upstream HTTP status, if applicable.
	StatusCode int
	// Message is the user-facing description.
	Message string
	// WrappedError is the underlying error, kept for error chaining.
	WrappedError error
}

// Error satisfies the error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error [%s]", e.Provider, e.Kind)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// Retryable reports whether the failure is a candidate for retry.
func (e *ProviderError) Retryable() bool { return e.Kind.Retryable() }

// UserMessage returns the short human-readable description, suitable for
// surfacing to end users without vendor detail.
func (e *ProviderError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// NewProviderError builds a classified error from its parts.
func NewProviderError(provider string, kind ErrorKind, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Kind:         kind,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// AsProviderError extracts a *ProviderError from an error chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ErrorClassifier standardizes vendor-specific failures into
// ProviderError values using upstream status codes and context state.
type ErrorClassifier struct {
	// Provider is the adapter name stamped on every classified error.
	Provider string
}

// ClassifyHTTPError maps an upstream status code to a kind. The body is
// inspected for bad requests because token-limit rejections arrive as a
// generic 400 whose message mentions tokens or length.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, body string, err error) *ProviderError {
	switch {
	case statusCode == 401 || statusCode == 403:
		return NewProviderError(ec.Provider, KindAuth, statusCode, "authentication failed", err)
	case statusCode == 429:
		return NewProviderError(ec.Provider, KindRateLimit, statusCode, "rate limit exceeded", err)
	case statusCode == 400 && mentionsTokenLimit(body):
		return NewProviderError(ec.Provider, KindTokenLimit, statusCode, "token limit exceeded", err)
	case statusCode == 404:
		return NewProviderError(ec.Provider, KindModelNotFound, statusCode, "model not found", err)
	default:
		return NewProviderError(ec.Provider, KindUnknown, statusCode, body, err)
	}
}

// ClassifyTransportError maps context and connection failures. Deadline
// expiry is a TIMEOUT because the adapter cancels the in-flight call on
// expiry; everything else at the transport layer is a NETWORK_ERROR.
func (ec *ErrorClassifier) ClassifyTransportError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, KindTimeout, 0, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, KindNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, KindNetwork, 0, "network error", err)
	}
}

func mentionsTokenLimit(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "token") || strings.Contains(lower, "length")
}
