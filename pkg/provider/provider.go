package provider

import (
	"context"

	"github.com/parleyhq/parley/pkg/chat"
)

// Request describes a single completion call. Generation parameters are
// fixed by the caller; the provider sends them through unchanged.
type Request struct {
	Model       string
	Messages    []chat.Message
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ModelInfo describes a model advertised by the backend.
type ModelInfo struct {
	ID      string
	Object  string
	OwnedBy string
}

// Provider abstracts a completion backend. Complete returns the generated
// text, which may legitimately be empty; classifying an empty completion
// as a failure is the caller's decision.
//
// Failures are reported as *Error values so callers can branch on the
// error kind instead of matching message text.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai-compat").
	Name() string

	// Complete performs a single non-streaming completion attempt.
	Complete(ctx context.Context, req *Request) (string, error)

	// ListModels returns available models from the backend.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
