// Package engine turns a user message plus history into a single generated
// reply. It wraps the completion backend with bounded retries, exponential
// backoff, and fallback messaging, so callers always receive a displayable
// string and never an error.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/parleyhq/parley/pkg/chat"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/provider"
)

// Engine orchestrates reply generation against a completion provider.
type Engine struct {
	provider provider.Provider
	cfg      Config
	stats    Stats

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a new Engine. The provider must not be nil and the model must
// be set; everything else falls back to defaults.
func New(p provider.Provider, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("engine: provider must not be nil")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("engine: model is required")
	}
	return &Engine{
		provider: p,
		cfg:      cfg.withDefaults(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GenerateResponse produces a reply for the given user message. The message
// is assumed already validated upstream (non-empty, length-bounded).
//
// The composed request is [system persona, history..., user message], where
// the greeting persona is used when firstTime is set. Transient backend
// failures and empty completions are retried with exponential backoff up to
// the configured attempt budget; non-retryable failures stop immediately.
// When all attempts are exhausted, a canned apology is returned instead of
// an error: the only externally visible failure mode is a fallback string.
func (e *Engine) GenerateResponse(ctx context.Context, userID, message string, history []chat.Message, firstTime bool) string {
	start := time.Now()

	text, err := e.complete(ctx, e.buildMessages(message, history, firstTime))
	if err != nil {
		e.stats.recordFailure()
		observability.FallbacksTotal.WithLabelValues(e.cfg.Model).Inc()
		slog.Error("generation failed, serving fallback",
			"user_id", userID,
			"model", e.cfg.Model,
			"error", err,
		)
		return e.fallback()
	}

	elapsed := time.Since(start)
	e.stats.recordSuccess(elapsed)
	observability.ProviderLatency.WithLabelValues(e.provider.Name(), e.cfg.Model).Observe(elapsed.Seconds())
	slog.Debug("generation succeeded",
		"user_id", userID,
		"model", e.cfg.Model,
		"elapsed", elapsed,
	)
	return text
}

// buildMessages composes the request sequence sent to the provider.
func (e *Engine) buildMessages(message string, history []chat.Message, firstTime bool) []chat.Message {
	persona := defaultPersona
	if firstTime {
		persona = greetingPersona
	}

	msgs := make([]chat.Message, 0, len(history)+2)
	msgs = append(msgs, chat.System(persona))
	msgs = append(msgs, history...)
	msgs = append(msgs, chat.User(message))
	return msgs
}

// complete runs the retry loop: up to MaxRetries attempts, waiting
// BackoffBase * 2^attempt between attempts on transient failures and empty
// completions. Non-retryable errors and the last attempt's error escalate
// to the caller.
func (e *Engine) complete(ctx context.Context, msgs []chat.Message) (string, error) {
	req := &provider.Request{
		Model:       e.cfg.Model,
		Messages:    msgs,
		Temperature: e.cfg.Temperature,
		TopP:        e.cfg.TopP,
		MaxTokens:   e.cfg.MaxTokens,
	}

	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		text, err := e.provider.Complete(ctx, req)
		if err == nil && text == "" {
			err = provider.ErrEmptyCompletion
		}
		if err == nil {
			observability.ProviderRequestsTotal.WithLabelValues(e.provider.Name(), e.cfg.Model, "ok").Inc()
			return text, nil
		}
		observability.ProviderRequestsTotal.WithLabelValues(e.provider.Name(), e.cfg.Model, "error").Inc()
		lastErr = err

		if provider.IsNonRetryable(err) {
			return "", err
		}

		// Last attempt: escalate instead of waiting for a retry that
		// will never happen.
		if attempt == e.cfg.MaxRetries-1 {
			break
		}

		delay := e.backoff(attempt)
		slog.Warn("completion attempt failed, retrying",
			"model", e.cfg.Model,
			"attempt", attempt+1,
			"max_retries", e.cfg.MaxRetries,
			"backoff", delay,
			"error", err,
		)
		observability.RetriesTotal.WithLabelValues(e.cfg.Model).Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("generation cancelled during backoff: %w", ctx.Err())
		}
	}

	return "", fmt.Errorf("all %d attempts failed: %w", e.cfg.MaxRetries, lastErr)
}

// backoff returns BackoffBase * 2^attempt, capped to avoid shift overflow.
func (e *Engine) backoff(attempt int) time.Duration {
	const maxShift = 30
	if attempt > maxShift {
		attempt = maxShift
	}
	return e.cfg.BackoffBase << uint(attempt)
}

// fallback returns one of the canned apology texts, chosen uniformly at random.
func (e *Engine) fallback() string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return fallbackReplies[e.rng.Intn(len(fallbackReplies))]
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}

// ResetStats zeroes the engine's counters.
func (e *Engine) ResetStats() {
	e.stats.Reset()
}

// Model returns the configured model identifier.
func (e *Engine) Model() string {
	return e.cfg.Model
}
