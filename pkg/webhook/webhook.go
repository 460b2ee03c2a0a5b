// Package webhook implements the inbound message endpoint of the relay.
// Deliveries are authenticated with an HMAC-SHA256 signature over the raw
// request body, validated, run through the response engine, and recorded
// in the conversation store.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/parleyhq/parley/pkg/chat"
	"github.com/parleyhq/parley/pkg/debug"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/store"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body.
const SignatureHeader = "X-Parley-Signature"

// maxBodyBytes bounds the raw delivery body read from the wire.
const maxBodyBytes = 1 << 20

// Delivery is an inbound message from the messaging platform.
type Delivery struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Reply is the response returned to the platform.
type Reply struct {
	Reply string `json:"reply"`
}

// errorResponse is the body returned on rejected deliveries.
type errorResponse struct {
	Error string `json:"error"`
}

// ResponseGenerator produces an assistant reply for a user message. It
// never fails: provider errors surface as a fallback reply string.
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, userID, message string, history []chat.Message, firstTime bool) string
}

// Config holds the webhook handler settings.
type Config struct {
	// Secret is the shared HMAC secret for signature verification (required).
	Secret string

	// MaxMessageLength caps the accepted message length in bytes.
	MaxMessageLength int

	// HistoryLimit bounds how much history is handed to the engine.
	// Zero means the store's full window.
	HistoryLimit int
}

var _ http.Handler = (*Handler)(nil)

// Handler serves inbound webhook deliveries.
type Handler struct {
	engine ResponseGenerator
	store  store.ConversationStore
	config Config
}

// NewHandler creates a webhook handler.
func NewHandler(engine ResponseGenerator, st store.ConversationStore, cfg Config) *Handler {
	return &Handler{
		engine: engine,
		store:  st,
		config: cfg,
	}
}

// ServeHTTP handles a single delivery: verify signature, validate payload,
// generate a reply, then record both sides of the exchange.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if !h.verifySignature(r, body) {
		observability.WebhookRejectedTotal.WithLabelValues("signature").Inc()
		slog.Warn("webhook delivery rejected",
			"reason", "invalid signature",
			"remote_addr", r.RemoteAddr,
		)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var delivery Delivery
	if err := json.Unmarshal(body, &delivery); err != nil {
		h.reject(w, "malformed JSON body")
		return
	}

	if msg := h.validate(&delivery); msg != "" {
		h.reject(w, msg)
		return
	}

	ctx := r.Context()

	history, err := h.store.History(ctx, delivery.UserID, h.config.HistoryLimit)
	if err != nil {
		slog.Error("history lookup failed", "user_id", delivery.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	firstTime := len(history) == 0

	debug.Log("webhook", "delivery accepted",
		"user_id", delivery.UserID,
		"first_time", firstTime,
		"history_len", len(history),
	)

	reply := h.engine.GenerateResponse(ctx, delivery.UserID, delivery.Message, history, firstTime)

	// Record the exchange after generation so a failed provider call still
	// leaves the stored history consistent with what the user saw.
	if err := h.store.AddMessage(ctx, delivery.UserID, chat.User(delivery.Message)); err != nil {
		slog.Error("storing user message failed", "user_id", delivery.UserID, "error", err)
	}
	if err := h.store.AddMessage(ctx, delivery.UserID, chat.Assistant(reply)); err != nil {
		slog.Error("storing assistant message failed", "user_id", delivery.UserID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Reply{Reply: reply}); err != nil {
		slog.Error("writing webhook response failed", "error", err)
	}
}

// verifySignature checks the hex HMAC-SHA256 signature header against the
// raw body using a constant-time comparison.
func (h *Handler) verifySignature(r *http.Request, body []byte) bool {
	sig := strings.TrimSpace(r.Header.Get(SignatureHeader))
	if sig == "" {
		return false
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.config.Secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// validate checks the delivery payload. Returns a rejection message or "".
func (h *Handler) validate(d *Delivery) string {
	if strings.TrimSpace(d.UserID) == "" {
		return "user_id is required"
	}
	if strings.TrimSpace(d.Message) == "" {
		return "message is required"
	}
	if h.config.MaxMessageLength > 0 && len(d.Message) > h.config.MaxMessageLength {
		return "message exceeds maximum length"
	}
	return ""
}

func (h *Handler) reject(w http.ResponseWriter, msg string) {
	observability.WebhookRejectedTotal.WithLabelValues("validation").Inc()
	debug.Log("webhook", "delivery rejected", "reason", msg)
	writeError(w, http.StatusBadRequest, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// Sign computes the hex-encoded HMAC-SHA256 signature for a delivery body.
// Exposed for clients and tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
