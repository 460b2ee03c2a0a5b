// Package admin exposes the operator surface of the relay: engine and
// store statistics, conversation resets, and backend model discovery.
// Routes are expected to be wrapped in auth middleware by the caller.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/parleyhq/parley/pkg/engine"
	"github.com/parleyhq/parley/pkg/provider"
	"github.com/parleyhq/parley/pkg/store"
)

// EngineStats is the slice of the engine the admin surface needs.
type EngineStats interface {
	Stats() engine.Snapshot
	ResetStats()
}

// Handler serves the admin endpoints.
type Handler struct {
	engine   EngineStats
	store    store.ConversationStore
	provider provider.Provider
}

// NewHandler creates an admin handler.
func NewHandler(eng EngineStats, st store.ConversationStore, p provider.Provider) *Handler {
	return &Handler{
		engine:   eng,
		store:    st,
		provider: p,
	}
}

// Register wires the admin routes onto a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/stats", h.handleStats)
	mux.HandleFunc("POST /admin/stats/reset", h.handleStatsReset)
	mux.HandleFunc("DELETE /admin/conversations/{user_id}", h.handleClearConversation)
	mux.HandleFunc("GET /admin/models", h.handleModels)
}

// statsResponse combines engine counters with store totals.
type statsResponse struct {
	Engine engine.Snapshot   `json:"engine"`
	Store  store.GlobalStats `json:"store"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	storeStats, err := h.store.GlobalStats(r.Context())
	if err != nil {
		slog.Error("store stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read store stats")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Engine: h.engine.Stats(),
		Store:  storeStats,
	})
}

func (h *Handler) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetStats()
	slog.Info("engine stats reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// clearResponse reports how many messages a reset removed.
type clearResponse struct {
	UserID  string `json:"user_id"`
	Removed int    `json:"removed"`
}

func (h *Handler) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	removed, err := h.store.ClearUser(r.Context(), userID)
	if err != nil {
		slog.Error("clearing conversation failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear conversation")
		return
	}

	slog.Info("conversation cleared", "user_id", userID, "removed", removed)
	writeJSON(w, http.StatusOK, clearResponse{UserID: userID, Removed: removed})
}

// modelsResponse mirrors the backend's model listing.
type modelsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.provider.ListModels(r.Context())
	if err != nil {
		slog.Error("listing models failed", "provider", h.provider.Name(), "error", err)
		writeError(w, http.StatusBadGateway, "failed to list backend models")
		return
	}

	resp := modelsResponse{Models: make([]modelEntry, 0, len(models))}
	for _, m := range models {
		resp.Models = append(resp.Models, modelEntry{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing admin response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
