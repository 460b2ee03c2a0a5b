// Command mock-backend runs a deterministic Chat Completions server for
// exercising the relay without a real LLM. Replies echo the last user
// message, and a few magic message prefixes trigger failure modes so
// retry and fallback behavior can be observed end to end.
//
// Magic prefixes (in the last user message):
//
//	fail:500  - always respond 500
//	fail:429  - always respond 429
//	fail:401  - always respond 401
//	empty:    - respond 200 with no choices
//	flaky:    - respond 500 on every other request
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	Message      chatMsg `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

var requestCount atomic.Int64

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request", "invalid_request_error")
		return
	}

	n := requestCount.Add(1)
	last := lastUserMessage(&req)

	switch {
	case strings.HasPrefix(last, "fail:500"):
		writeAPIError(w, http.StatusInternalServerError, "simulated backend failure", "server_error")
		return
	case strings.HasPrefix(last, "fail:429"):
		writeAPIError(w, http.StatusTooManyRequests, "simulated rate limit", "rate_limit_error")
		return
	case strings.HasPrefix(last, "fail:401"):
		writeAPIError(w, http.StatusUnauthorized, "simulated auth failure", "authentication_error")
		return
	case strings.HasPrefix(last, "empty:"):
		writeResponse(w, &req, nil)
		return
	case strings.HasPrefix(last, "flaky:") && n%2 == 1:
		writeAPIError(w, http.StatusInternalServerError, "simulated flaky failure", "server_error")
		return
	}

	reply := fmt.Sprintf("You said: %s", last)
	writeResponse(w, &req, &reply)
}

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func writeResponse(w http.ResponseWriter, req *chatRequest, content *string) {
	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	resp := chatResponse{
		ID:     fmt.Sprintf("chatcmpl-mock-%d", requestCount.Load()),
		Object: "chat.completion",
		Model:  model,
	}
	if content != nil {
		resp.Choices = []chatChoice{{
			Message:      chatMsg{Role: "assistant", Content: *content},
			FinishReason: "stop",
		}}
		resp.Usage = chatUsage{PromptTokens: 10, CompletionTokens: 8, TotalTokens: 18}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeAPIError(w http.ResponseWriter, status int, msg, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":%q}}`, msg, errType)
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"object":"list","data":[{"id":"mock-model","object":"model","owned_by":"mock"}]}`)
}
