package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/chat"
	"github.com/parleyhq/parley/pkg/provider"
)

// newTestServer returns a backend that replies with the given status and body.
func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func completionBody(text string) string {
	resp := ChatCompletionResponse{
		ID:     "chatcmpl-123",
		Object: "chat.completion",
		Model:  "test-model",
		Choices: []ChatChoice{
			{Index: 0, Message: ChatMessage{Role: "assistant", Content: text}, FinishReason: "stop"},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestComplete_Success(t *testing.T) {
	var gotReq ChatCompletionRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("Hello there!")))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", 5*time.Second)
	defer c.Close()

	text, err := c.Complete(context.Background(), &provider.Request{
		Model:       "test-model",
		Messages:    []chat.Message{chat.System("be brief"), chat.User("hi")},
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "Hello there!" {
		t.Errorf("expected %q, got %q", "Hello there!", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("expected model %q, got %q", "test-model", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
	if gotReq.Stream {
		t.Error("expected stream=false")
	}
	if gotReq.Temperature != 0.7 || gotReq.TopP != 0.9 || gotReq.MaxTokens != 256 {
		t.Errorf("generation parameters not forwarded: %+v", gotReq)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","model":"m","choices":[]}`)
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	text, err := c.Complete(context.Background(), &provider.Request{Model: "m"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestComplete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantKind     provider.ErrorKind
		wantContains string
	}{
		{"rate limited", 429, `{"error":{"message":"slow down"}}`, provider.KindTransient, "slow down"},
		{"server error", 500, ``, provider.KindTransient, "backend server error"},
		{"bad gateway", 502, ``, provider.KindTransient, "backend server error"},
		{"bad request", 400, `{"error":{"message":"bad role"}}`, provider.KindNonRetryable, "bad role"},
		{"unauthorized", 401, ``, provider.KindNonRetryable, "authentication"},
		{"forbidden", 403, ``, provider.KindNonRetryable, "authentication"},
		{"not found", 404, ``, provider.KindNonRetryable, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body)
			defer srv.Close()

			c := NewClient(srv.URL, "", 5*time.Second)
			_, err := c.Complete(context.Background(), &provider.Request{Model: "m"})
			if err == nil {
				t.Fatal("expected error")
			}

			var pe *provider.Error
			if !errors.As(err, &pe) {
				t.Fatalf("expected *provider.Error, got %T: %v", err, err)
			}
			if pe.Kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, pe.Kind)
			}
			if pe.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, pe.Status)
			}
			if !strings.Contains(pe.Message, tt.wantContains) {
				t.Errorf("expected message containing %q, got %q", tt.wantContains, pe.Message)
			}
		})
	}
}

func TestComplete_NetworkError(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "{}")
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Complete(context.Background(), &provider.Request{Model: "m"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !provider.IsTransient(err) {
		t.Errorf("expected network error to be transient, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-test","object":"model","owned_by":"org"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 1 || models[0].ID != "gpt-test" || models[0].OwnedBy != "org" {
		t.Errorf("unexpected models: %+v", models)
	}
}

func TestExtractErrorMessage(t *testing.T) {
	if got := ExtractErrorMessage(nil); got != "" {
		t.Errorf("expected empty message for nil body, got %q", got)
	}
}
