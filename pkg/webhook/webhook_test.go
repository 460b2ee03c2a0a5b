package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parleyhq/parley/pkg/chat"
	"github.com/parleyhq/parley/pkg/store/memory"
)

const testSecret = "webhook-test-secret"

// fakeEngine records calls and returns a canned reply.
type fakeEngine struct {
	reply     string
	calls     int
	lastUser  string
	lastMsg   string
	lastHist  []chat.Message
	lastFirst bool
}

func (f *fakeEngine) GenerateResponse(_ context.Context, userID, message string, history []chat.Message, firstTime bool) string {
	f.calls++
	f.lastUser = userID
	f.lastMsg = message
	f.lastHist = history
	f.lastFirst = firstTime
	return f.reply
}

func newTestHandler(t *testing.T, eng *fakeEngine) (*Handler, *memory.Store) {
	t.Helper()
	st := memory.New(memory.DefaultMaxHistory)
	h := NewHandler(eng, st, Config{
		Secret:           testSecret,
		MaxMessageLength: 100,
	})
	return h, st
}

func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(SignatureHeader, Sign(testSecret, body))
	return r
}

func deliveryBody(t *testing.T, userID, message string) []byte {
	t.Helper()
	body, err := json.Marshal(Delivery{UserID: userID, Message: message})
	if err != nil {
		t.Fatalf("marshal delivery: %v", err)
	}
	return body
}

func TestDeliverySuccess(t *testing.T) {
	eng := &fakeEngine{reply: "hello there"}
	h, st := newTestHandler(t, eng)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, deliveryBody(t, "u1", "hi")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reply Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if reply.Reply != "hello there" {
		t.Errorf("expected reply %q, got %q", "hello there", reply.Reply)
	}

	if !eng.lastFirst {
		t.Error("expected first_time=true for a new user")
	}
	if eng.lastUser != "u1" || eng.lastMsg != "hi" {
		t.Errorf("engine called with %q/%q", eng.lastUser, eng.lastMsg)
	}

	// Both sides of the exchange are recorded.
	history, err := st.History(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(history))
	}
	if history[0].Role != chat.RoleUser || history[0].Content != "hi" {
		t.Errorf("unexpected first stored message: %+v", history[0])
	}
	if history[1].Role != chat.RoleAssistant || history[1].Content != "hello there" {
		t.Errorf("unexpected second stored message: %+v", history[1])
	}
}

func TestDeliveryPassesHistory(t *testing.T) {
	eng := &fakeEngine{reply: "ok"}
	h, st := newTestHandler(t, eng)

	ctx := context.Background()
	if err := st.AddMessage(ctx, "u1", chat.User("earlier")); err != nil {
		t.Fatal(err)
	}
	if err := st.AddMessage(ctx, "u1", chat.Assistant("earlier reply")); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, deliveryBody(t, "u1", "again")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if eng.lastFirst {
		t.Error("expected first_time=false for returning user")
	}
	if len(eng.lastHist) != 2 {
		t.Errorf("expected 2 history messages passed to engine, got %d", len(eng.lastHist))
	}
}

func TestDeliveryRejectedSignature(t *testing.T) {
	eng := &fakeEngine{reply: "never"}
	h, st := newTestHandler(t, eng)

	body := deliveryBody(t, "u1", "hi")

	tests := []struct {
		name string
		sig  string
	}{
		{"missing signature", ""},
		{"not hex", "zzzz"},
		{"wrong secret", Sign("other-secret", body)},
		{"signature of different body", Sign(testSecret, []byte("tampered"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
			if tt.sig != "" {
				r.Header.Set(SignatureHeader, tt.sig)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}

	if eng.calls != 0 {
		t.Error("engine must not run for unauthenticated deliveries")
	}
	stats, _ := st.GlobalStats(context.Background())
	if stats.Messages != 0 {
		t.Error("nothing should be stored for unauthenticated deliveries")
	}
}

func TestDeliveryRejectedValidation(t *testing.T) {
	eng := &fakeEngine{reply: "never"}
	h, _ := newTestHandler(t, eng)

	tests := []struct {
		name string
		body []byte
	}{
		{"malformed json", []byte("{not json")},
		{"missing user_id", deliveryBody(t, "", "hi")},
		{"blank user_id", deliveryBody(t, "   ", "hi")},
		{"missing message", deliveryBody(t, "u1", "")},
		{"message too long", deliveryBody(t, "u1", strings.Repeat("x", 101))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, signedRequest(t, tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	if eng.calls != 0 {
		t.Error("engine must not run for invalid deliveries")
	}
}

func TestDeliveryMethodNotAllowed(t *testing.T) {
	eng := &fakeEngine{}
	h, _ := newTestHandler(t, eng)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestSignRoundTrip(t *testing.T) {
	body := []byte(`{"user_id":"u1","message":"hi"}`)
	sig := Sign(testSecret, body)

	r := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	r.Header.Set(SignatureHeader, sig)

	h, _ := newTestHandler(t, &fakeEngine{reply: "ok"})
	if !h.verifySignature(r, body) {
		t.Error("signature produced by Sign must verify")
	}
}
