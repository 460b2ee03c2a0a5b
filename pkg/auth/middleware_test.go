package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareAllowsAuthenticated(t *testing.T) {
	chain := &AuthChain{Authenticators: []Authenticator{yes("alice")}}

	var seen *Identity
	handler := Middleware(chain)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.Subject != "alice" {
		t.Errorf("expected identity alice in handler context, got %+v", seen)
	}
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	chain := &AuthChain{Authenticators: []Authenticator{no()}}

	handler := Middleware(chain)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsEmptySubject(t *testing.T) {
	broken := &voteAuthenticator{result: AuthResult{Decision: Yes, Identity: &Identity{}}}
	chain := &AuthChain{Authenticators: []Authenticator{broken}}

	handler := Middleware(chain)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
