// Package jwt provides a JWT authenticator for the admin surface. Tokens
// are HMAC-signed with a shared secret; issuer and audience checks are
// applied when configured.
package jwt

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/parleyhq/parley/pkg/auth"
)

var _ auth.Authenticator = (*Authenticator)(nil)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Secret is the HMAC signing secret (required).
	Secret string

	// Issuer is the expected JWT issuer (iss claim). If empty, issuer is not validated.
	Issuer string

	// Audience is the expected JWT audience (aud claim). If empty, audience is not validated.
	Audience string
}

// Authenticator validates HMAC-signed JWT bearer tokens.
type Authenticator struct {
	config Config
}

// New creates a JWT authenticator with the given configuration.
func New(cfg Config) *Authenticator {
	return &Authenticator{config: cfg}
}

// Authenticate extracts a bearer token from the Authorization header,
// validates it as a JWT, and returns an identity on success.
//
// Decision outcomes:
//   - Abstain: no Authorization header, not a Bearer scheme, or not a JWT shape
//   - No: JWT present but invalid (expired, wrong issuer, bad signature, etc.)
//   - Yes: valid JWT with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	token := strings.TrimPrefix(header, "Bearer ")

	// A JWT has three dot-separated segments. Anything else is some other
	// bearer credential; leave it for the next authenticator in the chain.
	if strings.Count(token, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}

	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (any, error) {
		return []byte(a.config.Secret), nil
	}, opts...)
	if err != nil {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid token: %w", err),
		}
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("token has no subject claim"),
		}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: subject},
	}
}
