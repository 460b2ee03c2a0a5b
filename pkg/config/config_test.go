package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempFile writes content to a file in a test temp dir and returns the path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

// minimalYAML is a config file satisfying all required fields.
const minimalYAML = `
engine:
  backend_url: http://localhost:9090
  model: test-model
webhook:
  secret: hunter2
`

func TestLoad_Defaults(t *testing.T) {
	path := writeTempFile(t, "config.yaml", minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Engine.MaxRetries != 3 {
		t.Errorf("expected default max_retries 3, got %d", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.BackoffBase != time.Second {
		t.Errorf("expected default backoff_base 1s, got %v", cfg.Engine.BackoffBase)
	}
	if cfg.Store.Type != "memory" || cfg.Store.MaxHistory != 20 {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Webhook.Path != "/webhook" || cfg.Webhook.MaxMessageLength != 4000 {
		t.Errorf("unexpected webhook defaults: %+v", cfg.Webhook)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("unexpected metrics defaults: %+v", cfg.Observability.Metrics)
	}
	if cfg.Auth.Type != "none" {
		t.Errorf("expected default auth type none, got %q", cfg.Auth.Type)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeTempFile(t, "config.yaml", `
server:
  port: 9999
engine:
  backend_url: http://backend:8000
  model: my-model
  temperature: 0.2
  max_retries: 5
  backoff_base: 250ms
store:
  type: memory
  max_history: 8
webhook:
  secret: hunter2
  max_message_length: 500
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Engine.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", cfg.Engine.Temperature)
	}
	if cfg.Engine.MaxRetries != 5 {
		t.Errorf("expected max_retries 5, got %d", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.BackoffBase != 250*time.Millisecond {
		t.Errorf("expected backoff_base 250ms, got %v", cfg.Engine.BackoffBase)
	}
	if cfg.Store.MaxHistory != 8 {
		t.Errorf("expected max_history 8, got %d", cfg.Store.MaxHistory)
	}
	if cfg.Webhook.MaxMessageLength != 500 {
		t.Errorf("expected max_message_length 500, got %d", cfg.Webhook.MaxMessageLength)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTempFile(t, "config.yaml", minimalYAML)

	t.Setenv("PARLEY_MODEL", "env-model")
	t.Setenv("PARLEY_PORT", "7070")
	t.Setenv("PARLEY_MAX_RETRIES", "7")
	t.Setenv("PARLEY_MAX_HISTORY", "50")
	t.Setenv("PARLEY_WEBHOOK_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.Model != "env-model" {
		t.Errorf("expected env model override, got %q", cfg.Engine.Model)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port override, got %d", cfg.Server.Port)
	}
	if cfg.Engine.MaxRetries != 7 {
		t.Errorf("expected env max_retries override, got %d", cfg.Engine.MaxRetries)
	}
	if cfg.Store.MaxHistory != 50 {
		t.Errorf("expected env max_history override, got %d", cfg.Store.MaxHistory)
	}
	if cfg.Webhook.Secret != "env-secret" {
		t.Errorf("expected env webhook secret override, got %q", cfg.Webhook.Secret)
	}
}

func TestLoad_FileReferences(t *testing.T) {
	keyFile := writeTempFile(t, "api-key", "sk-secret-key\n")
	secretFile := writeTempFile(t, "webhook-secret", "  whsec-123  \n")

	path := writeTempFile(t, "config.yaml", `
engine:
  backend_url: http://localhost:9090
  model: test-model
  api_key_file: `+keyFile+`
webhook:
  secret_file: `+secretFile+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.APIKey != "sk-secret-key" {
		t.Errorf("expected api key from file, got %q", cfg.Engine.APIKey)
	}
	if cfg.Webhook.Secret != "whsec-123" {
		t.Errorf("expected trimmed webhook secret from file, got %q", cfg.Webhook.Secret)
	}
}

func TestLoad_MissingFileReference(t *testing.T) {
	path := writeTempFile(t, "config.yaml", `
engine:
  backend_url: http://localhost:9090
  model: test-model
  api_key_file: /nonexistent/key
webhook:
  secret: hunter2
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for nonexistent key file")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing backend url", func(c *Config) { c.Engine.BackendURL = "" }, "engine.backend_url"},
		{"missing model", func(c *Config) { c.Engine.Model = "" }, "engine.model"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad store type", func(c *Config) { c.Store.Type = "redis" }, "store.type"},
		{"bad max history", func(c *Config) { c.Store.MaxHistory = 0 }, "store.max_history"},
		{"postgres without dsn", func(c *Config) { c.Store.Type = "postgres" }, "store.postgres.dsn"},
		{"missing webhook secret", func(c *Config) { c.Webhook.Secret = "" }, "webhook.secret"},
		{"bad message length", func(c *Config) { c.Webhook.MaxMessageLength = -1 }, "webhook.max_message_length"},
		{"bad auth type", func(c *Config) { c.Auth.Type = "oauth" }, "auth.type"},
		{"apikey without keys", func(c *Config) { c.Auth.Type = "apikey" }, "auth.api_keys"},
		{"jwt without secret", func(c *Config) { c.Auth.Type = "jwt" }, "auth.jwt.secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Engine.BackendURL = "http://localhost:9090"
			cfg.Engine.Model = "m"
			cfg.Webhook.Secret = "s"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantSub, err.Error())
			}
		})
	}
}

func TestLoad_NoConfigFileIsAnError(t *testing.T) {
	// Without any config source the required fields are missing.
	t.Setenv("PARLEY_CONFIG", "")
	t.Chdir(t.TempDir())

	if _, err := Load(""); err == nil {
		t.Error("expected validation error without config sources")
	}
}
