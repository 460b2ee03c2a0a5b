// Package config provides unified configuration for the parley relay.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PARLEY_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the parley relay.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Engine        EngineConfig        `yaml:"engine"`
	Store         StoreConfig         `yaml:"store"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// EngineConfig holds completion backend and generation settings.
type EngineConfig struct {
	BackendURL     string        `yaml:"backend_url"`  // required
	APIKey         string        `yaml:"api_key"`      // optional
	APIKeyFile     string        `yaml:"api_key_file"` // _file variant for api_key
	Model          string        `yaml:"model"`        // required
	Temperature    float64       `yaml:"temperature"`  // default: 0.7
	TopP           float64       `yaml:"top_p"`        // default: 0.9
	MaxTokens      int           `yaml:"max_tokens"`   // default: 512
	MaxRetries     int           `yaml:"max_retries"`  // default: 3
	BackoffBase    time.Duration `yaml:"backoff_base"` // default: 1s
	RequestTimeout time.Duration `yaml:"request_timeout"` // per attempt, default: 60s
}

// StoreConfig holds conversation-history settings.
type StoreConfig struct {
	Type       string         `yaml:"type"`        // "memory" or "postgres", default: "memory"
	MaxHistory int            `yaml:"max_history"` // per-user cap, default: 20
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// WebhookConfig holds inbound webhook settings.
type WebhookConfig struct {
	Path             string `yaml:"path"`        // default: "/webhook"
	Secret           string `yaml:"secret"`      // shared HMAC secret, required
	SecretFile       string `yaml:"secret_file"` // _file variant for secret
	MaxMessageLength int    `yaml:"max_message_length"` // default: 4000
}

// AuthConfig holds admin-endpoint authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none", "apikey", or "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // API key entries for type=apikey
	JWT     JWTConfig      `yaml:"jwt"`      // settings for type=jwt
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
}

// JWTConfig holds JWT verification settings (HMAC shared secret).
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log level and debug category settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Engine: EngineConfig{
			Temperature:    0.7,
			TopP:           0.9,
			MaxTokens:      512,
			MaxRetries:     3,
			BackoffBase:    time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Store: StoreConfig{
			Type:       "memory",
			MaxHistory: 20,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Webhook: WebhookConfig{
			Path:             "/webhook",
			MaxMessageLength: 4000,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}
