package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PARLEY_CONFIG env, ./config.yaml, /etc/parley/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PARLEY_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/parley/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check PARLEY_CONFIG env var.
	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/parley/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARLEY_BACKEND_URL"); v != "" {
		cfg.Engine.BackendURL = v
	}
	if v := os.Getenv("PARLEY_API_KEY"); v != "" {
		cfg.Engine.APIKey = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		cfg.Engine.Model = v
	}
	if v := os.Getenv("PARLEY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxRetries = n
		}
	}
	if v := os.Getenv("PARLEY_BACKOFF_BASE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.BackoffBase = d
		}
	}
	if v := os.Getenv("PARLEY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PARLEY_STORE"); v != "" {
		cfg.Store.Type = v
	}
	if v := os.Getenv("PARLEY_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.MaxHistory = n
		}
	}
	if v := os.Getenv("PARLEY_POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("PARLEY_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("PARLEY_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// engine.api_key_file -> engine.api_key
	if cfg.Engine.APIKeyFile != "" && cfg.Engine.APIKey == "" {
		val, err := readSecretFile(cfg.Engine.APIKeyFile)
		if err != nil {
			return fmt.Errorf("engine.api_key_file: %w", err)
		}
		cfg.Engine.APIKey = val
	}

	// store.postgres.dsn_file -> store.postgres.dsn
	if cfg.Store.Postgres.DSNFile != "" && cfg.Store.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Store.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("store.postgres.dsn_file: %w", err)
		}
		cfg.Store.Postgres.DSN = val
	}

	// webhook.secret_file -> webhook.secret
	if cfg.Webhook.SecretFile != "" && cfg.Webhook.Secret == "" {
		val, err := readSecretFile(cfg.Webhook.SecretFile)
		if err != nil {
			return fmt.Errorf("webhook.secret_file: %w", err)
		}
		cfg.Webhook.Secret = val
	}

	// auth.jwt.secret_file -> auth.jwt.secret
	if cfg.Auth.JWT.SecretFile != "" && cfg.Auth.JWT.Secret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.secret_file: %w", err)
		}
		cfg.Auth.JWT.Secret = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
