package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// engine.backend_url and engine.model are required.
	if c.Engine.BackendURL == "" {
		errs = append(errs, fmt.Errorf("engine.backend_url is required"))
	}
	if c.Engine.Model == "" {
		errs = append(errs, fmt.Errorf("engine.model is required"))
	}

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// store.type must be a known value.
	switch c.Store.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("store.type must be \"memory\" or \"postgres\", got %q", c.Store.Type))
	}

	// store.max_history must be positive.
	if c.Store.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("store.max_history must be > 0, got %d", c.Store.MaxHistory))
	}

	// If store.type is "postgres", DSN or DSNFile must be set.
	if c.Store.Type == "postgres" {
		if c.Store.Postgres.DSN == "" && c.Store.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("store.postgres.dsn or store.postgres.dsn_file is required when store.type is \"postgres\""))
		}
	}

	// webhook.secret is required so unsigned deliveries can't reach the engine.
	if c.Webhook.Secret == "" && c.Webhook.SecretFile == "" {
		errs = append(errs, fmt.Errorf("webhook.secret or webhook.secret_file is required"))
	}
	if c.Webhook.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("webhook.max_message_length must be > 0, got %d", c.Webhook.MaxMessageLength))
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none", "apikey", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}
	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	return errors.Join(errs...)
}
