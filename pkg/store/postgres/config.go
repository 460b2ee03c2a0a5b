package postgres

import "time"

// Config holds PostgreSQL store settings.
type Config struct {
	// DSN is the PostgreSQL connection string (required).
	DSN string

	// MaxHistory caps each user's stored history. Zero or negative uses
	// the default of 20.
	MaxHistory int

	// MaxConns limits the connection pool size. Default: 25.
	MaxConns int32

	// MinConns keeps warm connections in the pool. Default: 2.
	MinConns int32

	// MaxConnLifetime recycles connections after this duration. Default: 1h.
	MaxConnLifetime time.Duration

	// MigrateOnStart applies embedded schema migrations during New.
	MigrateOnStart bool
}

// defaults fills in zero-value fields.
func (c *Config) defaults() {
	if c.MaxHistory <= 0 {
		c.MaxHistory = 20
	}
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
}
