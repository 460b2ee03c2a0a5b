// Package postgres provides a PostgreSQL-backed ConversationStore for
// deployments that want history to survive restarts. It uses pgx/v5 for
// connection pooling and enforces the same sliding-window cap as the
// in-memory store by trimming rows after each insert.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parleyhq/parley/pkg/chat"
	"github.com/parleyhq/parley/pkg/store"
)

// Store is a PostgreSQL-backed ConversationStore.
type Store struct {
	pool       *pgxpool.Pool
	maxHistory int
}

// Ensure Store implements store.ConversationStore at compile time.
var _ store.ConversationStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, maxHistory: cfg.MaxHistory}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// AddMessage appends a message and trims the user's history back to the cap
// in a single transaction, so concurrent appends for the same user cannot
// leave the history over the cap.
func (s *Store) AddMessage(ctx context.Context, userID string, msg chat.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conversation_messages (user_id, role, content)
		VALUES ($1, $2, $3)
	`, userID, string(msg.Role), msg.Content)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM conversation_messages
		WHERE user_id = $1
		  AND seq < (
			SELECT min(seq) FROM (
				SELECT seq FROM conversation_messages
				WHERE user_id = $1
				ORDER BY seq DESC
				LIMIT $2
			) AS kept
		  )
	`, userID, s.maxHistory)
	if err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}

	return tx.Commit(ctx)
}

// History returns the user's messages in chronological order, most-recent
// limit when limit > 0. Unknown users yield an empty slice.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	effective := s.maxHistory
	if limit > 0 && limit < effective {
		effective = limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT role, content FROM (
			SELECT seq, role, content FROM conversation_messages
			WHERE user_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) AS recent
		ORDER BY seq ASC
	`, userID, effective)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	msgs := []chat.Message{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, chat.Message{Role: chat.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return msgs, nil
}

// ClearUser removes the user's history and returns the number of messages
// removed (0 for unknown users).
func (s *Store) ClearUser(ctx context.Context, userID string) (int, error) {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM conversation_messages WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// GlobalStats returns the number of tracked users and total stored messages.
func (s *Store) GlobalStats(ctx context.Context) (store.GlobalStats, error) {
	var stats store.GlobalStats
	err := s.pool.QueryRow(ctx, `
		SELECT count(DISTINCT user_id), count(*) FROM conversation_messages
	`).Scan(&stats.Users, &stats.Messages)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return store.GlobalStats{}, fmt.Errorf("querying stats: %w", err)
	}
	return stats, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
