// Package store defines the conversation-store contract: bounded, ordered,
// per-user dialogue history with FIFO eviction.
package store

import (
	"context"

	"github.com/parleyhq/parley/pkg/chat"
)

// GlobalStats summarizes the store contents across all users.
type GlobalStats struct {
	// Users is the number of users with at least one stored message.
	Users int `json:"users"`

	// Messages is the total number of stored messages across all users.
	Messages int `json:"messages"`
}

// ConversationStore tracks per-user message history. Each user's history is
// an ordered sequence capped at a configured maximum; appending beyond the
// cap evicts the oldest messages (sliding window). Records never expire on
// their own.
//
// Unknown users are not an error condition: History returns an empty slice
// and ClearUser returns zero. The in-memory implementation never returns a
// non-nil error from any method.
//
// Implementations must be safe for concurrent use, and must serialize
// mutations to a single user's record so concurrent appends cannot corrupt
// ordering or break the size cap.
type ConversationStore interface {
	// AddMessage appends a message to the user's history, creating the
	// record on first use and evicting from the front once over the cap.
	AddMessage(ctx context.Context, userID string, msg chat.Message) error

	// History returns the user's messages in chronological order. When
	// limit > 0 only the most recent limit messages are returned. The
	// returned slice is the caller's to keep.
	History(ctx context.Context, userID string, limit int) ([]chat.Message, error)

	// ClearUser removes the user's record entirely and returns the number
	// of messages that were stored.
	ClearUser(ctx context.Context, userID string) (int, error)

	// GlobalStats returns aggregate totals across all users.
	GlobalStats(ctx context.Context) (GlobalStats, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
