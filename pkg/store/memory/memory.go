// Package memory provides the default in-memory ConversationStore. History
// is lost when the process restarts. Memory use is bounded by the per-user
// history cap; there is no TTL.
package memory

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/pkg/chat"
	"github.com/parleyhq/parley/pkg/store"
)

// record holds one user's ordered history. The record mutex serializes
// mutations to this user only, so traffic for different users does not
// contend on a single lock.
type record struct {
	mu   sync.Mutex
	msgs []chat.Message
}

// Store is an in-memory ConversationStore with a per-user sliding window.
type Store struct {
	mu         sync.RWMutex // guards records map
	records    map[string]*record
	maxHistory int
}

// Ensure Store implements store.ConversationStore at compile time.
var _ store.ConversationStore = (*Store)(nil)

// DefaultMaxHistory bounds each user's history when no cap is configured.
const DefaultMaxHistory = 20

// New creates an in-memory store. If maxHistory is not positive, the
// default cap is used.
func New(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		records:    make(map[string]*record),
		maxHistory: maxHistory,
	}
}

// AddMessage appends a message to the user's history, creating the record
// lazily and evicting the oldest message once the cap is exceeded.
// It never returns a non-nil error.
func (s *Store) AddMessage(_ context.Context, userID string, msg chat.Message) error {
	r := s.record(userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, msg)
	if over := len(r.msgs) - s.maxHistory; over > 0 {
		// Shift in place so the backing array does not grow unbounded.
		copy(r.msgs, r.msgs[over:])
		r.msgs = r.msgs[:s.maxHistory]
	}

	return nil
}

// History returns the user's messages in chronological order, most-recent
// limit when limit > 0. The result is a copy; unknown users yield an empty
// slice. It never returns a non-nil error.
func (s *Store) History(_ context.Context, userID string, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	r, ok := s.records[userID]
	s.mu.RUnlock()
	if !ok {
		return []chat.Message{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.msgs
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// ClearUser removes the user's record entirely and returns the number of
// messages removed (0 for unknown users). It never returns a non-nil error.
func (s *Store) ClearUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	r, ok := s.records[userID]
	delete(s.records, userID)
	s.mu.Unlock()

	if !ok {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs), nil
}

// GlobalStats returns the number of tracked users and total stored messages.
func (s *Store) GlobalStats(_ context.Context) (store.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := store.GlobalStats{Users: len(s.records)}
	for _, r := range s.records {
		r.mu.Lock()
		stats.Messages += len(r.msgs)
		r.mu.Unlock()
	}
	return stats, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// record returns the user's record, creating it if absent.
func (s *Store) record(userID string) *record {
	s.mu.RLock()
	r, ok := s.records[userID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check: another goroutine may have created it in between.
	if r, ok := s.records[userID]; ok {
		return r
	}
	r = &record{}
	s.records[userID] = r
	return r
}
