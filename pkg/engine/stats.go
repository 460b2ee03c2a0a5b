package engine

import (
	"sync"
	"time"
)

// Stats tracks per-engine request counters. Each engine instance owns its
// own Stats; there is no process-global state, so engines created in tests
// never share counters.
type Stats struct {
	mu        sync.Mutex
	total     int64
	succeeded int64
	failed    int64
	latency   time.Duration // cumulative, successful calls only
}

// Snapshot is a read-only view of the counters at one point in time.
type Snapshot struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`

	// SuccessRate is succeeded/total as a percentage, 0 when total is 0.
	SuccessRate float64 `json:"success_rate"`

	// AvgLatency is the mean wall-clock duration of successful calls,
	// 0 when none succeeded.
	AvgLatency time.Duration `json:"avg_latency"`
}

// recordSuccess counts a successful generation and its elapsed time.
func (s *Stats) recordSuccess(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.succeeded++
	s.latency += elapsed
}

// recordFailure counts a generation that fell back.
func (s *Stats) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.failed++
}

// Snapshot returns the current counter values and derived rates.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Total:     s.total,
		Succeeded: s.succeeded,
		Failed:    s.failed,
	}
	if s.total > 0 {
		snap.SuccessRate = float64(s.succeeded) / float64(s.total) * 100
	}
	if s.succeeded > 0 {
		snap.AvgLatency = s.latency / time.Duration(s.succeeded)
	}
	return snap
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
	s.succeeded = 0
	s.failed = 0
	s.latency = 0
}
