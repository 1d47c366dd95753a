package ingest

import (
	"sync"
	"time"

	"github.com/formsense/repcoach/internal/monitoring"
)

// FrameStats tracks ingest counters across all sources. Safe for concurrent
// use.
type FrameStats struct {
	mu        sync.Mutex
	received  uint64
	accepted  uint64
	gated     uint64
	malformed uint64
	bytes     uint64
	lastLog   time.Time
}

// NewFrameStats creates a zeroed stats collector.
func NewFrameStats() *FrameStats {
	return &FrameStats{lastLog: time.Now()}
}

func (s *FrameStats) addReceived(n int) {
	s.mu.Lock()
	s.received++
	s.bytes += uint64(n)
	s.mu.Unlock()
}

func (s *FrameStats) addAccepted() {
	s.mu.Lock()
	s.accepted++
	s.mu.Unlock()
}

func (s *FrameStats) addGated() {
	s.mu.Lock()
	s.gated++
	s.mu.Unlock()
}

func (s *FrameStats) addMalformed() {
	s.mu.Lock()
	s.malformed++
	s.mu.Unlock()
}

// Snapshot returns the current counter values.
func (s *FrameStats) Snapshot() (received, accepted, gated, malformed, bytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received, s.accepted, s.gated, s.malformed, s.bytes
}

// LogStats emits one line of ingest counters since startup.
func (s *FrameStats) LogStats() {
	received, accepted, gated, malformed, bytes := s.Snapshot()
	monitoring.Logf("ingest: %d frames received (%d bytes), %d accepted, %d gated, %d malformed",
		received, bytes, accepted, gated, malformed)
}
