package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/formsense/repcoach/internal/monitoring"
	"github.com/formsense/repcoach/internal/pose"
	"github.com/formsense/repcoach/internal/timeutil"
)

// SessionSink receives finished session segments for persistence. Implemented
// by the sqlite store; a nil sink is allowed and means history is kept only in
// memory.
type SessionSink interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
}

// SessionRecord is the persistence shape for one finished exercise segment.
type SessionRecord struct {
	ID         string
	Exercise   Exercise
	StartedAt  time.Time
	FinishedAt time.Time
	FramesSeen int64
	Stats      *SessionStatistics
	Reps       []Repetition
}

// Manager owns the active Session and handles segment lifecycle: selecting a
// new exercise finishes the current segment, hands it to the sink, and starts
// a fresh classifier and counter pair.
type Manager struct {
	cfg   CountingConfig
	clock timeutil.Clock
	sink  SessionSink

	mu     sync.RWMutex
	active *Session
}

// NewManager creates a Manager with no active session.
func NewManager(cfg CountingConfig, clock timeutil.Clock, sink SessionSink) *Manager {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Manager{cfg: cfg, clock: clock, sink: sink}
}

// Active returns the current session, or nil when no exercise is selected.
func (m *Manager) Active() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// SelectExercise finishes any current segment and starts a new session for
// the given variant. Selecting the variant already active restarts it with
// fresh counters.
func (m *Manager) SelectExercise(ctx context.Context, ex Exercise) (*Session, error) {
	next, err := NewSession(ex, m.cfg, m.clock)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	prev := m.active
	m.active = next
	m.mu.Unlock()

	if prev != nil {
		m.finish(ctx, prev)
	}
	return next, nil
}

// ProcessFrame forwards a frame to the active session.
func (m *Manager) ProcessFrame(f *pose.Frame) (CountingState, error) {
	s := m.Active()
	if s == nil {
		return CountingState{}, ErrNoActiveSession
	}
	return s.ProcessFrame(f)
}

// Finish closes out the active segment, persisting it if a sink is set.
func (m *Manager) Finish(ctx context.Context) {
	m.mu.Lock()
	prev := m.active
	m.active = nil
	m.mu.Unlock()

	if prev != nil {
		m.finish(ctx, prev)
	}
}

func (m *Manager) finish(ctx context.Context, s *Session) {
	defer s.Close()
	if m.sink == nil {
		return
	}
	snap := s.Snapshot()
	rec := SessionRecord{
		ID:         s.ID(),
		Exercise:   s.Exercise(),
		StartedAt:  s.StartedAt(),
		FinishedAt: m.clock.Now(),
		FramesSeen: snap.FramesSeen,
		Stats:      s.Statistics(),
		Reps:       snap.History,
	}
	if err := m.sink.SaveSession(ctx, rec); err != nil {
		monitoring.Logf("failed to persist session %s: %v", rec.ID, err)
	}
}

// ErrNoActiveSession is returned when frames arrive before an exercise has
// been selected.
var ErrNoActiveSession = fmt.Errorf("no active session, select an exercise first")
