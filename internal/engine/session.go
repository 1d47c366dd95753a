package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formsense/repcoach/internal/pose"
	"github.com/formsense/repcoach/internal/statebus"
	"github.com/formsense/repcoach/internal/timeutil"
)

// Session wires one classifier + counter pair for a single exercise segment
// and publishes the observable read model: a CountingState snapshot after
// every processed frame, and a Repetition event per completed rep.
//
// A Session is owned by exactly one frame producer. Snapshot readers and
// subscribers may run concurrently; frame processing itself is serialised by
// the session mutex. Changing exercise means constructing a new Session, not
// reconfiguring this one.
type Session struct {
	id        string
	exercise  Exercise
	cfg       CountingConfig
	clock     timeutil.Clock
	startedAt time.Time

	mu         sync.RWMutex
	classifier Classifier
	counter    *Counter
	confWindow []float64 // recent frame confidences, capped at ConfidenceWindow
	framesSeen int64
	lastNanos  int64

	snapshots *statebus.Bus[CountingState]
	reps      *statebus.Bus[Repetition]
}

// NewSession creates a Session for the given exercise variant.
func NewSession(ex Exercise, cfg CountingConfig, clock timeutil.Clock) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid counting config: %w", err)
	}
	classifier, err := NewClassifier(ex, cfg.SmoothingWindow)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Session{
		id:         uuid.NewString(),
		exercise:   ex,
		cfg:        cfg,
		clock:      clock,
		startedAt:  clock.Now(),
		classifier: classifier,
		counter:    NewCounter(cfg),
		snapshots:  statebus.New[CountingState](),
		reps:       statebus.New[Repetition](),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Exercise returns the variant this session counts.
func (s *Session) Exercise() Exercise { return s.exercise }

// StartedAt returns the session creation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Config returns the immutable session configuration.
func (s *Session) Config() CountingConfig { return s.cfg }

// ProcessFrame runs one landmark frame through the engine and returns the
// refreshed snapshot. The only possible error is a structural one (wrong
// landmark count); low tracking quality degrades to neutral output instead.
func (s *Session) ProcessFrame(f *pose.Frame) (CountingState, error) {
	if err := f.Validate(); err != nil {
		return CountingState{}, err
	}

	s.mu.Lock()
	probs := s.classifier.Classify(f)
	metrics := s.classifier.FormMetrics(f)
	rep := s.counter.Process(probs, metrics, f.UnixNanos)

	s.framesSeen++
	s.lastNanos = f.UnixNanos
	s.confWindow = append(s.confWindow, probs.Confidence())
	if len(s.confWindow) > ConfidenceWindow {
		s.confWindow = s.confWindow[1:]
	}

	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if rep != nil {
		s.reps.Publish(*rep)
	}
	s.snapshots.Publish(snapshot)
	return snapshot, nil
}

// Snapshot returns the current read model without processing a frame.
func (s *Session) Snapshot() CountingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked builds the immutable read model. Caller holds s.mu.
func (s *Session) snapshotLocked() CountingState {
	history := s.counter.History()

	var avgConf float64
	if len(s.confWindow) > 0 {
		var sum float64
		for _, c := range s.confWindow {
			sum += c
		}
		avgConf = sum / float64(len(s.confWindow))
	}

	var avgForm, avgQuality float64
	if len(history) > 0 {
		var formSum, qualSum float64
		for i := range history {
			formSum += history[i].FormScore
			qualSum += CompositeScore(history[i].FormScore, history[i].Confidence)
		}
		avgForm = formSum / float64(len(history))
		avgQuality = qualSum / float64(len(history))
	}

	return CountingState{
		Exercise:      s.exercise,
		TotalReps:     s.counter.TotalReps(),
		State:         s.counter.State(),
		Confidence:    avgConf,
		LastRep:       s.counter.LastRep(),
		History:       history,
		AvgFormScore:  avgForm,
		AvgQuality:    avgQuality,
		FramesSeen:    s.framesSeen,
		LastFrameTime: s.lastNanos,
	}
}

// Statistics computes the aggregate session summary on demand.
func (s *Session) Statistics() *SessionStatistics {
	s.mu.RLock()
	history := s.counter.History()
	s.mu.RUnlock()
	return ComputeSessionStatistics(history, s.cfg.QualityThreshold)
}

// Reset clears all counters and history but preserves configuration and
// subscriptions, then publishes the cleared snapshot.
func (s *Session) Reset() {
	s.mu.Lock()
	s.counter.Reset()
	s.classifier.Reset()
	s.confWindow = nil
	s.framesSeen = 0
	s.lastNanos = 0
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.snapshots.Publish(snapshot)
}

// SubscribeSnapshots registers a latest-only subscriber for the continuous
// snapshot stream.
func (s *Session) SubscribeSnapshots() (string, <-chan CountingState, error) {
	return s.snapshots.SubscribeLatest()
}

// UnsubscribeSnapshots removes a snapshot subscription.
func (s *Session) UnsubscribeSnapshots(id string) {
	s.snapshots.Unsubscribe(id)
}

// SubscribeReps registers a buffered subscriber for discrete repetition
// events.
func (s *Session) SubscribeReps(buffer int) (string, <-chan Repetition, error) {
	return s.reps.Subscribe(buffer)
}

// UnsubscribeReps removes a repetition subscription.
func (s *Session) UnsubscribeReps(id string) {
	s.reps.Unsubscribe(id)
}

// Close tears down both event buses. The session must not process frames
// afterwards.
func (s *Session) Close() {
	s.snapshots.Close()
	s.reps.Close()
}
