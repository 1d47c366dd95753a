package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/repcoach/internal/pose"
	"github.com/formsense/repcoach/internal/testutil"
	"github.com/formsense/repcoach/internal/timeutil"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := DefaultCountingConfig()
	cfg.SmoothingWindow = 1
	s, err := NewSession(PushupStandard, cfg, timeutil.NewMockClock(time.Unix(1000, 0)))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// runCycle feeds a full push-up movement through the session and returns the
// timestamp after the last frame.
func runCycle(t *testing.T, s *Session, startNanos int64) int64 {
	t.Helper()
	const step = int64(33 * time.Millisecond)
	now := startNanos
	for i := 0; i < 2*DefaultStabilityFrames; i++ {
		f := plankFrame(i < DefaultStabilityFrames)
		f.UnixNanos = now
		_, err := s.ProcessFrame(f)
		require.NoError(t, err)
		now += step
	}
	for i := 0; i < 2*DefaultStabilityFrames; i++ {
		f := plankFrame(i >= DefaultStabilityFrames)
		f.UnixNanos = now
		_, err := s.ProcessFrame(f)
		require.NoError(t, err)
		now += step
	}
	return now
}

func TestSessionCountsRep(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	runCycle(t, s, int64(time.Second))

	snap := s.Snapshot()
	assert.Equal(t, PushupStandard, snap.Exercise)
	assert.Equal(t, 1, snap.TotalReps)
	assert.Equal(t, StateUp, snap.State)
	require.NotNil(t, snap.LastRep)
	assert.Equal(t, 1, snap.LastRep.Number)
	require.Len(t, snap.History, 1)
	assert.Equal(t, int64(4*DefaultStabilityFrames), snap.FramesSeen)
	assert.Greater(t, snap.Confidence, 0.0)
	assert.Greater(t, snap.AvgFormScore, 0.0)
}

func TestSessionRejectsMalformedFrame(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	_, err := s.ProcessFrame(&pose.Frame{
		World: make([]pose.Landmark, 5),
		Image: make([]pose.Landmark, 5),
	})
	assert.Error(t, err)

	// A structurally valid frame with hopeless tracking is not an error.
	_, err = s.ProcessFrame(testutil.NewPoseFrame(0.0, int64(time.Second)))
	assert.NoError(t, err)
}

func TestSessionPublishesSnapshots(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	id, ch, err := s.SubscribeSnapshots()
	require.NoError(t, err)
	defer s.UnsubscribeSnapshots(id)

	f := testutil.NewPoseFrame(0.9, int64(time.Second))
	_, err = s.ProcessFrame(f)
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, int64(1), snap.FramesSeen)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestSessionPublishesReps(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	id, ch, err := s.SubscribeReps(8)
	require.NoError(t, err)
	defer s.UnsubscribeReps(id)

	runCycle(t, s, int64(time.Second))

	select {
	case rep := <-ch:
		assert.Equal(t, 1, rep.Number)
		assert.NotEmpty(t, rep.ID)
	case <-time.After(time.Second):
		t.Fatal("no repetition published")
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	runCycle(t, s, int64(time.Second))
	require.Equal(t, 1, s.Snapshot().TotalReps)

	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.TotalReps)
	assert.Equal(t, StateUp, snap.State)
	assert.Nil(t, snap.LastRep)
	assert.Empty(t, snap.History)
	assert.Zero(t, snap.FramesSeen)
	// Identity and exercise selection survive a reset.
	assert.Equal(t, PushupStandard, snap.Exercise)
	assert.NotEmpty(t, s.ID())
}

func TestSessionStatistics(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	now := runCycle(t, s, int64(time.Second))
	runCycle(t, s, now+int64(DefaultMinRepInterval))

	stats := s.Statistics()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalReps)
	assert.Greater(t, stats.AvgRepDurationMs, 0.0)
}

func TestNewSessionValidation(t *testing.T) {
	t.Parallel()

	bad := DefaultCountingConfig()
	bad.StabilityFrames = 0
	_, err := NewSession(PushupStandard, bad, nil)
	assert.Error(t, err)

	_, err = NewSession(Exercise("nonsense"), DefaultCountingConfig(), nil)
	assert.Error(t, err)
}

type captureSink struct {
	recs []SessionRecord
}

func (c *captureSink) SaveSession(_ context.Context, rec SessionRecord) error {
	c.recs = append(c.recs, rec)
	return nil
}

func TestManagerLifecycle(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	cfg := DefaultCountingConfig()
	cfg.SmoothingWindow = 1
	m := NewManager(cfg, timeutil.NewMockClock(time.Unix(1000, 0)), sink)

	// Frames before any selection are rejected.
	_, err := m.ProcessFrame(testutil.NewPoseFrame(0.9, int64(time.Second)))
	assert.ErrorIs(t, err, ErrNoActiveSession)

	first, err := m.SelectExercise(context.Background(), PushupStandard)
	require.NoError(t, err)
	runCycle(t, first, int64(time.Second))

	// Switching exercises finishes and persists the previous segment.
	second, err := m.SelectExercise(context.Background(), SquatStandard)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	require.Len(t, sink.recs, 1)
	assert.Equal(t, first.ID(), sink.recs[0].ID)
	assert.Equal(t, PushupStandard, sink.recs[0].Exercise)
	assert.Equal(t, 1, sink.recs[0].Stats.TotalReps)
	require.Len(t, sink.recs[0].Reps, 1)

	m.Finish(context.Background())
	assert.Nil(t, m.Active())
	require.Len(t, sink.recs, 2)
	assert.Equal(t, SquatStandard, sink.recs[1].Exercise)
}
