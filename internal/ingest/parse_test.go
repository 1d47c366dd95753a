package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/repcoach/internal/pose"
	"github.com/formsense/repcoach/internal/testutil"
)

// frameLine serialises a frame into its NDJSON wire form.
func frameLine(t *testing.T, f *pose.Frame) []byte {
	t.Helper()
	data, err := json.Marshal(wireFrame{
		UnixNanos: f.UnixNanos,
		World:     f.World,
		Image:     f.Image,
	})
	require.NoError(t, err)
	return data
}

func TestParseFrame(t *testing.T) {
	t.Parallel()

	want := testutil.NewPoseFrame(0.8, 12345)
	got, err := ParseFrame(frameLine(t, want))
	require.NoError(t, err)

	assert.Equal(t, int64(12345), got.UnixNanos)
	require.Len(t, got.World, pose.NumLandmarks)
	require.Len(t, got.Image, pose.NumLandmarks)
	assert.Equal(t, 0.8, got.World[pose.Nose].Visibility)
}

func TestParseFrameMirrorsMissingImageSpace(t *testing.T) {
	t.Parallel()

	src := testutil.NewPoseFrame(0.8, 1)
	src.Image = nil
	got, err := ParseFrame(frameLine(t, src))
	require.NoError(t, err)
	require.Len(t, got.Image, pose.NumLandmarks)
	assert.Equal(t, got.World[pose.LeftHip], got.Image[pose.LeftHip])
}

func TestParseFrameErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{"not json", "tracker rebooting"},
		{"empty object", "{}"},
		{"truncated landmark list", `{"unix_nanos":1,"world":[{"x":0,"y":0,"z":0,"visibility":1}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseFrame([]byte(tt.line))
			assert.Error(t, err)
		})
	}
}

func TestQualityGate(t *testing.T) {
	t.Parallel()

	gate := QualityGate{MinVisible: 10, Threshold: 0.5}

	assert.True(t, gate.Accept(testutil.NewPoseFrame(0.9, 0)))
	assert.False(t, gate.Accept(testutil.NewPoseFrame(0.2, 0)))

	// Exactly at the floor: 10 landmarks visible is enough.
	f := testutil.NewPoseFrame(0.2, 0)
	for i := 0; i < 10; i++ {
		f.World[i].Visibility = 0.9
	}
	assert.True(t, gate.Accept(f))

	f.World[9].Visibility = 0.2
	assert.False(t, gate.Accept(f))
}

func TestReplayFile(t *testing.T) {
	t.Parallel()

	good := testutil.NewPoseFrame(0.9, 1)
	gated := testutil.NewPoseFrame(0.1, 2)

	var b strings.Builder
	b.Write(frameLine(t, good))
	b.WriteString("\n")
	b.WriteString("garbage line\n")
	b.Write(frameLine(t, gated))
	b.WriteString("\n")

	path := filepath.Join(t.TempDir(), "frames.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))

	stats := NewFrameStats()
	var delivered []*pose.Frame
	sink := FrameSinkFunc(func(f *pose.Frame) { delivered = append(delivered, f) })

	err := ReplayFile(path, QualityGate{MinVisible: 10, Threshold: 0.5}, stats, sink)
	require.NoError(t, err)

	require.Len(t, delivered, 1)
	assert.Equal(t, int64(1), delivered[0].UnixNanos)

	received, accepted, g, malformed, _ := stats.Snapshot()
	assert.Equal(t, uint64(3), received)
	assert.Equal(t, uint64(1), accepted)
	assert.Equal(t, uint64(1), g)
	assert.Equal(t, uint64(1), malformed)
}

func TestReplayFileMissing(t *testing.T) {
	t.Parallel()

	err := ReplayFile("/nonexistent/frames.ndjson", QualityGate{}, nil, nil)
	assert.Error(t, err)
}
