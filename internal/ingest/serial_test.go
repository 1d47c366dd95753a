package ingest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formsense/repcoach/internal/pose"
	"github.com/formsense/repcoach/internal/testutil"
)

func TestSerialReaderDeliversFrames(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	stats := NewFrameStats()

	frames := make(chan *pose.Frame, 4)
	sink := FrameSinkFunc(func(f *pose.Frame) { frames <- f })

	r := NewSerialReader(pr, QualityGate{MinVisible: 10, Threshold: 0.5}, stats, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	line := frameLine(t, testutil.NewPoseFrame(0.9, 77))
	_, err := pw.Write(append(line, '\n'))
	require.NoError(t, err)

	select {
	case f := <-frames:
		assert.Equal(t, int64(77), f.UnixNanos)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}

	// Closing the write side ends the stream cleanly.
	pw.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestSerialReaderStampsMissingTimestamps(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	frames := make(chan *pose.Frame, 1)
	r := NewSerialReader(pr, QualityGate{}, nil,
		FrameSinkFunc(func(f *pose.Frame) { frames <- f }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	line := frameLine(t, testutil.NewPoseFrame(0.9, 0))
	_, err := pw.Write(append(line, '\n'))
	require.NoError(t, err)

	select {
	case f := <-frames:
		assert.NotZero(t, f.UnixNanos)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
	pw.Close()
}

func TestSerialReaderSkipsGarbage(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	stats := NewFrameStats()
	frames := make(chan *pose.Frame, 1)
	r := NewSerialReader(pr, QualityGate{}, stats,
		FrameSinkFunc(func(f *pose.Frame) { frames <- f }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	_, err := pw.Write([]byte("### boot banner ###\n"))
	require.NoError(t, err)
	line := frameLine(t, testutil.NewPoseFrame(0.9, 5))
	_, err = pw.Write(append(line, '\n'))
	require.NoError(t, err)

	select {
	case f := <-frames:
		assert.Equal(t, int64(5), f.UnixNanos)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}

	_, _, _, malformed, _ := stats.Snapshot()
	assert.Equal(t, uint64(1), malformed)
	pw.Close()
}
