package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/formsense/repcoach/internal/monitoring"
)

// maxLineBytes bounds a single NDJSON frame line on the serial link.
const maxLineBytes = 64 * 1024

// SerialReader streams NDJSON frames from a serial-attached tracker, one
// frame per line. Embedded trackers without a network stack ship frames this
// way.
type SerialReader struct {
	port  io.ReadCloser
	gate  QualityGate
	stats *FrameStats
	sink  FrameSink
}

// OpenSerialReader opens the serial device and wraps it in a SerialReader.
func OpenSerialReader(path string, baud int, gate QualityGate, stats *FrameStats, sink FrameSink) (*SerialReader, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return NewSerialReader(port, gate, stats, sink), nil
}

// NewSerialReader wraps an already-open byte stream. Split out from
// OpenSerialReader so tests can feed it a pipe instead of hardware.
func NewSerialReader(port io.ReadCloser, gate QualityGate, stats *FrameStats, sink FrameSink) *SerialReader {
	if stats == nil {
		stats = NewFrameStats()
	}
	return &SerialReader{port: port, gate: gate, stats: stats, sink: sink}
}

// Start reads frame lines until ctx is cancelled or the stream ends. Partial
// or garbled lines are counted and skipped; the stream keeps going.
func (r *SerialReader) Start(ctx context.Context) error {
	defer r.port.Close()

	// Closing the port from a watcher goroutine unblocks the read loop on
	// cancellation.
	go func() {
		<-ctx.Done()
		r.port.Close()
	}()

	monitoring.Logf("serial frame reader started")

	scanner := bufio.NewScanner(r.port)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		r.handleLine(line)
	}

	if ctx.Err() != nil {
		monitoring.Logf("serial frame reader stopping")
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serial read failed: %w", err)
	}
	return nil
}

func (r *SerialReader) handleLine(line []byte) {
	r.stats.addReceived(len(line))

	f, err := ParseFrame(line)
	if err != nil {
		r.stats.addMalformed()
		return
	}

	// Serial trackers often omit timestamps; stamp on arrival so the
	// counter's refractory logic still has a timeline.
	if f.UnixNanos == 0 {
		f.UnixNanos = time.Now().UnixNano()
	}

	if !r.gate.Accept(f) {
		r.stats.addGated()
		return
	}

	r.stats.addAccepted()
	if r.sink != nil {
		r.sink.HandleFrame(f)
	}
}
