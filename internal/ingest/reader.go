package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ScanFrames reads NDJSON frame lines from r and calls fn for each parseable
// frame. Malformed lines are skipped. fn returning an error stops the scan.
func ScanFrames(r io.Reader, stats *FrameStats, fn func(line []byte) error) error {
	if stats == nil {
		stats = NewFrameStats()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.addReceived(len(line))
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReplayFile replays a recorded NDJSON frame file through the gate and sink,
// in file order. Used by the offline replay tool and by session-level tests.
func ReplayFile(path string, gate QualityGate, stats *FrameStats, sink FrameSink) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open frame file: %w", err)
	}
	defer file.Close()

	if stats == nil {
		stats = NewFrameStats()
	}

	return ScanFrames(file, stats, func(line []byte) error {
		f, err := ParseFrame(line)
		if err != nil {
			stats.addMalformed()
			return nil
		}
		if !gate.Accept(f) {
			stats.addGated()
			return nil
		}
		stats.addAccepted()
		if sink != nil {
			sink.HandleFrame(f)
		}
		return nil
	})
}
