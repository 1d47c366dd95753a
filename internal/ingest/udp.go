package ingest

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/formsense/repcoach/internal/monitoring"
)

// UDPListener receives one NDJSON frame per datagram. Pose trackers on the
// same machine or LAN emit at camera rate, so datagram loss shows up as a
// skipped frame, which the engine already tolerates.
type UDPListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	gate        QualityGate
	stats       *FrameStats
	sink        FrameSink
	conn        *net.UDPConn
}

// UDPListenerConfig contains configuration options for the UDP listener.
type UDPListenerConfig struct {
	Address     string
	RcvBuf      int
	LogInterval time.Duration
	Gate        QualityGate
	Stats       *FrameStats
	Sink        FrameSink
}

// NewUDPListener creates a UDP listener with the provided configuration.
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	stats := config.Stats
	if stats == nil {
		stats = NewFrameStats()
	}
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	return &UDPListener{
		address:     config.Address,
		rcvBuf:      config.RcvBuf,
		logInterval: logInterval,
		gate:        config.Gate,
		stats:       stats,
		sink:        config.Sink,
	}
}

// Start begins listening for frame datagrams. Blocks until ctx is cancelled
// or the socket fails to open.
func (l *UDPListener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	l.conn = conn
	defer conn.Close()

	if l.rcvBuf > 0 {
		if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
			monitoring.Logf("warning: failed to set UDP receive buffer to %d: %v", l.rcvBuf, err)
		}
	}

	monitoring.Logf("UDP frame listener started on %s", l.address)
	go l.startStatsLogging(ctx)

	// One frame per datagram. 33 landmarks in two coordinate spaces fit
	// comfortably under 16KB of JSON.
	buffer := make([]byte, 16384)

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("UDP frame listener stopping")
			return ctx.Err()
		default:
			// Read deadline keeps the loop responsive to cancellation.
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, addr, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				monitoring.Logf("UDP read error: %v", err)
				continue
			}

			if err := l.handleDatagram(buffer[:n]); err != nil {
				monitoring.Logf("bad frame from %v: %v", addr, err)
			}
		}
	}
}

func (l *UDPListener) handleDatagram(data []byte) error {
	l.stats.addReceived(len(data))

	f, err := ParseFrame(data)
	if err != nil {
		l.stats.addMalformed()
		return err
	}

	if !l.gate.Accept(f) {
		l.stats.addGated()
		return nil
	}

	l.stats.addAccepted()
	if l.sink != nil {
		l.sink.HandleFrame(f)
	}
	return nil
}

func (l *UDPListener) startStatsLogging(ctx context.Context) {
	// An early report avoids a long silence on first run.
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
		l.stats.LogStats()
	}

	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}
