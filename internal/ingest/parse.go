// Package ingest receives pose landmark frames from external trackers and
// feeds them to the counting pipeline. Frames arrive as newline-delimited
// JSON over UDP or a serial link; each line is one complete frame.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/formsense/repcoach/internal/pose"
)

// FrameSink receives decoded frames that passed the quality gate.
type FrameSink interface {
	HandleFrame(f *pose.Frame)
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(f *pose.Frame)

func (fn FrameSinkFunc) HandleFrame(f *pose.Frame) { fn(f) }

// wireFrame is the NDJSON line schema emitted by the pose trackers.
type wireFrame struct {
	UnixNanos int64           `json:"unix_nanos"`
	World     []pose.Landmark `json:"world"`
	Image     []pose.Landmark `json:"image"`
}

// ParseFrame decodes one NDJSON line into a validated frame. Trackers that
// omit the image-space landmarks get them mirrored from world space, so
// scale-relative features still work on a single-stream tracker.
func ParseFrame(line []byte) (*pose.Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("malformed frame line: %w", err)
	}

	f := &pose.Frame{
		World:     w.World,
		Image:     w.Image,
		UnixNanos: w.UnixNanos,
	}
	if len(f.Image) == 0 && len(f.World) == pose.NumLandmarks {
		f.Image = f.World
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// QualityGate drops frames with too little tracking signal to be worth
// classifying. Dropped frames are counted, not errored: a person walking out
// of the camera view is normal operation.
type QualityGate struct {
	MinVisible int     // landmarks that must clear Threshold
	Threshold  float64 // per-landmark visibility floor
}

// Accept reports whether the frame carries enough visible landmarks.
func (g QualityGate) Accept(f *pose.Frame) bool {
	return f.VisibleCount(g.Threshold) >= g.MinVisible
}
