// Package engine implements the real-time exercise repetition counting
// engine: per-exercise classifiers over pose landmark frames, a debounced
// repetition state machine, and per-repetition quality scoring.
//
// The engine is a pure consumer of an externally delivered frame stream. It
// performs no I/O, never blocks, and degrades to neutral values on poor
// tracking instead of erroring: momentary tracking loss is the expected
// common case in a live camera feed and must not interrupt counting.
package engine

import (
	"math"
	"time"
)

// State represents the debounced, currently-settled phase of a movement.
type State string

const (
	StateUp            State = "up"
	StateDown          State = "down"
	StateTransitioning State = "transitioning"
)

// Probabilities is one classifier output: complementary up/down phase
// probabilities. Down is always 1 - Up.
type Probabilities struct {
	Up   float64 `json:"up"`
	Down float64 `json:"down"`
}

// Neutral is the output for frames with insufficient tracking quality.
var Neutral = Probabilities{Up: 0.5, Down: 0.5}

// Confidence maps the classifier's certainty range [0.5, 1.0] onto [0, 1].
func (p Probabilities) Confidence() float64 {
	return (math.Max(p.Up, p.Down) - 0.5) * 2
}

// QualityGrade is the four-level per-repetition quality classification.
type QualityGrade string

const (
	GradeExcellent QualityGrade = "excellent"
	GradeGood      QualityGrade = "good"
	GradeFair      QualityGrade = "fair"
	GradePoor      QualityGrade = "poor"
)

// Repetition is an immutable record created exactly once per completed
// repetition. It is appended to the session history and never mutated.
type Repetition struct {
	ID         string             `json:"id"`
	Number     int                `json:"number"`
	UnixNanos  int64              `json:"unix_nanos"`
	Duration   time.Duration      `json:"duration_ns"`
	Grade      QualityGrade       `json:"grade"`
	Confidence float64            `json:"confidence"`
	FormScore  float64            `json:"form_score"`
	Metrics    map[string]float64 `json:"metrics"`
}

// EndpointSample is a quality/confidence sample captured when the state
// machine settles into a stable (non-transitioning) phase. Sampling only at
// stable endpoints keeps in-motion noise out of the averages.
type EndpointSample struct {
	State      State
	UnixNanos  int64
	Confidence float64
	Metrics    map[string]float64
}

// CountingState is the read model published after every processed frame.
// It is an immutable snapshot; the History slice is shared between snapshots
// but individual Repetition records are never mutated after creation.
type CountingState struct {
	Exercise      Exercise     `json:"exercise"`
	TotalReps     int          `json:"total_reps"`
	State         State        `json:"state"`
	Confidence    float64      `json:"confidence"`
	LastRep       *Repetition  `json:"last_rep,omitempty"`
	History       []Repetition `json:"history"`
	AvgFormScore  float64      `json:"avg_form_score"`
	AvgQuality    float64      `json:"avg_quality"`
	FramesSeen    int64        `json:"frames_seen"`
	LastFrameTime int64        `json:"last_frame_unix_nanos"`
}
