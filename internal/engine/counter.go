package engine

import (
	"time"

	"github.com/google/uuid"
)

// Counter is the debounced repetition state machine. It consumes smoothed
// phase probabilities frame by frame and emits a Repetition exactly once per
// accepted Down→Up transition.
//
// A single-threshold crossing is too noisy to count reps: the per-frame
// probability oscillates near phase boundaries. The counter therefore
// requires StabilityFrames consecutive identical votes before accepting a
// state change, and a MinRepInterval refractory gap between counted reps.
// Together these reject landmark jitter and rapid double-counts while
// staying responsive to genuinely fast repetitions.
//
// The counter runs on frame timestamps, not the wall clock, so recorded
// sessions replay deterministically.
type Counter struct {
	cfg CountingConfig

	state     State // settled phase; initial Up
	target    State // momentary vote being debounced ("" when none)
	stability int   // consecutive frames voting for target

	totalReps       int
	lastRepNanos    int64 // timestamp of the last counted rep
	cycleStartNanos int64 // timestamp of the last accepted Up→Down

	history   []Repetition
	endpoints []EndpointSample
	lastRep   *Repetition
}

// NewCounter creates a Counter with the given configuration. Initial state
// is Up: every exercise starts from its extended position.
func NewCounter(cfg CountingConfig) *Counter {
	return &Counter{
		cfg:   cfg,
		state: StateUp,
	}
}

// targetFor derives the momentary vote for a frame. Neither probability
// clearing the threshold reads as in-motion.
func (c *Counter) targetFor(p Probabilities) State {
	switch {
	case p.Up > c.cfg.ProbabilityThreshold:
		return StateUp
	case p.Down > c.cfg.ProbabilityThreshold:
		return StateDown
	default:
		return StateTransitioning
	}
}

// Process advances the state machine by one frame. The returned Repetition
// is non-nil exactly when this frame completed a rep.
func (c *Counter) Process(p Probabilities, metrics map[string]float64, unixNanos int64) *Repetition {
	target := c.targetFor(p)

	// A flipped vote restarts the debounce window.
	if target != c.target {
		c.target = target
		c.stability = 1
		return nil
	}
	c.stability++

	if c.stability < c.cfg.StabilityFrames || target == c.state {
		return nil
	}

	// Refractory guard: suppress over-fast transitions entirely. The vote
	// keeps accumulating, so the transition is retried once the interval
	// has elapsed.
	if c.lastRepNanos > 0 && unixNanos-c.lastRepNanos < int64(c.cfg.MinRepInterval) {
		return nil
	}

	prev := c.state
	c.state = target
	c.stability = 0
	c.target = ""

	if target == StateTransitioning {
		return nil
	}

	// Quality statistics sample only stable endpoints; mid-motion frames
	// would contaminate the averages.
	c.recordEndpoint(target, p, metrics, unixNanos)

	if prev == StateUp && target == StateDown {
		c.cycleStartNanos = unixNanos
		return nil
	}

	if prev == StateDown && target == StateUp {
		return c.completeRep(p, metrics, unixNanos)
	}

	return nil
}

// completeRep builds, records and returns the Repetition for an accepted
// Down→Up transition.
func (c *Counter) completeRep(p Probabilities, metrics map[string]float64, unixNanos int64) *Repetition {
	c.totalReps++
	c.lastRepNanos = unixNanos

	var duration time.Duration
	if c.cycleStartNanos > 0 {
		duration = time.Duration(unixNanos - c.cycleStartNanos)
	}

	confidence := p.Confidence()
	formScore := FormScore(metrics)

	rep := Repetition{
		ID:         uuid.NewString(),
		Number:     c.totalReps,
		UnixNanos:  unixNanos,
		Duration:   duration,
		Grade:      GradeFor(CompositeScore(formScore, confidence)),
		Confidence: confidence,
		FormScore:  formScore,
		Metrics:    copyMetrics(metrics),
	}

	c.history = append(c.history, rep)
	if len(c.history) > c.cfg.MaxHistory {
		c.history = c.history[1:]
	}
	c.lastRep = &rep
	return &rep
}

func (c *Counter) recordEndpoint(state State, p Probabilities, metrics map[string]float64, unixNanos int64) {
	c.endpoints = append(c.endpoints, EndpointSample{
		State:      state,
		UnixNanos:  unixNanos,
		Confidence: p.Confidence(),
		Metrics:    copyMetrics(metrics),
	})
	if len(c.endpoints) > MaxEndpointSamples {
		c.endpoints = c.endpoints[1:]
	}
}

// Reset clears counts, history and debounce state but keeps configuration.
func (c *Counter) Reset() {
	c.state = StateUp
	c.target = ""
	c.stability = 0
	c.totalReps = 0
	c.lastRepNanos = 0
	c.cycleStartNanos = 0
	c.history = nil
	c.endpoints = nil
	c.lastRep = nil
}

// State returns the settled phase.
func (c *Counter) State() State { return c.state }

// TotalReps returns the number of counted repetitions this session.
func (c *Counter) TotalReps() int { return c.totalReps }

// LastRep returns the most recent repetition, or nil before the first.
func (c *Counter) LastRep() *Repetition { return c.lastRep }

// History returns a copy of the retained repetition records.
func (c *Counter) History() []Repetition {
	out := make([]Repetition, len(c.history))
	copy(out, c.history)
	return out
}

// Endpoints returns a copy of the stable-endpoint samples.
func (c *Counter) Endpoints() []EndpointSample {
	out := make([]EndpointSample, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

func copyMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
