package engine

import (
	"fmt"
	"time"
)

// Constants for counter configuration.
const (
	// DefaultProbabilityThreshold is the probability above which a frame
	// votes for a phase.
	DefaultProbabilityThreshold = 0.65
	// DefaultStabilityFrames is the number of consecutive identical votes
	// required before a state change is accepted.
	DefaultStabilityFrames = 3
	// DefaultMinRepInterval is the refractory period between counted reps.
	DefaultMinRepInterval = 800 * time.Millisecond
	// DefaultQualityThreshold is the composite score below which a rep is
	// flagged in session statistics.
	DefaultQualityThreshold = 0.6
	// DefaultMaxHistory is the number of repetition records retained.
	DefaultMaxHistory = 100
	// DefaultSmoothingWindow is the classifier probability smoothing span.
	DefaultSmoothingWindow = 5
	// MaxEndpointSamples caps the stable-endpoint sample queue.
	MaxEndpointSamples = 50
	// ConfidenceWindow is the span of the published recent-confidence average.
	ConfidenceWindow = 30
)

// CountingConfig holds the immutable tunables of a counting session. It is
// supplied at construction; changing exercise requires a new classifier +
// counter pair, not reconfiguration in place.
type CountingConfig struct {
	ProbabilityThreshold float64       // Vote threshold for up/down targets
	StabilityFrames      int           // Consecutive identical votes to accept a transition
	MinRepInterval       time.Duration // Anti-double-count refractory period
	QualityThreshold     float64       // Composite score considered acceptable
	MaxHistory           int           // Rep records kept in session history
	SmoothingWindow      int           // Classifier probability window size
}

// DefaultCountingConfig returns production-default counter parameters.
func DefaultCountingConfig() CountingConfig {
	return CountingConfig{
		ProbabilityThreshold: DefaultProbabilityThreshold,
		StabilityFrames:      DefaultStabilityFrames,
		MinRepInterval:       DefaultMinRepInterval,
		QualityThreshold:     DefaultQualityThreshold,
		MaxHistory:           DefaultMaxHistory,
		SmoothingWindow:      DefaultSmoothingWindow,
	}
}

// Validate checks the configuration values are usable.
func (c CountingConfig) Validate() error {
	if c.ProbabilityThreshold <= 0.5 || c.ProbabilityThreshold >= 1 {
		return fmt.Errorf("probability_threshold must be in (0.5, 1), got %f", c.ProbabilityThreshold)
	}
	if c.StabilityFrames < 1 {
		return fmt.Errorf("stability_frames must be >= 1, got %d", c.StabilityFrames)
	}
	if c.MinRepInterval < 0 {
		return fmt.Errorf("min_rep_interval must be non-negative, got %v", c.MinRepInterval)
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("max_history must be >= 1, got %d", c.MaxHistory)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be >= 1, got %d", c.SmoothingWindow)
	}
	return nil
}
