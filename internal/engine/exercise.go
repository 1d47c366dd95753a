package engine

import (
	"fmt"

	"github.com/formsense/repcoach/internal/pose"
)

// Exercise identifies an exercise variant. The set is closed: each variant
// carries its own hand-tuned calibration table and classifier strategy.
type Exercise string

const (
	PushupStandard Exercise = "pushup"
	PushupKnee     Exercise = "pushup_knee"
	PushupWall     Exercise = "pushup_wall"
	PushupIncline  Exercise = "pushup_incline"
	PushupDecline  Exercise = "pushup_decline"
	PushupDiamond  Exercise = "pushup_diamond"
	PushupWide     Exercise = "pushup_wide"

	SquatStandard   Exercise = "squat"
	SquatSumo       Exercise = "squat_sumo"
	SquatSplitLeft  Exercise = "squat_split_left"
	SquatSplitRight Exercise = "squat_split_right"

	Crunch        Exercise = "crunch"
	CrunchReverse Exercise = "crunch_reverse"
	CrunchDouble  Exercise = "crunch_double"

	Superman Exercise = "superman"
)

// Exercises lists every supported variant in a stable order.
var Exercises = []Exercise{
	PushupStandard, PushupKnee, PushupWall, PushupIncline,
	PushupDecline, PushupDiamond, PushupWide,
	SquatStandard, SquatSumo, SquatSplitLeft, SquatSplitRight,
	Crunch, CrunchReverse, CrunchDouble,
	Superman,
}

// ParseExercise validates and returns the Exercise for a wire name.
func ParseExercise(name string) (Exercise, error) {
	for _, ex := range Exercises {
		if string(ex) == name {
			return ex, nil
		}
	}
	return "", fmt.Errorf("unknown exercise %q", name)
}

// Classifier is the per-frame phase classifier for one exercise variant.
//
// Classify consumes one landmark frame and returns smoothed up/down phase
// probabilities. FormMetrics computes named quality indicators in [0,1]
// (1.0 = ideal) for the same frame. Neither ever fails: insufficient
// tracking quality degrades to neutral values (0.5) instead of erroring,
// because the classifier runs once per camera frame and must never halt the
// pipeline.
type Classifier interface {
	// Exercise returns the variant this classifier was built for.
	Exercise() Exercise

	// Classify returns smoothed phase probabilities for the frame.
	Classify(f *pose.Frame) Probabilities

	// FormMetrics returns named form-quality scores in [0,1] for the frame.
	// The overall_visibility metric is always present.
	FormMetrics(f *pose.Frame) map[string]float64

	// WindowLen reports the current smoothing window fill, for introspection.
	WindowLen() int

	// Reset clears the smoothing window.
	Reset()
}

// NewClassifier constructs the classifier strategy for an exercise variant
// with the given smoothing window size.
func NewClassifier(ex Exercise, smoothingWindow int) (Classifier, error) {
	switch ex {
	case PushupStandard, PushupKnee, PushupWall, PushupIncline,
		PushupDecline, PushupDiamond, PushupWide:
		return newPushupClassifier(ex, smoothingWindow), nil
	case SquatStandard, SquatSumo, SquatSplitLeft, SquatSplitRight:
		return newSquatClassifier(ex, smoothingWindow), nil
	case Crunch, CrunchReverse, CrunchDouble:
		return newCrunchClassifier(ex, smoothingWindow), nil
	case Superman:
		return newSupermanClassifier(smoothingWindow), nil
	default:
		return nil, fmt.Errorf("unknown exercise %q", ex)
	}
}

// MetricOverallVisibility is the form metric present for every variant: the
// mean visibility across all world landmarks.
const MetricOverallVisibility = "overall_visibility"

// neutralMetric is the per-metric fallback when required landmarks are
// unavailable. Metrics are never omitted, only neutralised.
const neutralMetric = 0.5
