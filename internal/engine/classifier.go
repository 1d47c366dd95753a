package engine

import (
	"math"

	"github.com/formsense/repcoach/internal/pose"
)

// baseClassifier carries the behaviour every variant shares: identity,
// probability smoothing, and the neutral-output path.
type baseClassifier struct {
	exercise Exercise
	smooth   *smoother
}

func newBase(ex Exercise, window int) baseClassifier {
	return baseClassifier{exercise: ex, smooth: newSmoother(window)}
}

func (b *baseClassifier) Exercise() Exercise { return b.exercise }

func (b *baseClassifier) WindowLen() int { return b.smooth.Len() }

func (b *baseClassifier) Reset() { b.smooth.Reset() }

// emit folds a raw up-probability into the smoothing window and returns the
// smoothed pair. Raw values are clamped so later weighted sums cannot push a
// probability out of [0,1].
func (b *baseClassifier) emit(up float64) Probabilities {
	up = clamp01(up)
	return b.smooth.Push(Probabilities{Up: up, Down: 1 - up})
}

// neutral pushes the neutral pair through the window, so a run of
// low-visibility frames converges the output back to {0.5, 0.5}.
func (b *baseClassifier) neutral() Probabilities {
	return b.smooth.Push(Neutral)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sharpen applies the quadratic response the primary angle signals use: it
// suppresses the ambiguous mid-range so the vote commits faster near the
// phase boundaries.
func sharpen(n float64) float64 { return n * n }

// visible reports whether every listed world landmark meets the visibility
// threshold.
func visible(f *pose.Frame, min float64, joints ...int) bool {
	for _, j := range joints {
		if f.World[j].Visibility < min {
			return false
		}
	}
	return true
}

// closeness scores how near value is to ideal, reaching 0 at tolerance away.
func closeness(value, ideal, tolerance float64) float64 {
	if tolerance <= 0 {
		return neutralMetric
	}
	return clamp01(1 - math.Abs(value-ideal)/tolerance)
}

// armJoints returns the shoulder/elbow/wrist indices for a body side.
func armJoints(side pose.Side) (shoulder, elbow, wrist int) {
	if side == pose.LeftSide {
		return pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist
	}
	return pose.RightShoulder, pose.RightElbow, pose.RightWrist
}

// legJoints returns the hip/knee/ankle indices for a body side.
func legJoints(side pose.Side) (hip, knee, ankle int) {
	if side == pose.LeftSide {
		return pose.LeftHip, pose.LeftKnee, pose.LeftAnkle
	}
	return pose.RightHip, pose.RightKnee, pose.RightAnkle
}

// torsoLength returns the image-space shoulder-to-hip midline distance, the
// scale reference for all vertical-distance ratios. Returns 0 when the torso
// is effectively untracked.
func torsoLength(f *pose.Frame) float64 {
	shoulderMid := pose.Midpoint(f.Image[pose.LeftShoulder], f.Image[pose.RightShoulder])
	hipMid := pose.Midpoint(f.Image[pose.LeftHip], f.Image[pose.RightHip])
	if shoulderMid.Visibility < 0.5 || hipMid.Visibility < 0.5 {
		return 0
	}
	dx := shoulderMid.X - hipMid.X
	dy := shoulderMid.Y - hipMid.Y
	return math.Hypot(dx, dy)
}

// baseMetrics starts every variant's metric map with overall visibility.
func baseMetrics(f *pose.Frame) map[string]float64 {
	return map[string]float64{
		MetricOverallVisibility: clamp01(f.MeanVisibility()),
	}
}
