package engine

import (
	"math"

	"github.com/formsense/repcoach/internal/pose"
)

// Form metric names shared by the push-up family.
const (
	MetricBodyAlignment = "body_alignment"
	MetricHandWidth     = "hand_width"
	MetricElbowSymmetry = "elbow_symmetry"
)

// pushupClassifier covers the whole push-up family; the calibration table
// encodes the per-variant differences.
type pushupClassifier struct {
	baseClassifier
	cal pushupCalibration
}

func newPushupClassifier(ex Exercise, window int) *pushupClassifier {
	return &pushupClassifier{
		baseClassifier: newBase(ex, window),
		cal:            pushupCalibrations[ex],
	}
}

// Classify derives the up-probability from the dominant-side elbow angle,
// corroborated by how far the shoulder sits above the wrist relative to
// torso length.
func (c *pushupClassifier) Classify(f *pose.Frame) Probabilities {
	side := pose.DominantSide(f)
	shoulder, elbow, wrist := armJoints(side)

	if !visible(f, c.cal.MinVisibility, shoulder, elbow, wrist) {
		return c.neutral()
	}

	// Primary: elbow flexion. Saturates to up at ElbowUpDeg, to down at
	// ElbowDownDeg, quadratic in between.
	angle := pose.Angle(f.World[shoulder], f.World[elbow], f.World[wrist])
	primary := sharpen(pose.Normalize(angle, c.cal.ElbowDownDeg, c.cal.ElbowUpDeg))

	// Secondary: shoulder height above the wrist, scale-relative. Inverted:
	// in the recorded calibration data a large ratio tracks the bottom
	// phase, not the top.
	secondary := primary // fall back to agreeing with the primary
	if torso := torsoLength(f); torso > 0 {
		ratio := pose.VerticalDistance(f.Image[shoulder], f.Image[wrist]) / torso
		secondary = 1 - pose.Normalize(ratio, c.cal.HeightLowRatio, c.cal.HeightHighRatio)
	}

	up := c.cal.PrimaryWeight*primary + c.cal.HeightWeight*secondary
	return c.emit(up)
}

// FormMetrics scores body alignment against a straight line, hand spacing
// against the variant's ideal, and left/right elbow symmetry.
func (c *pushupClassifier) FormMetrics(f *pose.Frame) map[string]float64 {
	m := baseMetrics(f)

	side := pose.DominantSide(f)
	shoulder, _, _ := armJoints(side)
	hip, knee, ankle := legJoints(side)

	anchor := ankle
	if c.cal.AlignToKnee {
		anchor = knee
	}

	// Body alignment: the shoulder-hip-anchor angle of a straight plank.
	m[MetricBodyAlignment] = neutralMetric
	if visible(f, c.cal.MinVisibility, shoulder, hip, anchor) {
		angle := pose.Angle(f.World[shoulder], f.World[hip], f.World[anchor])
		m[MetricBodyAlignment] = pose.Normalize(angle, c.cal.IdealAlignmentDeg-40, c.cal.IdealAlignmentDeg)
	}

	// Hand width: wrist spacing relative to shoulder width, scored against
	// the variant ideal (diamond narrow, wide shoulder-and-a-half).
	m[MetricHandWidth] = neutralMetric
	if visible(f, c.cal.MinVisibility,
		pose.LeftShoulder, pose.RightShoulder, pose.LeftWrist, pose.RightWrist) {
		shoulderWidth := math.Abs(f.Image[pose.LeftShoulder].X - f.Image[pose.RightShoulder].X)
		handWidth := math.Abs(f.Image[pose.LeftWrist].X - f.Image[pose.RightWrist].X)
		if shoulderWidth > 0 {
			m[MetricHandWidth] = closeness(handWidth/shoulderWidth, c.cal.IdealHandRatio, 0.8)
		}
	}

	// Elbow symmetry: both arms should flex together.
	m[MetricElbowSymmetry] = neutralMetric
	if visible(f, c.cal.MinVisibility,
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist) {
		left := pose.Angle(f.World[pose.LeftShoulder], f.World[pose.LeftElbow], f.World[pose.LeftWrist])
		right := pose.Angle(f.World[pose.RightShoulder], f.World[pose.RightElbow], f.World[pose.RightWrist])
		m[MetricElbowSymmetry] = closeness(left-right, 0, 45)
	}

	return m
}
