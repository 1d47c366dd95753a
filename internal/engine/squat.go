package engine

import (
	"math"

	"github.com/formsense/repcoach/internal/pose"
)

// Form metric names shared by the squat family.
const (
	MetricKneeTracking      = "knee_tracking"
	MetricStanceWidth       = "stance_width"
	MetricTorsoUpright      = "torso_upright"
	MetricBilateralSymmetry = "bilateral_symmetry"
)

// squatClassifier covers the squat family, including split variants where
// only the calibrated front leg is analysed.
type squatClassifier struct {
	baseClassifier
	cal squatCalibration
}

func newSquatClassifier(ex Exercise, window int) *squatClassifier {
	return &squatClassifier{
		baseClassifier: newBase(ex, window),
		cal:            squatCalibrations[ex],
	}
}

// analysedSide picks the front leg for split variants and the camera-facing
// side otherwise.
func (c *squatClassifier) analysedSide(f *pose.Frame) pose.Side {
	if c.cal.Split {
		return c.cal.FrontSide
	}
	return pose.DominantSide(f)
}

// Classify derives the up-probability from knee extension, corroborated by
// hip height above the ankle relative to leg length.
func (c *squatClassifier) Classify(f *pose.Frame) Probabilities {
	side := c.analysedSide(f)
	hip, knee, ankle := legJoints(side)

	if !visible(f, c.cal.MinVisibility, hip, knee, ankle) {
		return c.neutral()
	}

	// Primary: knee flexion, saturating up at full extension.
	angle := pose.Angle(f.World[hip], f.World[knee], f.World[ankle])
	primary := sharpen(pose.Normalize(angle, c.cal.KneeDownDeg, c.cal.KneeUpDeg))

	// Secondary: hip drop. Hip-to-ankle vertical distance shrinks as the
	// lifter descends, so a large ratio votes up.
	secondary := primary
	if torso := torsoLength(f); torso > 0 {
		ratio := pose.VerticalDistance(f.Image[hip], f.Image[ankle]) / (torso * 2)
		secondary = pose.Normalize(ratio, c.cal.HipLowRatio/2, c.cal.HipHighRatio/2)
	}

	up := c.cal.PrimaryWeight*primary + c.cal.HipWeight*secondary
	return c.emit(up)
}

// FormMetrics scores knee tracking over the foot, stance width against the
// variant ideal, torso uprightness, and left/right knee symmetry.
func (c *squatClassifier) FormMetrics(f *pose.Frame) map[string]float64 {
	m := baseMetrics(f)

	side := c.analysedSide(f)
	_, knee, ankle := legJoints(side)

	// Knee tracking: horizontal drift of the knee past the ankle, relative
	// to torso length.
	m[MetricKneeTracking] = neutralMetric
	torso := torsoLength(f)
	if torso > 0 && visible(f, c.cal.MinVisibility, knee, ankle) {
		drift := math.Abs(f.Image[knee].X-f.Image[ankle].X) / torso
		m[MetricKneeTracking] = 1 - pose.Normalize(drift, 0.1, 0.5)
	}

	// Stance width: ankle spacing relative to shoulder width.
	m[MetricStanceWidth] = neutralMetric
	if visible(f, c.cal.MinVisibility,
		pose.LeftShoulder, pose.RightShoulder, pose.LeftAnkle, pose.RightAnkle) {
		shoulderWidth := math.Abs(f.Image[pose.LeftShoulder].X - f.Image[pose.RightShoulder].X)
		stance := math.Abs(f.Image[pose.LeftAnkle].X - f.Image[pose.RightAnkle].X)
		if shoulderWidth > 0 {
			m[MetricStanceWidth] = closeness(stance/shoulderWidth, c.cal.IdealStanceRatio, 1.0)
		}
	}

	// Torso uprightness: horizontal shoulder-over-hip lean.
	m[MetricTorsoUpright] = neutralMetric
	if torso > 0 && visible(f, c.cal.MinVisibility, pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip) {
		shoulderMid := pose.Midpoint(f.Image[pose.LeftShoulder], f.Image[pose.RightShoulder])
		hipMid := pose.Midpoint(f.Image[pose.LeftHip], f.Image[pose.RightHip])
		lean := math.Abs(shoulderMid.X-hipMid.X) / torso
		m[MetricTorsoUpright] = 1 - pose.Normalize(lean, 0.15, 0.6)
	}

	// Bilateral symmetry: both knees flex together. Split variants load the
	// legs asymmetrically on purpose, so the metric is skipped for them.
	if !c.cal.Split {
		m[MetricBilateralSymmetry] = neutralMetric
		if visible(f, c.cal.MinVisibility,
			pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
			pose.RightHip, pose.RightKnee, pose.RightAnkle) {
			left := pose.Angle(f.World[pose.LeftHip], f.World[pose.LeftKnee], f.World[pose.LeftAnkle])
			right := pose.Angle(f.World[pose.RightHip], f.World[pose.RightKnee], f.World[pose.RightAnkle])
			m[MetricBilateralSymmetry] = closeness(left-right, 0, 40)
		}
	}

	return m
}
