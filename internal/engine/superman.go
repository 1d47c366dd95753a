package engine

import (
	"github.com/formsense/repcoach/internal/pose"
)

// Form metric names for the superman hold.
const (
	MetricLimbSymmetry = "limb_symmetry"
	MetricArmExtension = "arm_extension"
)

// supermanClassifier recognises the prone back-extension lift. "Up" is the
// arched phase: a flat body reads a near-straight extension angle and votes
// down, so the primary mapping is inverted.
type supermanClassifier struct {
	baseClassifier
	cal supermanCalibration
}

func newSupermanClassifier(window int) *supermanClassifier {
	return &supermanClassifier{
		baseClassifier: newBase(Superman, window),
		cal:            supermanCalibr,
	}
}

// Classify derives the up-probability from the body arch angle plus ankle
// elevation above the hip baseline.
func (c *supermanClassifier) Classify(f *pose.Frame) Probabilities {
	side := pose.DominantSide(f)
	shoulder, _, _ := armJoints(side)
	hip, _, ankle := legJoints(side)

	if !visible(f, c.cal.MinVisibility, shoulder, hip, ankle) {
		return c.neutral()
	}

	// Primary: body extension angle, inverted. Flat reads ~FlatDeg.
	angle := pose.Angle(f.World[shoulder], f.World[hip], f.World[ankle])
	primary := sharpen(1 - pose.Normalize(angle, c.cal.ArchedDeg, c.cal.FlatDeg))

	// Secondary: how far the ankles rise above the hip line.
	secondary := primary
	if torso := torsoLength(f); torso > 0 {
		lift := f.Image[hip].Y - f.Image[ankle].Y // image Y grows downward
		if lift < 0 {
			lift = 0
		}
		secondary = pose.Normalize(lift/torso, c.cal.LiftLowRatio, c.cal.LiftHighRatio)
	}

	up := c.cal.PrimaryWeight*primary + c.cal.LiftWeight*secondary
	return c.emit(up)
}

// FormMetrics scores left/right lift symmetry and arm extension.
func (c *supermanClassifier) FormMetrics(f *pose.Frame) map[string]float64 {
	m := baseMetrics(f)

	// Limb symmetry: both ankles should lift to the same height.
	m[MetricLimbSymmetry] = neutralMetric
	torso := torsoLength(f)
	if torso > 0 && visible(f, c.cal.MinVisibility, pose.LeftAnkle, pose.RightAnkle) {
		diff := pose.VerticalDistance(f.Image[pose.LeftAnkle], f.Image[pose.RightAnkle]) / torso
		m[MetricLimbSymmetry] = 1 - pose.Normalize(diff, 0.05, 0.3)
	}

	// Arm extension: arms reach forward, elbows near straight.
	m[MetricArmExtension] = neutralMetric
	side := pose.DominantSide(f)
	shoulder, elbow, wrist := armJoints(side)
	if visible(f, c.cal.MinVisibility, shoulder, elbow, wrist) {
		angle := pose.Angle(f.World[shoulder], f.World[elbow], f.World[wrist])
		m[MetricArmExtension] = pose.Normalize(angle, 120, 175)
	}

	return m
}
