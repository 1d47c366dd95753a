package engine

import (
	"math"

	"github.com/formsense/repcoach/internal/pose"
)

// Form metric names shared by the crunch family.
const (
	MetricShoulderSymmetry = "shoulder_symmetry"
	MetricKneePosition     = "knee_position"
	MetricHipStability     = "hip_stability"
)

// crunchClassifier covers crunch, reverse crunch and double crunch. Both of
// its signals are inverted: the raw hip angle and the raw lift gap are LARGE
// in the extended (down) phase and shrink as the body curls up.
type crunchClassifier struct {
	baseClassifier
	cal crunchCalibration
}

func newCrunchClassifier(ex Exercise, window int) *crunchClassifier {
	return &crunchClassifier{
		baseClassifier: newBase(ex, window),
		cal:            crunchCalibrations[ex],
	}
}

// Classify derives the up-probability from the shoulder-hip-knee curl angle
// plus the shrinking gap between upper and lower body.
func (c *crunchClassifier) Classify(f *pose.Frame) Probabilities {
	side := pose.DominantSide(f)
	shoulder, _, _ := armJoints(side)
	hip, knee, ankle := legJoints(side)

	if !visible(f, c.cal.MinVisibility, shoulder, hip, knee) {
		return c.neutral()
	}

	// Primary: hip curl angle, inverted. A flat torso reads ~HipExtendedDeg
	// and votes down.
	angle := pose.Angle(f.World[shoulder], f.World[hip], f.World[knee])
	primary := sharpen(1 - pose.Normalize(angle, c.cal.HipCurledDeg, c.cal.HipExtendedDeg))

	// Secondary: the tracked lift gap, also inverted. Crunches track the
	// nose-to-knee gap; reverse and double crunches track the ankle-to-hip
	// reach of the raised legs.
	secondary := primary
	if torso := torsoLength(f); torso > 0 {
		var gap float64
		tracked := true
		if c.cal.TrackAnkles {
			if f.World[ankle].Visibility >= c.cal.MinVisibility {
				gap = pose.VerticalDistance(f.Image[ankle], f.Image[hip])
			} else {
				tracked = false
			}
		} else {
			if f.World[pose.Nose].Visibility >= c.cal.MinVisibility {
				gap = pose.VerticalDistance(f.Image[pose.Nose], f.Image[knee])
			} else {
				tracked = false
			}
		}
		if tracked {
			secondary = 1 - pose.Normalize(gap/torso, c.cal.LiftLowRatio, c.cal.LiftHighRatio)
		}
	}

	up := c.cal.PrimaryWeight*primary + c.cal.LiftWeight*secondary
	return c.emit(up)
}

// FormMetrics scores shoulder-lift symmetry, knee placement, and hip
// stability on the mat.
func (c *crunchClassifier) FormMetrics(f *pose.Frame) map[string]float64 {
	m := baseMetrics(f)

	// Shoulder symmetry: both shoulders should curl up together.
	m[MetricShoulderSymmetry] = neutralMetric
	torso := torsoLength(f)
	if torso > 0 && visible(f, c.cal.MinVisibility, pose.LeftShoulder, pose.RightShoulder) {
		diff := pose.VerticalDistance(f.Image[pose.LeftShoulder], f.Image[pose.RightShoulder]) / torso
		m[MetricShoulderSymmetry] = 1 - pose.Normalize(diff, 0.05, 0.35)
	}

	// Knee position: standard crunches keep the knees bent near a right
	// angle; reverse variants pull them towards the chest.
	idealKnee := 90.0
	if c.cal.TrackAnkles {
		idealKnee = 70.0
	}
	m[MetricKneePosition] = neutralMetric
	side := pose.DominantSide(f)
	hip, knee, ankle := legJoints(side)
	if visible(f, c.cal.MinVisibility, hip, knee, ankle) {
		angle := pose.Angle(f.World[hip], f.World[knee], f.World[ankle])
		m[MetricKneePosition] = closeness(angle, idealKnee, 60)
	}

	// Hip stability: hips should stay level, not rock sideways.
	m[MetricHipStability] = neutralMetric
	if torso > 0 && visible(f, c.cal.MinVisibility, pose.LeftHip, pose.RightHip) {
		tilt := math.Abs(f.Image[pose.LeftHip].Y-f.Image[pose.RightHip].Y) / torso
		m[MetricHipStability] = 1 - pose.Normalize(tilt, 0.04, 0.3)
	}

	return m
}
