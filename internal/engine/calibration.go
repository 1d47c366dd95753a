package engine

import "github.com/formsense/repcoach/internal/pose"

// Calibration tables for every exercise variant.
//
// The angle cutoffs, signal weights and ideal-form targets below were derived
// empirically from recorded workout data, not from first-principles
// biomechanics. Several secondary signals are intentionally inverted relative
// to naive intuition because the raw measurement was found to correlate with
// the opposite phase. Treat these numbers as calibration constants: tuning
// belongs in recorded-data sweeps, not in code review.

// pushupCalibration drives the push-up family classifier.
type pushupCalibration struct {
	ElbowUpDeg    float64 // elbow angle at/above which the primary signal saturates to up
	ElbowDownDeg  float64 // elbow angle at/below which it saturates to down
	MinVisibility float64 // required visibility on shoulder/elbow/wrist
	PrimaryWeight float64 // elbow-angle signal weight
	HeightWeight  float64 // shoulder-height signal weight

	// Shoulder-to-wrist vertical distance over torso length, saturation
	// bounds of the secondary signal.
	HeightLowRatio  float64
	HeightHighRatio float64

	IdealHandRatio    float64 // wrist spacing / shoulder width for ideal form
	IdealAlignmentDeg float64 // shoulder-hip-anchor angle of a straight body
	AlignToKnee       bool    // knee variant aligns shoulder-hip-knee, not ankle
}

var pushupCalibrations = map[Exercise]pushupCalibration{
	PushupStandard: {
		ElbowUpDeg: 150, ElbowDownDeg: 120, MinVisibility: 0.7,
		PrimaryWeight: 0.7, HeightWeight: 0.3,
		HeightLowRatio: 0.25, HeightHighRatio: 0.9,
		IdealHandRatio: 1.0, IdealAlignmentDeg: 180,
	},
	PushupKnee: {
		ElbowUpDeg: 150, ElbowDownDeg: 120, MinVisibility: 0.7,
		PrimaryWeight: 0.7, HeightWeight: 0.3,
		HeightLowRatio: 0.25, HeightHighRatio: 0.9,
		IdealHandRatio: 1.0, IdealAlignmentDeg: 175, AlignToKnee: true,
	},
	// Wall push-ups are performed standing; the shoulder barely changes
	// height so nearly all weight sits on the elbow angle.
	PushupWall: {
		ElbowUpDeg: 155, ElbowDownDeg: 130, MinVisibility: 0.6,
		PrimaryWeight: 0.9, HeightWeight: 0.1,
		HeightLowRatio: 0.05, HeightHighRatio: 0.35,
		IdealHandRatio: 1.0, IdealAlignmentDeg: 178,
	},
	PushupIncline: {
		ElbowUpDeg: 150, ElbowDownDeg: 125, MinVisibility: 0.65,
		PrimaryWeight: 0.75, HeightWeight: 0.25,
		HeightLowRatio: 0.2, HeightHighRatio: 0.75,
		IdealHandRatio: 1.0, IdealAlignmentDeg: 178,
	},
	PushupDecline: {
		ElbowUpDeg: 150, ElbowDownDeg: 115, MinVisibility: 0.7,
		PrimaryWeight: 0.65, HeightWeight: 0.35,
		HeightLowRatio: 0.3, HeightHighRatio: 1.0,
		IdealHandRatio: 1.0, IdealAlignmentDeg: 180,
	},
	PushupDiamond: {
		ElbowUpDeg: 145, ElbowDownDeg: 115, MinVisibility: 0.7,
		PrimaryWeight: 0.7, HeightWeight: 0.3,
		HeightLowRatio: 0.25, HeightHighRatio: 0.9,
		IdealHandRatio: 0.35, IdealAlignmentDeg: 180,
	},
	PushupWide: {
		ElbowUpDeg: 155, ElbowDownDeg: 125, MinVisibility: 0.7,
		PrimaryWeight: 0.7, HeightWeight: 0.3,
		HeightLowRatio: 0.2, HeightHighRatio: 0.8,
		IdealHandRatio: 1.6, IdealAlignmentDeg: 180,
	},
}

// squatCalibration drives the squat family classifier.
type squatCalibration struct {
	KneeUpDeg     float64 // knee extension at/above which the primary saturates to up
	KneeDownDeg   float64 // knee flexion at/below which it saturates to down
	MinVisibility float64
	PrimaryWeight float64 // knee-angle signal weight
	HipWeight     float64 // hip-height signal weight

	// Hip-to-ankle vertical distance over leg length, saturation bounds.
	HipLowRatio  float64
	HipHighRatio float64

	IdealStanceRatio float64 // ankle spacing / shoulder width for ideal form
	Split            bool
	FrontSide        pose.Side // analysed leg for split variants
}

var squatCalibrations = map[Exercise]squatCalibration{
	SquatStandard: {
		KneeUpDeg: 160, KneeDownDeg: 100, MinVisibility: 0.7,
		PrimaryWeight: 0.6, HipWeight: 0.4,
		HipLowRatio: 0.55, HipHighRatio: 0.95,
		IdealStanceRatio: 1.1,
	},
	SquatSumo: {
		KneeUpDeg: 160, KneeDownDeg: 110, MinVisibility: 0.7,
		PrimaryWeight: 0.6, HipWeight: 0.4,
		HipLowRatio: 0.5, HipHighRatio: 0.95,
		IdealStanceRatio: 1.9,
	},
	SquatSplitLeft: {
		KneeUpDeg: 160, KneeDownDeg: 95, MinVisibility: 0.65,
		PrimaryWeight: 0.7, HipWeight: 0.3,
		HipLowRatio: 0.5, HipHighRatio: 0.9,
		IdealStanceRatio: 0.8, Split: true, FrontSide: pose.LeftSide,
	},
	SquatSplitRight: {
		KneeUpDeg: 160, KneeDownDeg: 95, MinVisibility: 0.65,
		PrimaryWeight: 0.7, HipWeight: 0.3,
		HipLowRatio: 0.5, HipHighRatio: 0.9,
		IdealStanceRatio: 0.8, Split: true, FrontSide: pose.RightSide,
	},
}

// crunchCalibration drives the crunch family classifier.
//
// For crunches "up" is the curled phase. The primary hip angle and the
// secondary lift signal both shrink as the body curls, so both mappings are
// inverted: a large raw measurement votes for the DOWN (extended) phase.
// This inversion is an empirical finding; do not "fix" the sign.
type crunchCalibration struct {
	HipCurledDeg   float64 // shoulder-hip-knee angle at/below which up saturates
	HipExtendedDeg float64 // angle at/above which down saturates
	MinVisibility  float64
	PrimaryWeight  float64 // hip-angle signal weight
	LiftWeight     float64 // lift-distance signal weight

	// Inverted lift signal saturation bounds: the tracked gap (nose-to-knee
	// for crunches, ankle-to-hip for reverse) over torso length.
	LiftLowRatio  float64
	LiftHighRatio float64

	TrackAnkles bool // reverse/double variants track the leg lift
}

var crunchCalibrations = map[Exercise]crunchCalibration{
	Crunch: {
		HipCurledDeg: 95, HipExtendedDeg: 125, MinVisibility: 0.65,
		PrimaryWeight: 0.8, LiftWeight: 0.2,
		LiftLowRatio: 0.6, LiftHighRatio: 1.4,
	},
	CrunchReverse: {
		HipCurledDeg: 70, HipExtendedDeg: 110, MinVisibility: 0.65,
		PrimaryWeight: 0.75, LiftWeight: 0.25,
		LiftLowRatio: 0.3, LiftHighRatio: 1.1,
		TrackAnkles: true,
	},
	CrunchDouble: {
		HipCurledDeg: 85, HipExtendedDeg: 120, MinVisibility: 0.65,
		PrimaryWeight: 0.5, LiftWeight: 0.5,
		LiftLowRatio: 0.45, LiftHighRatio: 1.25,
		TrackAnkles: true,
	},
}

// supermanCalibration drives the superman classifier. "Up" is the lifted,
// arched phase; a straight (flat) body extension angle votes down, so the
// primary mapping is inverted like the crunch family's.
type supermanCalibration struct {
	ArchedDeg     float64 // shoulder-hip-ankle angle at/below which up saturates
	FlatDeg       float64 // angle at/above which down saturates
	MinVisibility float64
	PrimaryWeight float64
	LiftWeight    float64

	// Ankle elevation above the hip baseline over torso length.
	LiftLowRatio  float64
	LiftHighRatio float64
}

var supermanCalibr = supermanCalibration{
	ArchedDeg: 152, FlatDeg: 176, MinVisibility: 0.6,
	PrimaryWeight: 0.65, LiftWeight: 0.35,
	LiftLowRatio: 0.02, LiftHighRatio: 0.22,
}
