// Package pose defines the body-landmark data model shared by the exercise
// engine and its frame sources, plus the geometric primitives the exercise
// classifiers are built from.
//
// Landmarks follow the MediaPipe pose convention: 33 named joints per frame,
// produced in two parallel coordinate spaces. World-space landmarks are in
// real-world scale (metres, hip-centred) and are used for angle computations
// that must be perspective-invariant. Image-space landmarks are normalised to
// the camera frame (x/y in [0,1], z relative depth) and are used for
// screen-relative distance comparisons.
package pose

import "fmt"

// Joint indices for the 33-point MediaPipe pose topology. The order is fixed
// by the upstream detector; both landmark arrays of a Frame share it.
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32

	// NumLandmarks is the fixed landmark count per coordinate space.
	NumLandmarks = 33
)

// Landmark is a single joint sample. X/Y are normalised to the image for
// image-space landmarks and metric for world-space landmarks; Visibility is
// the detector's confidence in [0,1] that the joint is actually visible.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is one sampling instant from the pose detector: the same 33 joints in
// world space and image space, plus the capture timestamp in Unix nanos.
// Frames are consumed read-only by the engine.
type Frame struct {
	World     []Landmark `json:"world"`
	Image     []Landmark `json:"image"`
	UnixNanos int64      `json:"unix_nanos"`
}

// Validate checks the structural preconditions on a frame. A frame with the
// wrong landmark count is a programming error upstream, not a runtime
// condition, so callers should treat a non-nil return as fatal for the
// connection that produced it.
func (f *Frame) Validate() error {
	if len(f.World) != NumLandmarks {
		return fmt.Errorf("frame has %d world landmarks, want %d", len(f.World), NumLandmarks)
	}
	if len(f.Image) != NumLandmarks {
		return fmt.Errorf("frame has %d image landmarks, want %d", len(f.Image), NumLandmarks)
	}
	return nil
}

// VisibleCount returns the number of world landmarks whose visibility exceeds
// the given threshold.
func (f *Frame) VisibleCount(threshold float64) int {
	n := 0
	for _, lm := range f.World {
		if lm.Visibility > threshold {
			n++
		}
	}
	return n
}

// MeanVisibility returns the average visibility across all world landmarks.
func (f *Frame) MeanVisibility() float64 {
	if len(f.World) == 0 {
		return 0
	}
	var sum float64
	for _, lm := range f.World {
		sum += lm.Visibility
	}
	return sum / float64(len(f.World))
}

// Side identifies which half of the body a single-limb exercise analyses.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

func (s Side) String() string {
	if s == LeftSide {
		return "left"
	}
	return "right"
}

// DominantSide compares the summed visibility of the left versus right
// shoulder, hip and knee landmarks and reports which side the camera sees
// more reliably. Single-limb exercises use it to pick the analysed arm or
// leg. Ties resolve to the left side.
func DominantSide(f *Frame) Side {
	left := f.World[LeftShoulder].Visibility +
		f.World[LeftHip].Visibility +
		f.World[LeftKnee].Visibility
	right := f.World[RightShoulder].Visibility +
		f.World[RightHip].Visibility +
		f.World[RightKnee].Visibility
	if right > left {
		return RightSide
	}
	return LeftSide
}
