package pose

import "testing"

// uniformFrame builds a frame with every landmark at the same visibility.
func uniformFrame(visibility float64) *Frame {
	world := make([]Landmark, NumLandmarks)
	image := make([]Landmark, NumLandmarks)
	for i := range world {
		world[i].Visibility = visibility
		image[i].Visibility = visibility
	}
	return &Frame{World: world, Image: image}
}

func TestValidate(t *testing.T) {
	f := uniformFrame(1.0)
	if err := f.Validate(); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}

	short := &Frame{World: make([]Landmark, 10), Image: make([]Landmark, NumLandmarks)}
	if err := short.Validate(); err == nil {
		t.Fatal("expected error for short world landmark array")
	}

	badImage := &Frame{World: make([]Landmark, NumLandmarks), Image: nil}
	if err := badImage.Validate(); err == nil {
		t.Fatal("expected error for missing image landmarks")
	}
}

func TestVisibleCount(t *testing.T) {
	f := uniformFrame(0.0)
	f.World[Nose].Visibility = 0.9
	f.World[LeftShoulder].Visibility = 0.8
	f.World[RightShoulder].Visibility = 0.4

	if got := f.VisibleCount(0.5); got != 2 {
		t.Errorf("VisibleCount(0.5) = %d, want 2", got)
	}
	if got := f.VisibleCount(0.3); got != 3 {
		t.Errorf("VisibleCount(0.3) = %d, want 3", got)
	}
}

func TestMeanVisibility(t *testing.T) {
	f := uniformFrame(0.5)
	if got := f.MeanVisibility(); got != 0.5 {
		t.Errorf("MeanVisibility() = %f, want 0.5", got)
	}

	empty := &Frame{}
	if got := empty.MeanVisibility(); got != 0 {
		t.Errorf("MeanVisibility() on empty frame = %f, want 0", got)
	}
}

func TestDominantSide(t *testing.T) {
	tests := []struct {
		name     string
		left     float64
		right    float64
		expected Side
	}{
		{"left more visible", 0.9, 0.2, LeftSide},
		{"right more visible", 0.2, 0.9, RightSide},
		{"tie resolves left", 0.5, 0.5, LeftSide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := uniformFrame(0.0)
			for _, idx := range []int{LeftShoulder, LeftHip, LeftKnee} {
				f.World[idx].Visibility = tt.left
			}
			for _, idx := range []int{RightShoulder, RightHip, RightKnee} {
				f.World[idx].Visibility = tt.right
			}
			if got := DominantSide(f); got != tt.expected {
				t.Errorf("DominantSide() = %v, want %v", got, tt.expected)
			}
		})
	}
}
