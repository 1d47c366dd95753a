package pose

import "math"

// Angle returns the angle in degrees at mid formed by the vectors mid→a and
// mid→b, computed in 3D via the normalised dot product. The result is in
// [0,180]. Degenerate inputs (a zero-length limb vector) yield 0.
func Angle(a, mid, b Landmark) float64 {
	v1x, v1y, v1z := a.X-mid.X, a.Y-mid.Y, a.Z-mid.Z
	v2x, v2y, v2z := b.X-mid.X, b.Y-mid.Y, b.Z-mid.Z

	n1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
	n2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)
	if n1 == 0 || n2 == 0 {
		return 0
	}

	cos := (v1x*v2x + v1y*v2y + v1z*v2z) / (n1 * n2)
	// Clamp against floating-point overshoot before Acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// Midpoint returns the coordinate-wise average of two landmarks. The result's
// visibility is the minimum of the inputs' visibility: a midpoint is only as
// trustworthy as its least-visible endpoint.
func Midpoint(p, q Landmark) Landmark {
	return Landmark{
		X:          (p.X + q.X) / 2,
		Y:          (p.Y + q.Y) / 2,
		Z:          (p.Z + q.Z) / 2,
		Visibility: math.Min(p.Visibility, q.Visibility),
	}
}

// VerticalDistance returns the absolute difference of the vertical
// coordinates of two landmarks. Intended for image-space landmarks, where Y
// is normalised to the frame and the result is a scale-relative height.
func VerticalDistance(p, q Landmark) float64 {
	return math.Abs(p.Y - q.Y)
}

// Normalize linearly rescales value into [0,1] against the range [min, max],
// clamped at both ends. A degenerate range (min == max) maps to 0.
func Normalize(value, min, max float64) float64 {
	if min == max {
		return 0
	}
	n := (value - min) / (max - min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
