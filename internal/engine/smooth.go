package engine

// smoother is a bounded FIFO window over raw probability pairs. Pushing past
// capacity evicts the oldest entry; the emitted value is the arithmetic mean
// of the window. A single noisy frame therefore shifts the output by at most
// 1/window.
type smoother struct {
	window []Probabilities
	size   int
	next   int
	filled int
}

func newSmoother(size int) *smoother {
	if size < 1 {
		size = 1
	}
	return &smoother{window: make([]Probabilities, size), size: size}
}

// Push adds a raw pair to the window and returns the smoothed mean.
func (s *smoother) Push(p Probabilities) Probabilities {
	s.window[s.next] = p
	s.next = (s.next + 1) % s.size
	if s.filled < s.size {
		s.filled++
	}

	var up, down float64
	for i := 0; i < s.filled; i++ {
		up += s.window[i].Up
		down += s.window[i].Down
	}
	n := float64(s.filled)
	return Probabilities{Up: up / n, Down: down / n}
}

// Len reports how many samples the window currently holds.
func (s *smoother) Len() int { return s.filled }

// Reset clears the window.
func (s *smoother) Reset() {
	s.next = 0
	s.filled = 0
}
