package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherWindowMean(t *testing.T) {
	t.Parallel()

	s := newSmoother(3)

	p := s.Push(Probabilities{Up: 1, Down: 0})
	assert.InDelta(t, 1.0, p.Up, 1e-9)

	p = s.Push(Probabilities{Up: 0, Down: 1})
	assert.InDelta(t, 0.5, p.Up, 1e-9)

	p = s.Push(Probabilities{Up: 0.5, Down: 0.5})
	assert.InDelta(t, 0.5, p.Up, 1e-9)
	assert.Equal(t, 3, s.Len())

	// A fourth push evicts the oldest entry.
	p = s.Push(Probabilities{Up: 0.5, Down: 0.5})
	assert.InDelta(t, 1.0/3, p.Up, 1e-9)
	assert.Equal(t, 3, s.Len())
}

func TestSmootherReset(t *testing.T) {
	t.Parallel()

	s := newSmoother(3)
	s.Push(Probabilities{Up: 1, Down: 0})
	s.Reset()
	assert.Zero(t, s.Len())

	p := s.Push(Probabilities{Up: 0.2, Down: 0.8})
	assert.InDelta(t, 0.2, p.Up, 1e-9)
}
