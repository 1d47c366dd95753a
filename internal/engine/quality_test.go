package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		metrics map[string]float64
		want    float64
	}{
		{"empty map is neutral", nil, 0.5},
		{"single metric", map[string]float64{"a": 0.8}, 0.8},
		{"mean of metrics", map[string]float64{"a": 0.6, "b": 1.0}, 0.8},
		{"nan excluded", map[string]float64{"a": 0.4, "b": math.NaN()}, 0.4},
		{"all nan is neutral", map[string]float64{"a": math.NaN()}, 0.5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, FormScore(tt.metrics), 1e-9)
		})
	}
}

func TestGradeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  QualityGrade
	}{
		{1.1, GradeExcellent},
		{0.9, GradeExcellent},
		{0.89, GradeGood},
		{0.75, GradeGood},
		{0.74, GradeFair},
		{0.6, GradeFair},
		{0.59, GradePoor},
		{0, GradePoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.score), "score %v", tt.score)
	}
}

func TestCompositeScoreWeights(t *testing.T) {
	t.Parallel()

	// Perfect form and full confidence exceeds 1: the composite is a
	// ranking signal on a tuned scale, not a probability.
	assert.InDelta(t, 1.1, CompositeScore(1, 1), 1e-9)
	assert.InDelta(t, 0.7, CompositeScore(0, 1), 1e-9)
	assert.InDelta(t, 0.4, CompositeScore(1, 0), 1e-9)
	assert.Zero(t, CompositeScore(0, 0))
}

func TestProbabilitiesConfidence(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Neutral.Confidence())
	assert.InDelta(t, 1.0, Probabilities{Up: 1, Down: 0}.Confidence(), 1e-9)
	assert.InDelta(t, 1.0, Probabilities{Up: 0, Down: 1}.Confidence(), 1e-9)
	assert.InDelta(t, 0.3, Probabilities{Up: 0.65, Down: 0.35}.Confidence(), 1e-9)
}

func statsRep(n int, form, conf float64, dur time.Duration) Repetition {
	return Repetition{
		Number:     n,
		Duration:   dur,
		Grade:      GradeFor(CompositeScore(form, conf)),
		Confidence: conf,
		FormScore:  form,
	}
}

func TestComputeSessionStatistics(t *testing.T) {
	t.Parallel()

	reps := []Repetition{
		statsRep(1, 0.9, 0.9, 1500*time.Millisecond),
		statsRep(2, 0.7, 0.8, 2000*time.Millisecond),
		statsRep(3, 0.5, 0.4, 2500*time.Millisecond),
	}

	s := ComputeSessionStatistics(reps, DefaultQualityThreshold)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.TotalReps)
	assert.InDelta(t, 0.7, s.AvgFormScore, 1e-9)
	assert.InDelta(t, 0.7, s.AvgConfidence, 1e-9)
	assert.InDelta(t, 2000, s.AvgRepDurationMs, 1e-9)

	require.NotNil(t, s.BestRep)
	require.NotNil(t, s.WorstRep)
	assert.Equal(t, 1, s.BestRep.Number)
	assert.Equal(t, 3, s.WorstRep.Number)

	var graded int
	for _, n := range s.GradeCounts {
		graded += n
	}
	assert.Equal(t, 3, graded)

	// Only rep 3 composites below the 0.6 threshold.
	assert.Equal(t, 1, s.FlaggedReps)
}

func TestSessionStatisticsFlaggedReps(t *testing.T) {
	t.Parallel()

	reps := []Repetition{
		statsRep(1, 0.9, 0.9, time.Second), // composite 0.99
		statsRep(2, 0.5, 0.4, time.Second), // composite 0.48
		statsRep(3, 0.4, 0.3, time.Second), // composite 0.37
	}

	tests := []struct {
		name      string
		threshold float64
		want      int
	}{
		{"none flagged", 0.0, 0},
		{"default threshold", DefaultQualityThreshold, 2},
		{"all flagged", 1.0, 3},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := ComputeSessionStatistics(reps, tc.threshold)
			assert.Equal(t, tc.want, s.FlaggedReps)
		})
	}
}

func TestComputeSessionStatisticsEmpty(t *testing.T) {
	t.Parallel()

	s := ComputeSessionStatistics(nil, DefaultQualityThreshold)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.TotalReps)
	assert.Nil(t, s.BestRep)
	assert.Nil(t, s.WorstRep)
	assert.NotNil(t, s.GradeCounts)
}

func TestSessionStatisticsJSONRoundTrip(t *testing.T) {
	t.Parallel()

	s := ComputeSessionStatistics([]Repetition{
		statsRep(1, 0.8, 0.9, time.Second),
	}, DefaultQualityThreshold)

	raw, err := s.ToJSON()
	require.NoError(t, err)

	got, err := ParseSessionStatistics(raw)
	require.NoError(t, err)
	assert.Equal(t, s.TotalReps, got.TotalReps)
	assert.InDelta(t, s.AvgFormScore, got.AvgFormScore, 1e-9)
	assert.Equal(t, s.GradeCounts, got.GradeCounts)
}

func TestParseSessionStatisticsInvalid(t *testing.T) {
	t.Parallel()

	_, err := ParseSessionStatistics("not json")
	assert.Error(t, err)
}
