package engine

import "math"

// Composite score weights. The composite is a tuned ranking signal, not a
// probability; the weights intentionally do not sum to 1.
const (
	formScoreWeight  = 0.4
	confidenceWeight = 0.7
)

// Grade cutoffs on the composite score.
const (
	gradeExcellentMin = 0.9
	gradeGoodMin      = 0.75
	gradeFairMin      = 0.6
)

// FormScore aggregates a metric map into a single [0,1] score: the
// arithmetic mean of all metric values, excluding NaNs. An empty or all-NaN
// map scores neutral.
func FormScore(metrics map[string]float64) float64 {
	var sum float64
	var n int
	for _, v := range metrics {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return neutralMetric
	}
	return clamp01(sum / float64(n))
}

// CompositeScore combines form quality and classifier confidence into the
// quality ranking signal the grade cutoffs apply to.
func CompositeScore(formScore, confidence float64) float64 {
	return formScoreWeight*formScore + confidenceWeight*confidence
}

// GradeFor maps a composite score onto the four-level quality grade.
func GradeFor(score float64) QualityGrade {
	switch {
	case score >= gradeExcellentMin:
		return GradeExcellent
	case score >= gradeGoodMin:
		return GradeGood
	case score >= gradeFairMin:
		return GradeFair
	default:
		return GradePoor
	}
}
