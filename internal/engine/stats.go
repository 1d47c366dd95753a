package engine

import (
	"encoding/json"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SessionStatistics holds aggregate statistics for a counting session.
// Computed on demand from the repetition history, not stored incrementally.
type SessionStatistics struct {
	TotalReps     int     `json:"total_reps"`
	AvgFormScore  float64 `json:"avg_form_score"`
	AvgConfidence float64 `json:"avg_confidence"`

	GradeCounts map[QualityGrade]int `json:"grade_counts"`

	AvgRepDurationMs    float64 `json:"avg_rep_duration_ms"`
	MedianRepDurationMs float64 `json:"median_rep_duration_ms"`
	P95RepDurationMs    float64 `json:"p95_rep_duration_ms"`

	// FlaggedReps counts repetitions whose composite score fell below the
	// configured quality threshold.
	FlaggedReps int `json:"flagged_reps"`

	BestRep  *Repetition `json:"best_rep,omitempty"`
	WorstRep *Repetition `json:"worst_rep,omitempty"`
}

// ComputeSessionStatistics calculates aggregate statistics from a set of
// repetitions, flagging those scoring below qualityThreshold.
func ComputeSessionStatistics(reps []Repetition, qualityThreshold float64) *SessionStatistics {
	stats := &SessionStatistics{
		TotalReps:   len(reps),
		GradeCounts: make(map[QualityGrade]int),
	}
	if len(reps) == 0 {
		return stats
	}

	formScores := make([]float64, 0, len(reps))
	confidences := make([]float64, 0, len(reps))
	durationsMs := make([]float64, 0, len(reps))

	var best, worst *Repetition
	var bestScore, worstScore float64

	for i := range reps {
		rep := &reps[i]
		formScores = append(formScores, rep.FormScore)
		confidences = append(confidences, rep.Confidence)
		if rep.Duration > 0 {
			durationsMs = append(durationsMs, float64(rep.Duration.Milliseconds()))
		}
		stats.GradeCounts[rep.Grade]++

		score := CompositeScore(rep.FormScore, rep.Confidence)
		if score < qualityThreshold {
			stats.FlaggedReps++
		}
		if best == nil || score > bestScore {
			best, bestScore = rep, score
		}
		if worst == nil || score < worstScore {
			worst, worstScore = rep, score
		}
	}

	stats.AvgFormScore = stat.Mean(formScores, nil)
	stats.AvgConfidence = stat.Mean(confidences, nil)

	if len(durationsMs) > 0 {
		stats.AvgRepDurationMs = stat.Mean(durationsMs, nil)
		sort.Float64s(durationsMs)
		stats.MedianRepDurationMs = stat.Quantile(0.5, stat.Empirical, durationsMs, nil)
		stats.P95RepDurationMs = stat.Quantile(0.95, stat.Empirical, durationsMs, nil)
	}

	stats.BestRep = best
	stats.WorstRep = worst
	return stats
}

// ToJSON serialises SessionStatistics for database storage.
func (s *SessionStatistics) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseSessionStatistics deserialises SessionStatistics from JSON.
func ParseSessionStatistics(jsonStr string) (*SessionStatistics, error) {
	var stats SessionStatistics
	if err := json.Unmarshal([]byte(jsonStr), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
