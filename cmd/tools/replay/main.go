// Command replay runs a recorded NDJSON frame file through the counting
// engine offline. It prints the resulting session statistics and can write a
// PNG probability timeline and an HTML report for tuning work.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/formsense/repcoach/internal/config"
	"github.com/formsense/repcoach/internal/engine"
	"github.com/formsense/repcoach/internal/ingest"
	"github.com/formsense/repcoach/internal/pose"
)

var (
	framesPath = flag.String("frames", "", "NDJSON frame recording to replay (required)")
	exerciseFl = flag.String("exercise", "pushup", "Exercise variant to count")
	configPath = flag.String("config", "", "Path to tuning config JSON (optional)")
	plotPath   = flag.String("plot", "", "Write a PNG probability/rep timeline to this path")
	reportPath = flag.String("report", "", "Write an HTML session report to this path")
)

// timelineSample is one frame's worth of replay telemetry.
type timelineSample struct {
	unixNanos int64
	upProb    float64
	totalReps int
}

func main() {
	flag.Parse()

	if *framesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ex, err := engine.ParseExercise(*exerciseFl)
	if err != nil {
		log.Fatalf("invalid exercise: %v", err)
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	session, err := engine.NewSession(ex, cfg.CountingConfig(), nil)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	defer session.Close()

	gate := ingest.QualityGate{
		MinVisible: cfg.GetMinVisibleLandmarks(),
		Threshold:  cfg.GetVisibilityThreshold(),
	}

	var timeline []timelineSample
	stats := ingest.NewFrameStats()
	sink := ingest.FrameSinkFunc(func(f *pose.Frame) {
		snap, err := session.ProcessFrame(f)
		if err != nil {
			log.Printf("frame rejected: %v", err)
			return
		}
		timeline = append(timeline, timelineSample{
			unixNanos: f.UnixNanos,
			upProb:    upProbability(snap),
			totalReps: snap.TotalReps,
		})
	})

	if err := ingest.ReplayFile(*framesPath, gate, stats, sink); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	stats.LogStats()

	printStatistics(session)

	if *plotPath != "" {
		if err := writeTimeline(*plotPath, timeline); err != nil {
			log.Fatalf("failed to write plot: %v", err)
		}
		log.Printf("wrote timeline to %s", *plotPath)
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, string(ex), session.Snapshot().History); err != nil {
			log.Fatalf("failed to write report: %v", err)
		}
		log.Printf("wrote report to %s", *reportPath)
	}
}

// upProbability derives a plottable up-confidence from the snapshot. The
// snapshot only exposes confidence and phase, so the sign comes from the
// settled state.
func upProbability(snap engine.CountingState) float64 {
	switch snap.State {
	case engine.StateUp:
		return 0.5 + snap.Confidence/2
	case engine.StateDown:
		return 0.5 - snap.Confidence/2
	default:
		return 0.5
	}
}

func printStatistics(session *engine.Session) {
	s := session.Statistics()
	fmt.Printf("exercise:        %s\n", session.Exercise())
	fmt.Printf("total reps:      %d\n", s.TotalReps)
	if s.TotalReps == 0 {
		return
	}
	fmt.Printf("avg form score:  %.2f\n", s.AvgFormScore)
	fmt.Printf("avg confidence:  %.2f\n", s.AvgConfidence)
	fmt.Printf("avg duration:    %.0fms\n", s.AvgRepDurationMs)
	fmt.Printf("median duration: %.0fms\n", s.MedianRepDurationMs)
	fmt.Printf("p95 duration:    %.0fms\n", s.P95RepDurationMs)
	fmt.Printf("flagged reps:    %d\n", s.FlaggedReps)
	for _, grade := range []engine.QualityGrade{
		engine.GradeExcellent, engine.GradeGood, engine.GradeFair, engine.GradePoor,
	} {
		if n := s.GradeCounts[grade]; n > 0 {
			fmt.Printf("  %-9s %d\n", grade+":", n)
		}
	}
}

// writeTimeline saves a PNG of the phase signal and cumulative rep count.
func writeTimeline(path string, timeline []timelineSample) error {
	if len(timeline) == 0 {
		return fmt.Errorf("no frames were processed")
	}

	start := timeline[0].unixNanos
	probPts := make(plotter.XYs, 0, len(timeline))
	repPts := make(plotter.XYs, 0, len(timeline))
	maxReps := 0
	for _, s := range timeline {
		t := float64(s.unixNanos-start) / float64(time.Second)
		probPts = append(probPts, plotter.XY{X: t, Y: s.upProb})
		repPts = append(repPts, plotter.XY{X: t, Y: float64(s.totalReps)})
		if s.totalReps > maxReps {
			maxReps = s.totalReps
		}
	}

	p := plot.New()
	p.Title.Text = "Replay timeline"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Up probability / reps"

	probLine, err := plotter.NewLine(probPts)
	if err != nil {
		return err
	}
	probLine.Width = vg.Points(1)
	probLine.Color = color.RGBA{B: 200, A: 255}
	p.Add(probLine)
	p.Legend.Add("up probability", probLine)

	// Scale rep counts into [0,1] so both series share one axis.
	if maxReps > 0 {
		for i := range repPts {
			repPts[i].Y /= float64(maxReps)
		}
	}
	repLine, err := plotter.NewLine(repPts)
	if err != nil {
		return err
	}
	repLine.Width = vg.Points(1)
	repLine.Color = color.RGBA{R: 200, A: 255}
	p.Add(repLine)
	p.Legend.Add(fmt.Sprintf("reps (max %d)", maxReps), repLine)

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
