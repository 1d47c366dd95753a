package main

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/formsense/repcoach/internal/engine"
)

// writeReport renders the per-rep charts to a standalone HTML file.
func writeReport(path, exercise string, reps []engine.Repetition) error {
	if len(reps) == 0 {
		return fmt.Errorf("no repetitions recorded")
	}

	labels := make([]string, 0, len(reps))
	durations := make([]opts.BarData, 0, len(reps))
	form := make([]opts.LineData, 0, len(reps))
	confidence := make([]opts.LineData, 0, len(reps))
	for i := range reps {
		labels = append(labels, fmt.Sprintf("#%d", reps[i].Number))
		durations = append(durations, opts.BarData{Value: float64(reps[i].Duration.Milliseconds())})
		form = append(form, opts.LineData{Value: reps[i].FormScore})
		confidence = append(confidence, opts.LineData{Value: reps[i].Confidence})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Rep duration", Subtitle: exercise}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("duration", durations)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Rep quality"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	line.SetXAxis(labels)
	line.AddSeries("form score", form)
	line.AddSeries("confidence", confidence)

	page := components.NewPage()
	page.SetPageTitle("Replay Report")
	page.AddCharts(bar, line)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}
