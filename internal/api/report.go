package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/formsense/repcoach/internal/engine"
)

// renderReport renders an HTML session report with per-rep duration and
// quality charts. With no ?session_id it reports on the active session.
func (s *Server) renderReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var reps []engine.Repetition
	var title string

	if id := r.URL.Query().Get("session_id"); id != "" {
		if s.db == nil {
			s.writeJSONError(w, http.StatusNotFound, "persistence disabled")
			return
		}
		row, err := s.db.GetSession(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJSONError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("failed to load session: %v", err))
			return
		}
		reps, err = s.db.SessionReps(r.Context(), id)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("failed to load reps: %v", err))
			return
		}
		title = fmt.Sprintf("%s session %s", row.Exercise, id)
	} else {
		session := s.manager.Active()
		if session == nil {
			s.writeJSONError(w, http.StatusNotFound, "no active session")
			return
		}
		reps = session.Snapshot().History
		title = fmt.Sprintf("%s (live)", session.Exercise())
	}

	if len(reps) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no repetitions recorded")
		return
	}

	page := components.NewPage()
	page.SetPageTitle("Session Report")
	page.AddCharts(repDurationChart(title, reps), repQualityChart(reps))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to render report: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func repDurationChart(title string, reps []engine.Repetition) *charts.Bar {
	labels := make([]string, 0, len(reps))
	data := make([]opts.BarData, 0, len(reps))
	for i := range reps {
		labels = append(labels, fmt.Sprintf("#%d", reps[i].Number))
		data = append(data, opts.BarData{Value: float64(reps[i].Duration.Milliseconds())})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Rep duration", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("duration", data)
	return bar
}

func repQualityChart(reps []engine.Repetition) *charts.Line {
	labels := make([]string, 0, len(reps))
	form := make([]opts.LineData, 0, len(reps))
	confidence := make([]opts.LineData, 0, len(reps))
	for i := range reps {
		labels = append(labels, fmt.Sprintf("#%d", reps[i].Number))
		form = append(form, opts.LineData{Value: reps[i].FormScore})
		confidence = append(confidence, opts.LineData{Value: reps[i].Confidence})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Rep quality"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	line.SetXAxis(labels)
	line.AddSeries("form score", form)
	line.AddSeries("confidence", confidence)
	return line
}
