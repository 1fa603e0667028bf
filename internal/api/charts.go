package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// residualsChart renders a scatter (HTML) of accepted per-segment residuals
// over time using go-echarts. This is a debugging-only endpoint (no auth) to
// eyeball fit quality without a frontend. Query params:
//   - object_id (optional; defaults to all objects)
func (s *Server) residualsChart(w http.ResponseWriter, r *http.Request) {
	table := s.eval.Table()

	objectIDs := table.ObjectIDs()
	if id := r.URL.Query().Get("object_id"); id != "" {
		objectIDs = []string{id}
	}

	data := make([]opts.ScatterData, 0)
	maxResid := 0.0
	for _, id := range objectIDs {
		segs, err := table.SegmentsFor(id)
		if err != nil {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("failed to get segments: %v", err))
			return
		}
		for _, seg := range segs {
			mid := (seg.TStart + seg.TEnd) / 2
			if seg.MaxResidMas > maxResid {
				maxResid = seg.MaxResidMas
			}
			data = append(data, opts.ScatterData{Value: []interface{}{mid, seg.MaxResidMas}})
		}
	}
	if len(data) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no segments available")
		return
	}
	if maxResid == 0 {
		maxResid = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fit Residuals", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Accepted Positional Residuals", Subtitle: fmt.Sprintf("objects=%d segments=%d", len(objectIDs), len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "MJD", NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "residual (mas)", NameLocation: "middle", NameGap: 40}),
	)
	scatter.AddSeries("residuals", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// segmentsChart renders a bar chart of per-object segment counts. Fast
// movers and polar objects get shorter segments, so this is a direct read
// on how the granularity controller divided the horizon.
func (s *Server) segmentsChart(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.objectSummaries()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to summarise objects: %v", err))
		return
	}
	if len(summaries) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no objects available")
		return
	}

	x := make([]string, 0, len(summaries))
	y := make([]opts.BarData, 0, len(summaries))
	for _, sum := range summaries {
		x = append(x, sum.ObjectID)
		y = append(y, opts.BarData{Value: sum.NumSegments})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Segments per Object"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("segments", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
