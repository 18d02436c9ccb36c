// Package render draws chart aggregates to PNG for download and report
// embedding. The browser renders its own charts; these are the server-side
// equivalents served from the chart endpoints.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/flowsight/flowsight/pkg/analytics/prcurve"
	"github.com/flowsight/flowsight/pkg/analytics/timeseries"
)

var (
	strokeBlue = drawing.Color{R: 59, G: 130, B: 246, A: 255}
	strokeRed  = drawing.Color{R: 239, G: 68, B: 68, A: 255}
	fillRed    = drawing.Color{R: 239, G: 68, B: 68, A: 60}
)

// PRCurvePNG renders a precision-recall curve.
func PRCurvePNG(curve *prcurve.Curve, w io.Writer) error {
	if curve == nil || len(curve.Points) == 0 {
		return fmt.Errorf("no curve points to render")
	}

	xs := make([]float64, len(curve.Points))
	ys := make([]float64, len(curve.Points))
	for i, p := range curve.Points {
		xs[i] = p.Recall
		ys[i] = p.Precision
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Precision-Recall (AP %.3f)", curve.AveragePrecision),
		Width:  800,
		Height: 500,
		XAxis: chart.XAxis{
			Name:  "Recall",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		YAxis: chart.YAxis{
			Name:  "Precision",
			Range: &chart.ContinuousRange{Min: 0, Max: 1.05},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    curve.PositiveLabel,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: strokeBlue,
					StrokeWidth: 2.0,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// TimelinePNG renders the per-minute anomaly count series.
func TimelinePNG(points []timeseries.TimelinePoint, w io.Writer) error {
	if len(points) == 0 {
		return fmt.Errorf("no timeline points to render")
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		t, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			return fmt.Errorf("timeline point %d: %w", i, err)
		}
		xs[i] = t
		ys[i] = float64(p.Count)
	}

	graph := chart.Chart{
		Title:  "Anomalies per minute",
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Anomalies",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: strokeRed,
					StrokeWidth: 2.0,
					FillColor:   fillRed,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}
