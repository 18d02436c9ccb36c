package api

import (
	"time"

	"github.com/flowsight/flowsight/pkg/analytics/aggregate"
	"github.com/flowsight/flowsight/pkg/analytics/prcurve"
	"github.com/flowsight/flowsight/pkg/analytics/timeseries"
	"github.com/flowsight/flowsight/pkg/analytics/view"
	"github.com/flowsight/flowsight/pkg/dataset"
	"github.com/flowsight/flowsight/pkg/dataset/csvio"
)

// SchemaInfo reports which dataset columns drive each chart.
type SchemaInfo struct {
	LabelColumn   string `json:"label_column,omitempty"`
	AttackColumn  string `json:"attack_column,omitempty"`
	ServiceColumn string `json:"service_column,omitempty"`
	PortColumn    string `json:"port_column,omitempty"`
	TimeColumn    string `json:"time_column,omitempty"`
	PositiveLabel string `json:"positive_label"`
	HasLabels     bool   `json:"has_labels"`
}

// SchemaInfoFrom converts a resolved schema to its wire form.
func SchemaInfoFrom(s dataset.Schema) SchemaInfo {
	return SchemaInfo{
		LabelColumn:   s.LabelColumn,
		AttackColumn:  s.AttackColumn,
		ServiceColumn: s.ServiceColumn,
		PortColumn:    s.PortColumn,
		TimeColumn:    s.TimeColumn,
		PositiveLabel: s.PositiveLabel,
		HasLabels:     s.HasLabels(),
	}
}

// Summary is the headline block of an analysis response.
type Summary struct {
	ResultID      string                 `json:"result_id"`
	Filename      string                 `json:"filename"`
	CreatedAt     time.Time              `json:"created_at"`
	RowCount      int                    `json:"row_count"`
	FilteredCount int                    `json:"filtered_count"`
	AnomalyCount  int                    `json:"anomaly_count"`
	AnomalyRate   float64                `json:"anomaly_rate"`
	AvgScore      *float64               `json:"avg_score,omitempty"`
	ActiveFilters []string               `json:"active_filters,omitempty"`
	Schema        SchemaInfo             `json:"schema"`
	Validation    csvio.ValidationReport `json:"validation"`
}

// Charts bundles every chart aggregate for one filtered view.
type Charts struct {
	LabelBreakdown map[string]int             `json:"label_breakdown"`
	AttackTaxonomy map[string]int             `json:"attack_taxonomy"`
	TopServices    []aggregate.Count          `json:"top_services"`
	TopPorts       []aggregate.Count          `json:"top_ports"`
	Heatmap        *aggregate.Heatmap         `json:"heatmap,omitempty"`
	ScoreBands     []aggregate.ScoreBand      `json:"score_bands,omitempty"`
	Timeline       []timeseries.TimelinePoint `json:"timeline,omitempty"`
}

// ChartsFrom converts derived aggregates to their wire form.
func ChartsFrom(a view.Aggregates) Charts {
	return Charts{
		LabelBreakdown: a.LabelBreakdown,
		AttackTaxonomy: a.AttackTaxonomy,
		TopServices:    a.TopServices,
		TopPorts:       a.TopPorts,
		Heatmap:        a.Heatmap,
		ScoreBands:     a.ScoreBands,
		Timeline:       a.Timeline,
	}
}

// PRCurve is the precision-recall block. Available is false when the upload
// carries no ground-truth labels or no scores; Curve is nil in that case.
type PRCurve struct {
	Available bool                      `json:"available"`
	Reason    string                    `json:"reason,omitempty"`
	Curve     *prcurve.Curve            `json:"curve,omitempty"`
	Metrics   *prcurve.ThresholdMetrics `json:"threshold_metrics,omitempty"`
}

// PredictResponse is the full payload returned by the upload endpoint.
// Columns and Predictions carry the scored rows themselves so clients can
// render and filter the results table without another round trip.
type PredictResponse struct {
	ResultID    string        `json:"result_id"`
	Summary     Summary       `json:"summary"`
	Columns     []string      `json:"columns"`
	Predictions []dataset.Row `json:"predictions"`
	Charts      Charts        `json:"charts"`
	PRCurve     PRCurve       `json:"pr_curve"`
	// Stale is true when a newer upload superseded this one before it
	// finished; the result is still stored but not installed as current.
	Stale bool `json:"stale,omitempty"`
}

// MetricsSummary aggregates the run history for the overview panel.
type MetricsSummary struct {
	Uploads        int        `json:"uploads"`
	RowsAnalyzed   int        `json:"rows_analyzed"`
	AnomaliesFound int        `json:"anomalies_found"`
	AvgAnomalyRate float64    `json:"avg_anomaly_rate"`
	LastUploadAt   *time.Time `json:"last_upload_at,omitempty"`
}
