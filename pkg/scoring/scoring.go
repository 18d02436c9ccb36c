// Package scoring turns decoded flow records into per-row predictions and
// anomaly scores. Two implementations exist: a deterministic heuristic used
// standalone and as a fallback, and a remote scorer that calls an external
// model service over HTTP.
package scoring

import (
	"context"
	"time"

	"github.com/flowsight/flowsight/pkg/dataset/csvio"
)

// Scorer assigns a prediction label and an anomaly score in [0, 1] to every
// record of a frame. The returned slices are parallel to frame.Records.
type Scorer interface {
	Score(ctx context.Context, frame *csvio.Frame) (labels []string, scores []float64, err error)
	// PositiveLabel is the label this scorer emits for anomalous flows.
	PositiveLabel() string
}

// FlowScorer scores one interactive flow. Both scorers implement it.
type FlowScorer interface {
	ScoreFlow(ctx context.Context, flow FlowRequest) (FlowVerdict, error)
}

// FlowRequest is a single flow submitted for interactive scoring.
type FlowRequest struct {
	SrcIP          string  `json:"src_ip" validate:"required,ip"`
	DstIP          string  `json:"dst_ip" validate:"required,ip"`
	SrcPort        int     `json:"src_port" validate:"required,min=1,max=65535"`
	DstPort        int     `json:"dst_port" validate:"required,min=1,max=65535"`
	Protocol       string  `json:"protocol" validate:"required"`
	PktBytes       float64 `json:"pkt_bytes" validate:"min=0"`
	PktCount       float64 `json:"pkt_count" validate:"min=0"`
	InterArrivalMS float64 `json:"inter_arrival_ms" validate:"min=0"`
}

// FeatureContribution names one feature's share of a flow's risk.
type FeatureContribution struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// FlowVerdict is the scoring outcome for a single flow. TopFeatures lists the
// features that drove the score, largest contribution first.
type FlowVerdict struct {
	Prediction  string                `json:"prediction"`
	Score       float64               `json:"score"`
	Anomalous   bool                  `json:"anomalous"`
	TopFeatures []FeatureContribution `json:"top_features,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}
