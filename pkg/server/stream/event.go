package stream

import "time"

// Event types carried on the prediction stream.
const (
	EventUpload = "upload"
	EventFlow   = "flow"
)

// UploadEvent announces a completed batch analysis.
type UploadEvent struct {
	Type         string    `json:"type"`
	ResultID     string    `json:"result_id"`
	Filename     string    `json:"filename"`
	RowCount     int       `json:"row_count"`
	AnomalyCount int       `json:"anomaly_count"`
	AnomalyRate  float64   `json:"anomaly_rate"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlowEvent announces one interactive flow verdict.
type FlowEvent struct {
	Type       string    `json:"type"`
	Prediction string    `json:"prediction"`
	Score      float64   `json:"score"`
	Anomalous  bool      `json:"anomalous"`
	DstPort    int       `json:"dst_port"`
	Protocol   string    `json:"protocol"`
	CreatedAt  time.Time `json:"created_at"`
}
