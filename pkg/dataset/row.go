// Package dataset holds the scored-row data model shared by every analytics
// component: prediction rows, permissive cell coercion, and the one-time
// schema resolution that binds well-known column roles (label, attack
// category, service, destination port, timestamp) for a loaded dataset.
package dataset

// Row is one scored flow record. RowIndex is the stable position in the
// original upload order and is unique within a result set. Data carries all
// original dataset columns plus engineered features; the column set varies
// per upload.
type Row struct {
	RowIndex   int            `json:"row_index"`
	Prediction string         `json:"prediction"`
	Score      *float64       `json:"score,omitempty"`
	Data       map[string]any `json:"data"`
}

// Field returns the raw cell value for a column, reporting whether the
// column is present and non-nil.
func (r Row) Field(column string) (any, bool) {
	if r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[column]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ScoreValue returns the calibrated score and whether one is attached.
func (r Row) ScoreValue() (float64, bool) {
	if r.Score == nil {
		return 0, false
	}
	return *r.Score, true
}

// Float is a convenience constructor for optional scores.
func Float(v float64) *float64 { return &v }
