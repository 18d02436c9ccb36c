package csvio

import (
	"fmt"
	"math"
	"strings"
)

// DownsampleFraction is the share of rows kept when an upload exceeds the
// configured row cap.
const DownsampleFraction = 0.8

// ValidationReport describes what happened to an upload on its way in. The
// field names follow the response wire format.
type ValidationReport struct {
	MissingColumns   []string `json:"missing_columns"`
	ExtraColumns     []string `json:"extra_columns"`
	RowCount         int      `json:"row_count"`
	MaxRowsExceeded  bool     `json:"max_rows_exceeded"`
	Downsampled      bool     `json:"downsampled"`
	OriginalRowCount *int     `json:"original_row_count,omitempty"`
	SamplingFraction *float64 `json:"sampling_fraction,omitempty"`
}

// SchemaError is a user-actionable schema validation failure. It blocks the
// upload but carries enough structure for the caller to say exactly which
// columns are missing.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("uploaded CSV is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Validate checks required columns and bounds oversized uploads. When the
// row count exceeds maxRows the frame is deterministically downsampled to
// DownsampleFraction of the original (capped at maxRows) with the original
// row order preserved. maxRows <= 0 disables the cap. The returned frame is
// the one downstream stages must use.
func Validate(frame *Frame, required []string, maxRows int) (*Frame, ValidationReport, error) {
	var missing []string
	for _, col := range required {
		if frame.Column(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, ValidationReport{MissingColumns: missing}, &SchemaError{Missing: missing}
	}

	requiredSet := make(map[string]bool, len(required))
	for _, col := range required {
		requiredSet[strings.ToLower(col)] = true
	}
	var extra []string
	for _, col := range frame.Columns {
		if len(requiredSet) > 0 && !requiredSet[strings.ToLower(col)] {
			extra = append(extra, col)
		}
	}

	report := ValidationReport{
		ExtraColumns: extra,
		RowCount:     frame.RowCount(),
	}

	original := frame.RowCount()
	if maxRows > 0 && original > maxRows {
		target := int(float64(original) * DownsampleFraction)
		if target < 1 {
			target = 1
		}
		if target > maxRows {
			target = maxRows
		}
		frame = sampleFrame(frame, target)

		report.MaxRowsExceeded = true
		report.Downsampled = true
		report.RowCount = frame.RowCount()
		report.OriginalRowCount = &original
		fraction := float64(frame.RowCount()) / float64(original)
		report.SamplingFraction = &fraction
	}

	return frame, report, nil
}

// sampleFrame keeps target rows at evenly spaced positions, preserving the
// original order. Deterministic so repeated uploads of the same file produce
// the same charts.
func sampleFrame(frame *Frame, target int) *Frame {
	n := frame.RowCount()
	if target >= n {
		return frame
	}
	step := float64(n) / float64(target)
	records := make([][]string, 0, target)
	for i := 0; i < target; i++ {
		records = append(records, frame.Records[int(float64(i)*step)])
	}
	return &Frame{Columns: frame.Columns, Records: records}
}

// FormatSamplingFraction renders a sampling fraction as a percentage with
// one decimal, collapsing the decimal when the percentage is exact.
func FormatSamplingFraction(fraction float64) string {
	pct := fraction * 100
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("%.0f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}
