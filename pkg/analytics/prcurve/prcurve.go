// Package prcurve computes precision-recall curves, average precision and
// per-threshold classification metrics from scored rows with ground truth.
package prcurve

import (
	"errors"
	"sort"
	"strings"

	"github.com/flowsight/flowsight/pkg/dataset"
)

// ErrUnavailable reports that the curve cannot be computed: no ground-truth
// column, no rows with both a score and a label, or zero positives. Callers
// surface this as "unavailable", never as a computation failure.
var ErrUnavailable = errors.New("precision-recall curve unavailable: scored rows with ground truth labels required")

// Point is one (recall, precision) pair with the score threshold that
// produced it. Recall is non-decreasing over a curve's point sequence.
type Point struct {
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
	Threshold float64 `json:"threshold"`
}

// ThresholdMetrics are the classification metrics at one score cutoff,
// computed by re-scanning every eligible row against it.
type ThresholdMetrics struct {
	Threshold float64 `json:"threshold"`
	Flagged   int     `json:"flagged"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Curve is a computed precision-recall curve plus its summary metrics.
type Curve struct {
	Points           []Point `json:"points"`
	PositiveLabel    string  `json:"positive_label"`
	AveragePrecision float64 `json:"average_precision"`
	BestThreshold    float64 `json:"best_threshold"`
	BestF1           float64 `json:"best_f1"`

	entries        []entry
	totalPositives int
}

type entry struct {
	score    float64
	positive bool
}

// Compute builds the full curve from scored rows and the resolved schema.
// Rows lacking a numeric score or a ground-truth value are excluded entirely
// rather than counted as negatives. hint, when non-empty, steers which label
// value is treated as positive.
func Compute(rows []dataset.Row, schema dataset.Schema, hint string) (*Curve, error) {
	if !schema.HasLabels() {
		return nil, ErrUnavailable
	}

	var entries []entry
	var labels []string
	var distinct []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		score, ok := row.ScoreValue()
		if !ok {
			continue
		}
		raw, ok := row.Field(schema.LabelColumn)
		if !ok {
			continue
		}
		label := dataset.NormalizeLabel(raw)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; !dup {
			seen[label] = struct{}{}
			distinct = append(distinct, label)
		}
		entries = append(entries, entry{score: score})
		labels = append(labels, label)
	}
	if len(entries) == 0 {
		return nil, ErrUnavailable
	}

	positive, ok := dataset.InferPositiveLabel(distinct, hint)
	if !ok {
		return nil, ErrUnavailable
	}

	totalPositives := 0
	for i := range entries {
		entries[i].positive = strings.EqualFold(labels[i], positive)
		if entries[i].positive {
			totalPositives++
		}
	}
	if totalPositives == 0 {
		return nil, ErrUnavailable
	}
	totalNegatives := len(entries) - totalPositives

	sorted := make([]entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	points := make([]Point, 0, len(sorted)+2)
	points = append(points, Point{Recall: 0, Precision: 1, Threshold: 1})
	tp, fp := 0, 0
	for _, e := range sorted {
		if e.positive {
			tp++
		} else {
			fp++
		}
		precision := 1.0
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		points = append(points, Point{
			Recall:    float64(tp) / float64(totalPositives),
			Precision: precision,
			Threshold: e.score,
		})
	}
	if points[len(points)-1].Recall < 1 {
		tail := 0.0
		if totalPositives+totalNegatives > 0 {
			tail = float64(totalPositives) / float64(totalPositives+totalNegatives)
		}
		points = append(points, Point{Recall: 1, Precision: tail, Threshold: 0})
	}

	// Recall-weighted summation; the negative clamp guards against
	// reordering noise from duplicate scores.
	ap := 0.0
	for i := 1; i < len(points); i++ {
		delta := points[i].Recall - points[i-1].Recall
		if delta > 0 {
			ap += points[i].Precision * delta
		}
	}

	curve := &Curve{
		Points:           points,
		PositiveLabel:    positive,
		AveragePrecision: ap,
		entries:          sorted,
		totalPositives:   totalPositives,
	}
	curve.BestThreshold, curve.BestF1 = curve.bestF1Threshold()
	return curve, nil
}

// MetricsAt evaluates precision/recall/F1 at an arbitrary cutoff by
// re-scanning all eligible rows. The cutoff is clamped to [0, 1]. A cutoff
// that flags nothing has precision 1 (vacuous truth) and recall 0.
func (c *Curve) MetricsAt(threshold float64) ThresholdMetrics {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	tp, fp, flagged := 0, 0, 0
	for _, e := range c.entries {
		if e.score >= threshold {
			flagged++
			if e.positive {
				tp++
			} else {
				fp++
			}
		}
	}
	precision := 1.0
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	recall := 0.0
	if c.totalPositives > 0 {
		recall = float64(tp) / float64(c.totalPositives)
	}
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return ThresholdMetrics{
		Threshold: threshold,
		Flagged:   flagged,
		Precision: precision,
		Recall:    recall,
		F1:        f1,
	}
}

// bestF1Threshold evaluates every distinct observed score plus the endpoints
// 1 and 0, keeping the first candidate that attains the maximum F1. Distinct
// scores are visited in descending order with the endpoints appended last, so
// ties resolve to the largest observed threshold; this is deterministic for
// any row set.
func (c *Curve) bestF1Threshold() (float64, float64) {
	candidates := make([]float64, 0, len(c.entries)+2)
	var last float64
	haveLast := false
	for _, e := range c.entries {
		if haveLast && e.score == last {
			continue
		}
		candidates = append(candidates, e.score)
		last = e.score
		haveLast = true
	}
	candidates = append(candidates, 1, 0)

	best := candidates[0]
	bestF1 := -1.0
	for _, cand := range candidates {
		m := c.MetricsAt(cand)
		if m.F1 > bestF1 {
			bestF1 = m.F1
			best = cand
		}
	}
	if best < 0 {
		best = 0
	}
	if best > 1 {
		best = 1
	}
	if bestF1 < 0 {
		bestF1 = 0
	}
	return best, bestF1
}
