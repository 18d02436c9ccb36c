// Package aggregate derives chart-ready aggregates from a row set: label
// breakdowns, attack-taxonomy counts, top targeted services/ports, score
// bands and the port-by-attack crosstab. Every function is a pure pass over
// its input and produces the same shape whether the rows are filtered or not.
package aggregate

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/flowsight/flowsight/pkg/dataset"
)

const (
	topEntryLimit    = 10
	heatmapPortLimit = 15
)

// Count is one (key, count) pair in a descending top-N sequence.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Heatmap is the dense attack-type-by-port crosstab. Rows follow AttackTypes
// order (total activity descending), columns follow Ports order (total
// attacks descending, capped at the top 15).
type Heatmap struct {
	Ports       []int    `json:"ports"`
	AttackTypes []string `json:"attack_types"`
	Matrix      [][]int  `json:"matrix"`
}

// ScoreBand is one severity bucket of the score distribution.
type ScoreBand struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// LabelBreakdown counts rows per prediction value. The counts always sum to
// len(rows): every row carries exactly one prediction.
func LabelBreakdown(rows []dataset.Row) map[string]int {
	counts := make(map[string]int, 4)
	for _, row := range rows {
		counts[row.Prediction]++
	}
	return counts
}

// AttackTaxonomy tallies normalized attack categories over the anomalous
// rows, excluding benign/placeholder values. The taxonomy column comes from
// the resolved schema; when unresolved the result is empty.
func AttackTaxonomy(rows []dataset.Row, schema dataset.Schema) map[string]int {
	if schema.AttackColumn == "" {
		return map[string]int{}
	}
	counts := make(map[string]int)
	for _, row := range rows {
		if schema.PositiveLabel != "" && row.Prediction != schema.PositiveLabel {
			continue
		}
		raw, ok := row.Field(schema.AttackColumn)
		if !ok {
			continue
		}
		cat := dataset.NormalizeAttackCategory(cast.ToString(raw))
		if dataset.IsBenignCategory(cat) {
			continue
		}
		counts[cat]++
	}
	return counts
}

// TopServices returns the ten most frequently targeted services among
// anomalous rows, descending by count. Placeholder spellings and the literal
// "0" are excluded. When an attack-taxonomy column is resolved, rows without
// a valid category are dropped for consistency with the heatmap.
func TopServices(rows []dataset.Row, schema dataset.Schema) []Count {
	if schema.ServiceColumn == "" {
		return nil
	}
	counts := make(map[string]int)
	for _, row := range rows {
		if schema.PositiveLabel != "" && row.Prediction != schema.PositiveLabel {
			continue
		}
		if schema.AttackColumn != "" {
			raw, ok := row.Field(schema.AttackColumn)
			if !ok || dataset.IsBenignCategory(dataset.NormalizeAttackCategory(cast.ToString(raw))) {
				continue
			}
		}
		raw, ok := row.Field(schema.ServiceColumn)
		if !ok {
			continue
		}
		svc := strings.TrimSpace(cast.ToString(raw))
		if dataset.IsPlaceholder(svc) || svc == "0" {
			continue
		}
		counts[svc]++
	}
	return topN(counts, topEntryLimit)
}

// TopPorts returns the ten most targeted destination ports among anomalous
// rows, descending by count.
func TopPorts(rows []dataset.Row, schema dataset.Schema) []Count {
	if schema.PortColumn == "" {
		return nil
	}
	counts := make(map[string]int)
	for _, row := range rows {
		if schema.PositiveLabel != "" && row.Prediction != schema.PositiveLabel {
			continue
		}
		raw, ok := row.Field(schema.PortColumn)
		if !ok {
			continue
		}
		port, ok := dataset.Port(raw)
		if !ok {
			continue
		}
		counts[cast.ToString(port)]++
	}
	return topN(counts, topEntryLimit)
}

func topN(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ScoreBands buckets scored rows into the fixed severity bands used by the
// score-distribution chart. Unscored rows are excluded. Returns nil when no
// row carries a score.
func ScoreBands(rows []dataset.Row) []ScoreBand {
	bands := []ScoreBand{
		{Label: ">= 0.95 (Critical)", Min: 0.95, Max: 1.0001},
		{Label: "0.80 - 0.95 (High)", Min: 0.80, Max: 0.95},
		{Label: "0.50 - 0.80 (Medium)", Min: 0.50, Max: 0.80},
		{Label: "< 0.50 (Low)", Min: -0.001, Max: 0.50},
	}
	scored := 0
	for _, row := range rows {
		score, ok := row.ScoreValue()
		if !ok {
			continue
		}
		scored++
		for i := range bands {
			if score >= bands[i].Min && score < bands[i].Max {
				bands[i].Count++
				break
			}
		}
	}
	if scored == 0 {
		return nil
	}
	return bands
}
